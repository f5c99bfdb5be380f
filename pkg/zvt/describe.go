package zvt

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"

	"github.com/zvtgo/zvtclient/pkg/tlv"
)

// String renders a human-readable multi-line summary of the fixed fields
// present and any trailing embedded TLV data, for logging and debugging —
// it never changes the TLV values themselves, only how they are
// displayed.
func (s StatusInformation) String() string {
	var sb strings.Builder
	sb.WriteString("StatusInformation:")

	if s.Amount != nil {
		fmt.Fprintf(&sb, "\n    - Amount: %d", *s.Amount)
	}
	if s.Trace != nil {
		fmt.Fprintf(&sb, "\n    - Trace: %d", *s.Trace)
	}
	if s.Time != nil {
		fmt.Fprintf(&sb, "\n    - Time: %s", s.Time.Format("15:04:05"))
	}
	if s.Date != nil {
		fmt.Fprintf(&sb, "\n    - Date: %s", *s.Date)
	}
	if s.Expiry != nil {
		fmt.Fprintf(&sb, "\n    - Expiry: %s", *s.Expiry)
	}
	if s.ReceiptNumber != nil {
		fmt.Fprintf(&sb, "\n    - ReceiptNumber: %d", *s.ReceiptNumber)
	}
	if s.ResultCode != nil {
		fmt.Fprintf(&sb, "\n    - ResultCode: 0x%02X (%s)", *s.ResultCode, s.ResultMessage)
	}

	tlv.WriteStructFields(&sb, "StatusInformation", &struct {
		CardType []byte `fmt:"ascii"`
		PANTail  []byte `fmt:"int"`
		AID      []byte
		MultiRef []byte
		Unknown  []bertlv.TLV
	}{s.CardType, s.PANTail, s.AID, s.MultiRef, s.RawTLV})

	return sb.String()
}

// String renders a human-readable summary of a PrintTextBlock's lines.
func (b PrintTextBlock) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PrintTextBlock (type 0x%02X):", b.ReceiptType)
	for _, line := range b.Lines {
		sb.WriteString("\n    ")
		sb.WriteString(line)
	}
	return sb.String()
}
