package zvt

import (
	"time"

	"github.com/moov-io/bertlv"
)

// StatusInformation is the structured transaction result carried in a
// 04 0F package (and, when present, echoed inside a 06 0F Completion).
// Only the fixed fields the spec names are surfaced individually; a
// trailing embedded TLV block is kept in RawTLV for callers that need it.
// Fields following a tag the decoder does not recognize are not kept.
type StatusInformation struct {
	Amount        *int64     // minor units, tag 04 (6 BCD)
	Trace         *uint32    // tag 0B (3 BCD)
	Time          *time.Time // tag 0C, HHMMSS (3 BCD), date-less
	Date          *string    // tag 0D, MMDD (2 BCD)
	Expiry        *string    // tag 0E, YYMM (2 BCD)
	ReceiptNumber *uint32    // tag 17 (2 BCD)
	CardType      []byte     // tag 19
	PANTail       []byte     // tag 22
	ResultCode    *byte      // tag 27 (1 byte; 0 = success)
	TerminalID    *uint32    // tag 29 (4 BCD)
	AID           []byte     // tag 3B
	MultiRef      []byte     // tag 60

	// ResultMessage is the ErrorCatalog lookup of ResultCode, empty if
	// ResultCode is nil or zero (success).
	ResultMessage string

	// RawTLV holds the embedded TLV block (leading tag 06) found after
	// the fixed BMP fields, undecoded.
	RawTLV []bertlv.TLV
}

// IntermediateStatus is a single PT status update (04 FF), resolved
// through a StatusCatalog into Message.
type IntermediateStatus struct {
	Code    byte
	Message string
}

// LineAttribute classifies a PrintLine's role in a receipt.
type LineAttribute byte

const (
	LineAttributeBody LineAttribute = iota
	LineAttributeLast
)

// PrintLine is one text line of output (06 D1): attribute byte (bit 7 =
// last line) followed by the line's text.
type PrintLine struct {
	Last bool
	Text string
}

// PrintTextBlock is a multi-line receipt (06 D3): a receipt-type byte
// followed by TLV-tagged ("07") text lines.
type PrintTextBlock struct {
	ReceiptType byte
	Lines       []string
}
