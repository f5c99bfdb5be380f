package zvt

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/moov-io/bertlv"

	"github.com/zvtgo/zvtclient/pkg/bcd"
	"github.com/zvtgo/zvtclient/pkg/tlv"
)

// timeOfDay builds a time.Time carrying only an hour/minute/second —
// StatusInformation's tag 0C has no date component, matching the wire
// field it decodes.
func timeOfDay(hh, mm, ss int) time.Time {
	return time.Date(0, 1, 1, hh, mm, ss, 0, time.UTC)
}

// bmpFixedLengths gives the payload width, in bytes, of each
// StatusInformation BMP field's value once its 1-byte tag has been
// consumed. Tag 0x06, which is not in this table, starts the trailing
// embedded TLV block; any other tag absent from this table ends BMP
// parsing, and the bytes from that tag on are not decoded.
var bmpFixedLengths = map[byte]int{
	0x04: 6, // amount
	0x0B: 3, // trace number
	0x0C: 3, // time HHMMSS
	0x0D: 2, // date MMDD
	0x0E: 2, // expiry YYMM
	0x17: 2, // receipt number
	0x19: 1, // card type
	0x22: 6, // PAN tail
	0x27: 1, // result code
	0x29: 4, // terminal id
	0x3B: 8, // AID
	0x60: 2, // multi-reference
}

const tagEmbeddedTLV = 0x06

// ReplyDecoder classifies inbound payloads by control field and emits
// typed events to subscribers. It owns no transport; LinkChannel hands it
// whole packages via Decode.
type ReplyDecoder struct {
	encoding TextEncoding
	textDec  textDecoderFunc
	errors   ErrorCatalog
	statuses StatusCatalog
	logger   *slog.Logger

	StatusInformationReceived  *Bus[StatusInformation]
	IntermediateStatusReceived *Bus[IntermediateStatus]
	LineReceived               *Bus[PrintLine]
	ReceiptReceived            *Bus[PrintTextBlock]

	// completion/abort/notSupported are internal termination buses;
	// CommandSession is the only subscriber, one at a time.
	completionReceived   *Bus[StatusInformation]
	abortReceived        *Bus[CommandResponse]
	notSupportedReceived *Bus[struct{}]
}

type textDecoderFunc func([]byte) string

// NewReplyDecoder builds a decoder using the given text encoding,
// catalogs, and logger (nil logger falls back to slog.Default()).
func NewReplyDecoder(encoding TextEncoding, errors ErrorCatalog, statuses StatusCatalog, logger *slog.Logger) (*ReplyDecoder, error) {
	enc, err := encoding.decoder()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReplyDecoder{
		encoding:                   encoding,
		textDec:                    func(b []byte) string { return decodeText(enc, b) },
		errors:                     errors,
		statuses:                   statuses,
		logger:                     logger.With(slog.String("component", "zvt.decoder")),
		StatusInformationReceived:  newBus[StatusInformation](),
		IntermediateStatusReceived: newBus[IntermediateStatus](),
		LineReceived:               newBus[PrintLine](),
		ReceiptReceived:            newBus[PrintTextBlock](),
		completionReceived:         newBus[StatusInformation](),
		abortReceived:              newBus[CommandResponse](),
		notSupportedReceived:       newBus[struct{}](),
	}, nil
}

// Decode parses one whole inbound application package and fans the
// resulting event out to subscribers. Decode errors and unknown control
// fields are logged and the frame is dropped — they never resolve an
// in-flight CommandSession; its timeout will eventually fire (§7).
func (d *ReplyDecoder) Decode(pkg Package) {
	switch pkg.ControlField {
	case CFStatusInformation:
		info, err := d.parseStatusInformation(pkg.Payload)
		if err != nil {
			d.logger.Error("malformed StatusInformation", "error", err)
			return
		}
		d.StatusInformationReceived.emit(info)

	case CFIntermediateStatus:
		status, err := d.parseIntermediateStatus(pkg.Payload)
		if err != nil {
			d.logger.Error("malformed IntermediateStatus", "error", err)
			return
		}
		d.IntermediateStatusReceived.emit(status)

	case CFPrintLine:
		line, err := d.parsePrintLine(pkg.Payload)
		if err != nil {
			d.logger.Error("malformed PrintLine", "error", err)
			return
		}
		d.LineReceived.emit(line)

	case CFPrintTextBlock:
		block, err := d.parsePrintTextBlock(pkg.Payload)
		if err != nil {
			d.logger.Error("malformed PrintTextBlock", "error", err)
			return
		}
		d.ReceiptReceived.emit(block)

	case CFCompletion:
		// Payload may contain StatusInformation-shaped fields; surface
		// them as a StatusInformation event too (wire order: before the
		// session resolves, per §5's ordering guarantee — CommandSession
		// subscribes to completionReceived, not this public bus, for its
		// own resolution so emission order here doesn't race it).
		info, _ := d.parseStatusInformation(pkg.Payload)
		if len(pkg.Payload) > 0 {
			d.StatusInformationReceived.emit(info)
		}
		d.completionReceived.emit(info)

	case CFAbort:
		if len(pkg.Payload) < 1 {
			d.logger.Error("malformed Abort: empty payload")
			return
		}
		code := pkg.Payload[0]
		d.abortReceived.emit(abortResponse(d.errors.Lookup(code)))

	default:
		d.logger.Warn("unknown control field", "control_field", pkg.ControlField.String(), "error", ErrUnknownControlField)
	}
}

// NotSupported emits the internal not-supported termination event, which
// resolves an in-flight CommandSession as NotSupported. Decode never
// calls it, and neither does ZvtClient: a negative link-layer
// acknowledgement resolves a command as Error instead.
func (d *ReplyDecoder) NotSupported() {
	d.notSupportedReceived.emit(struct{}{})
}

func (d *ReplyDecoder) parseIntermediateStatus(payload []byte) (IntermediateStatus, error) {
	if len(payload) < 1 {
		return IntermediateStatus{}, fmt.Errorf("zvt: empty IntermediateStatus payload")
	}
	code := payload[0]
	return IntermediateStatus{Code: code, Message: d.statuses.Lookup(code)}, nil
}

func (d *ReplyDecoder) parsePrintLine(payload []byte) (PrintLine, error) {
	if len(payload) < 1 {
		return PrintLine{}, fmt.Errorf("zvt: empty PrintLine payload")
	}
	attr := payload[0]
	return PrintLine{
		Last: attr&0x80 != 0,
		Text: d.textDec(payload[1:]),
	}, nil
}

func (d *ReplyDecoder) parsePrintTextBlock(payload []byte) (PrintTextBlock, error) {
	if len(payload) < 1 {
		return PrintTextBlock{}, fmt.Errorf("zvt: empty PrintTextBlock payload")
	}
	block := PrintTextBlock{ReceiptType: payload[0]}

	packets, err := bertlv.Decode(payload[1:])
	if err != nil {
		return PrintTextBlock{}, fmt.Errorf("zvt: PrintTextBlock TLV decode: %w", err)
	}
	for _, p := range packets {
		if p.Tag == "07" {
			block.Lines = append(block.Lines, d.textDec(p.Value))
		}
	}
	return block, nil
}

// parseStatusInformation walks the sequence of BMP fields in payload.
// Each field is a 1-byte tag followed by a fixed-width value (per
// bmpFixedLengths). Tag 0x06 starts the trailing embedded TLV block,
// which is decoded into RawTLV and ends parsing; any other tag not found
// in that table also ends parsing, and the rest of the payload is
// dropped.
func (d *ReplyDecoder) parseStatusInformation(payload []byte) (StatusInformation, error) {
	var info StatusInformation
	i := 0

	for i < len(payload) {
		tag := payload[i]

		if tag == tagEmbeddedTLV {
			var rest struct {
				Unknown []bertlv.TLV
			}
			if err := tlv.Unmarshal(payload[i:], &rest); err != nil {
				return info, fmt.Errorf("zvt: embedded TLV decode: %w", err)
			}
			info.RawTLV = rest.Unknown
			break
		}

		width, known := bmpFixedLengths[tag]
		if !known {
			// Unknown fixed tag with no length table entry: nothing
			// further can be safely parsed without misreading the
			// remaining bytes, so stop here rather than guess.
			break
		}
		i++
		if i+width > len(payload) {
			return info, fmt.Errorf("zvt: StatusInformation tag 0x%02X truncated", tag)
		}
		value := payload[i : i+width]
		i += width

		if err := d.applyBMPField(&info, tag, value); err != nil {
			return info, err
		}
	}

	if info.ResultCode != nil && *info.ResultCode != 0 {
		info.ResultMessage = d.errors.Lookup(*info.ResultCode)
	}

	return info, nil
}

func (d *ReplyDecoder) applyBMPField(info *StatusInformation, tag byte, value []byte) error {
	switch tag {
	case 0x04:
		var arr [6]byte
		copy(arr[:], value)
		amt, err := bcd.BCDToInt(arr[:])
		if err != nil {
			return fmt.Errorf("zvt: amount field: %w", err)
		}
		v := int64(amt)
		info.Amount = &v

	case 0x0B:
		trace, err := bcd.BCDToInt(value)
		if err != nil {
			return fmt.Errorf("zvt: trace field: %w", err)
		}
		v := uint32(trace)
		info.Trace = &v

	case 0x0C:
		hhmmss, err := bcd.BCDToInt(value)
		if err != nil {
			return fmt.Errorf("zvt: time field: %w", err)
		}
		hh := hhmmss / 10000
		mm := (hhmmss / 100) % 100
		ss := hhmmss % 100
		t := timeOfDay(int(hh), int(mm), int(ss))
		info.Time = &t

	case 0x0D:
		s, err := bcdDigits(value)
		if err != nil {
			return fmt.Errorf("zvt: date field: %w", err)
		}
		info.Date = &s

	case 0x0E:
		s, err := bcdDigits(value)
		if err != nil {
			return fmt.Errorf("zvt: expiry field: %w", err)
		}
		info.Expiry = &s

	case 0x17:
		receipt, err := bcd.BCDToInt(value)
		if err != nil {
			return fmt.Errorf("zvt: receipt field: %w", err)
		}
		v := uint32(receipt)
		info.ReceiptNumber = &v

	case 0x19:
		info.CardType = append([]byte(nil), value...)

	case 0x22:
		info.PANTail = append([]byte(nil), value...)

	case 0x27:
		v := value[0]
		info.ResultCode = &v

	case 0x29:
		termID, err := bcd.BCDToInt(value)
		if err != nil {
			return fmt.Errorf("zvt: terminal id field: %w", err)
		}
		v := uint32(termID)
		info.TerminalID = &v

	case 0x3B:
		info.AID = append([]byte(nil), value...)

	case 0x60:
		info.MultiRef = append([]byte(nil), value...)
	}
	return nil
}

// bcdDigits renders a BCD field as its literal decimal digit string
// (e.g. MMDD "0731"), since date/expiry fields are display data, not
// arithmetic quantities.
func bcdDigits(value []byte) (string, error) {
	out := make([]byte, 0, len(value)*2)
	for _, b := range value {
		hi, lo := b>>4, b&0x0F
		if hi > 9 || lo > 9 {
			return "", fmt.Errorf("zvt: invalid BCD digit in 0x%02X", b)
		}
		out = append(out, '0'+hi, '0'+lo)
	}
	return string(out), nil
}
