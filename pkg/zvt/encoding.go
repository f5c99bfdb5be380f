package zvt

import (
	"fmt"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding selects how the PT's text fields (print lines and receipt
// blocks) are decoded; an IntermediateStatus is read from its status code
// only, so no text of it is decoded. It is fixed at client construction
// and never changes mid-session.
type TextEncoding int

const (
	// EncodingCP437 is the PT default (IBM PC "OEM" code page).
	EncodingCP437 TextEncoding = iota
	EncodingUTF8
	EncodingISO88591
	EncodingISO88592
	EncodingISO885915
)

// errUnknownEncoding is wrapped in the error returned when constructing a
// client with an unrecognized TextEncoding.
var errUnknownEncoding = fmt.Errorf("zvt: unknown text encoding")

func (e TextEncoding) decoder() (xencoding.Encoding, error) {
	switch e {
	case EncodingCP437:
		return charmap.CodePage437, nil
	case EncodingUTF8:
		return unicode.UTF8, nil
	case EncodingISO88591:
		return charmap.ISO8859_1, nil
	case EncodingISO88592:
		return charmap.ISO8859_2, nil
	case EncodingISO885915:
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("%w: %d", errUnknownEncoding, e)
	}
}

// decodeText converts raw PT bytes to a Go string using the configured
// encoding. Decode errors degrade to the byte-for-byte Latin-1 reading of
// the input rather than failing the whole reply parse — a PT sending an
// unexpected byte sequence in a free-text field should not prevent the
// structured fields around it from being surfaced.
func decodeText(enc xencoding.Encoding, raw []byte) string {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		latin1 := make([]rune, len(raw))
		for i, b := range raw {
			latin1[i] = rune(b)
		}
		return string(latin1)
	}
	return string(out)
}
