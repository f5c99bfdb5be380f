package tlv

import (
	"fmt"

	"github.com/moov-io/bertlv"
)

// Writer composes a nested TLV container bottom-up. It mirrors bertlv's
// TLV tree shape so the same library that decodes ZVT's embedded TLV
// blocks (see Unmarshal) also encodes them.
type Writer struct {
	tag      string
	value    []byte
	children []bertlv.TLV
}

// NewWriter starts a container for the given hex tag (e.g. "06" or "9F38").
func NewWriter(tag string) *Writer {
	return &Writer{tag: tag}
}

// Bytes sets a primitive (leaf) value for this tag. It is mutually
// exclusive with Nested; the last call wins.
func (w *Writer) Bytes(value []byte) *Writer {
	w.value = value
	w.children = nil
	return w
}

// Nested appends a constructed child TLV built by a sub-writer.
func (w *Writer) Nested(child *Writer) *Writer {
	w.children = append(w.children, child.tlv())
	w.value = nil
	return w
}

func (w *Writer) tlv() bertlv.TLV {
	return bertlv.TLV{Tag: w.tag, Value: w.value, TLVs: w.children}
}

// Encode serializes the container (and all nested children) to its ZVT
// wire form: tag || length || value, with the long-form length and
// multi-byte tag rules applied automatically by bertlv.
func (w *Writer) Encode() ([]byte, error) {
	out, err := bertlv.Encode([]bertlv.TLV{w.tlv()})
	if err != nil {
		return nil, fmt.Errorf("tlv: encode tag %s: %w", w.tag, err)
	}
	return out, nil
}

// EncodeAll serializes a flat sequence of sibling writers into one buffer,
// used where a payload carries more than one top-level TLV element (for
// example PrintTextBlock's repeated "07" line tags).
func EncodeAll(writers ...*Writer) ([]byte, error) {
	tlvs := make([]bertlv.TLV, 0, len(writers))
	for _, w := range writers {
		tlvs = append(tlvs, w.tlv())
	}
	out, err := bertlv.Encode(tlvs)
	if err != nil {
		return nil, fmt.Errorf("tlv: encode sequence: %w", err)
	}
	return out, nil
}
