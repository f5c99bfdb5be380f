package zvt

import (
	"bytes"
	"errors"
	"fmt"
)

// Package encodings and framing according to the ZVT wire format.
//
// A ZVT application package has the shape:
//
//	CCRC || APRC || LEN || payload
//
// where CCRC/APRC form the two-byte control field, LEN is a single
// length byte (0-254) giving the payload size, and payload is LEN bytes.
// Payloads over 254 bytes use a length-escape (LEN = 0xFF followed by
// two little-endian length bytes) which the core does not emit but must
// still be able to parse on receipt — framing and fragmentation below the
// application package are handled by the LinkChannel, not here.

// MaxShortPayload is the largest payload length encodable in the
// single-byte length form.
const MaxShortPayload = 254

// lengthEscape marks a package whose length is carried in the two bytes
// that follow, little-endian, rather than in a single byte.
const lengthEscape = 0xFF

// ErrShortFrame is returned when a buffer handed to Parse is too small to
// contain even an empty package (control field + length byte).
var ErrShortFrame = errors.New("zvt: frame shorter than 3 bytes")

// ErrLengthMismatch is returned when the declared payload length disagrees
// with the number of bytes actually present in the buffer.
var ErrLengthMismatch = errors.New("zvt: declared length does not match buffer size")

// Package is one parsed or about-to-be-built ZVT application package.
type Package struct {
	ControlField ControlField
	Payload      []byte
}

// Build encodes the package to its wire form. Lengths up to
// MaxShortPayload use the single-byte form; longer payloads use the
// length-escape. The core's own command encoders never produce payloads
// over MaxShortPayload, but Build supports it so a Custom command can.
func Build(cf ControlField, payload []byte) []byte {
	b := cf.Bytes()
	buf := bytes.NewBuffer(make([]byte, 0, len(payload)+5))
	buf.Write(b[:])

	if len(payload) <= MaxShortPayload {
		buf.WriteByte(byte(len(payload)))
	} else {
		buf.WriteByte(lengthEscape)
		buf.WriteByte(byte(len(payload)))
		buf.WriteByte(byte(len(payload) >> 8))
	}
	buf.Write(payload)
	return buf.Bytes()
}

// Parse splits one whole application package, as delivered by a
// LinkChannel, into its control field and payload. It fails with
// ErrShortFrame if the buffer cannot hold a header, and ErrLengthMismatch
// if the declared length disagrees with what was actually delivered.
func Parse(raw []byte) (Package, error) {
	if len(raw) < 3 {
		return Package{}, fmt.Errorf("%w: got %d bytes", ErrShortFrame, len(raw))
	}

	cf := NewControlField(raw[0], raw[1])
	lenByte := raw[2]

	if lenByte != lengthEscape {
		payload := raw[3:]
		if int(lenByte) != len(payload) {
			return Package{}, fmt.Errorf("%w: header says %d, buffer has %d", ErrLengthMismatch, lenByte, len(payload))
		}
		return Package{ControlField: cf, Payload: payload}, nil
	}

	if len(raw) < 5 {
		return Package{}, fmt.Errorf("%w: escaped length header truncated", ErrShortFrame)
	}
	declared := int(raw[3]) | int(raw[4])<<8
	payload := raw[5:]
	if declared != len(payload) {
		return Package{}, fmt.Errorf("%w: header says %d, buffer has %d", ErrLengthMismatch, declared, len(payload))
	}
	return Package{ControlField: cf, Payload: payload}, nil
}
