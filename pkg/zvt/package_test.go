package zvt

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuild_Payment(t *testing.T) {
	// Scenario from spec: Payment, amount 1.23 EUR -> 06 01 07 04 00 00 00 00 01 23
	payload := []byte{0x04, 0x00, 0x00, 0x00, 0x00, 0x01, 0x23}
	got := Build(CFPayment, payload)
	want := []byte{0x06, 0x01, 0x07, 0x04, 0x00, 0x00, 0x00, 0x00, 0x01, 0x23}
	if !bytes.Equal(got, want) {
		t.Errorf("Build() = %X, want %X", got, want)
	}
}

func TestBuild_LongPayloadEscape(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	got := Build(CFRegistration, payload)
	if got[2] != lengthEscape {
		t.Fatalf("expected length-escape byte, got 0x%02X", got[2])
	}
	declared := int(got[3]) | int(got[4])<<8
	if declared != len(payload) {
		t.Errorf("declared length = %d, want %d", declared, len(payload))
	}
	if !bytes.Equal(got[5:], payload) {
		t.Error("payload mismatch after escape header")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x87, 0x00, 0x42}
	raw := Build(CFReversal, payload)

	pkg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pkg.ControlField != CFReversal {
		t.Errorf("ControlField = %v, want %v", pkg.ControlField, CFReversal)
	}
	if !bytes.Equal(pkg.Payload, payload) {
		t.Errorf("Payload = %X, want %X", pkg.Payload, payload)
	}
}

func TestParse_ShortFrame(t *testing.T) {
	_, err := Parse([]byte{0x06})
	if !errors.Is(err, ErrShortFrame) {
		t.Errorf("expected ErrShortFrame, got %v", err)
	}
}

func TestParse_LengthMismatch(t *testing.T) {
	_, err := Parse([]byte{0x06, 0x01, 0x05, 0x01, 0x02})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestParse_EscapedLength(t *testing.T) {
	payload := make([]byte, 260)
	raw := Build(CFRegistration, payload)

	pkg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pkg.Payload) != 260 {
		t.Errorf("Payload length = %d, want 260", len(pkg.Payload))
	}
}

func TestBuildParse_AllValidPackages(t *testing.T) {
	for _, cf := range []ControlField{CFRegistration, CFPayment, CFReversal, CFRefund, CFEndOfDay} {
		for _, n := range []int{0, 1, 254} {
			payload := make([]byte, n)
			raw := Build(cf, payload)
			pkg, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse(Build(%v, len=%d)) error = %v", cf, n, err)
			}
			if pkg.ControlField != cf || len(pkg.Payload) != n {
				t.Errorf("round trip mismatch for cf=%v len=%d", cf, n)
			}
		}
	}
}
