package zvt

import (
	"github.com/zvtgo/zvtclient/pkg/bcd"
	"github.com/zvtgo/zvtclient/pkg/bits"
	"github.com/zvtgo/zvtclient/pkg/tlv"
)

// DefaultCurrencyCode is EUR's ISO-4217 numeric code, the spec's
// hard-coded default. RegistrationConfig exposes it as a field so a
// caller can target another currency without touching the wire codec.
const DefaultCurrencyCode uint16 = 978

// RegistrationConfig controls PT behavior for the lifetime of a
// Registration. Each bit is documented with its wire polarity — several
// bits are "set when disabled", a common ZVT gotcha carried over
// verbatim from the protocol definition.
type RegistrationConfig struct {
	// SuppressPaymentReceipt, when true, tells the PT not to print a
	// receipt for payments (config byte bit 1, set when disabled).
	SuppressPaymentReceipt bool
	// SuppressAdminReceipt, when true, suppresses admin receipt printing
	// (bit 2, set when disabled).
	SuppressAdminReceipt bool
	// SendIntermediateStatus requests IntermediateStatus notifications
	// during a command (bit 3, set when enabled).
	SendIntermediateStatus bool
	// DisallowStartPaymentViaPT disables starting a payment from the PT's
	// own keypad (bit 4, set when disabled).
	DisallowStartPaymentViaPT bool
	// DisallowAdministrationViaPT disables admin functions from the PT's
	// own keypad (bit 5, set when disabled).
	DisallowAdministrationViaPT bool

	// ServiceByte is passed through to the wire unchanged; its bit
	// meanings are PT/vendor specific and outside the core's concern.
	ServiceByte byte

	// CurrencyCode is the ISO-4217 numeric currency code sent with
	// Registration. Defaults to DefaultCurrencyCode (EUR) if zero.
	CurrencyCode uint16

	// ActivateTLVSupport, when true, includes the permitted-commands TLV
	// block that allows the PT to send PrintTextBlock (06 D3) replies.
	ActivateTLVSupport bool
}

// configByte packs the flag bits into the single Registration config
// byte. Bit 7 (ECR print-type) is always set, per the protocol. Protocol
// bits count from 0 (bit 0 = LSB) while the bits helpers count from 1, so
// protocol bit n is passed as n+1.
func (c RegistrationConfig) configByte() byte {
	var b byte
	b = bits.SetIf(b, 1+1, c.SuppressPaymentReceipt)
	b = bits.SetIf(b, 2+1, c.SuppressAdminReceipt)
	b = bits.SetIf(b, 3+1, c.SendIntermediateStatus)
	b = bits.SetIf(b, 4+1, c.DisallowStartPaymentViaPT)
	b = bits.SetIf(b, 5+1, c.DisallowAdministrationViaPT)
	b = bits.Set(b, 7+1)
	return b
}

func (c RegistrationConfig) currencyCode() uint16 {
	if c.CurrencyCode == 0 {
		return DefaultCurrencyCode
	}
	return c.CurrencyCode
}

// registrationTLV builds the embedded permitted-commands block:
// tag 06 len 06 { tag 26 len 04 { tag 0A len 02, value 06 D3 } }
// — the single permitted command being PrintTextBlock (06 D3).
func registrationTLV() ([]byte, error) {
	inner := tlv.NewWriter("0A").Bytes([]byte{0x06, 0xD3})
	mid := tlv.NewWriter("26").Nested(inner)
	outer := tlv.NewWriter("06").Nested(mid)
	return outer.Encode()
}

// payload encodes the Registration command body:
// pwd(3) || configByte(1) || currency(2 BCD) || 03 || serviceByte(1) [|| TLV]
func (c RegistrationConfig) payload(password Password) ([]byte, error) {
	pwd, err := password.bcd()
	if err != nil {
		return nil, err
	}
	cc, err := bcd.IntToBCD(uint64(c.currencyCode()), 2)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 9)
	out = append(out, pwd[:]...)
	out = append(out, c.configByte())
	out = append(out, cc...)
	out = append(out, 0x03)
	out = append(out, c.ServiceByte)

	if c.ActivateTLVSupport {
		block, err := registrationTLV()
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}

	return out, nil
}

// Password is the six-digit decimal terminal password (0-999999),
// transmitted as three packed-BCD bytes prepended to most commands.
type Password uint32

// MaxPassword is the largest representable Password.
const MaxPassword = 999999

func (p Password) bcd() ([3]byte, error) {
	var out [3]byte
	if p > MaxPassword {
		return out, errInvalidPassword(uint32(p))
	}
	enc, err := bcd.IntToBCD(uint64(p), 3)
	if err != nil {
		return out, err
	}
	copy(out[:], enc)
	return out, nil
}
