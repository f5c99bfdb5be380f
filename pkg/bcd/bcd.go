// Package bcd implements packed Binary-Coded Decimal encoding, the numeric
// representation ZVT uses for amounts, trace numbers, dates, times, and
// the terminal password: two decimal digits per byte, high nibble first,
// zero-padded on the left to a requested width.
package bcd

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrOverflow is returned when a value does not fit in the requested
// number of BCD digits.
var ErrOverflow = errors.New("bcd: value overflows requested width")

// ErrOutOfRange is returned by DecimalToBCD for amounts outside ZVT's
// representable range.
var ErrOutOfRange = errors.New("bcd: amount out of range")

// ErrInvalidDigit is returned when a nibble being decoded is not a valid
// decimal digit (0-9).
var ErrInvalidDigit = errors.New("bcd: invalid digit")

// MaxMinorUnits is the largest amount, in minor currency units (cents),
// that fits in the 6-byte BCD amount field (12 decimal digits).
const MaxMinorUnits = 999_999_999_999

// IntToBCD encodes value as width bytes of packed BCD, big-endian
// digit-by-digit. It fails with ErrOverflow if value needs more than
// 2*width decimal digits.
func IntToBCD(value uint64, width int) ([]byte, error) {
	if width < 0 {
		return nil, fmt.Errorf("bcd: negative width")
	}

	maxDigits := 2 * width
	if maxDigits < 19 && value >= pow10(maxDigits) {
		return nil, fmt.Errorf("%w: %d needs more than %d digits", ErrOverflow, value, maxDigits)
	}

	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		lo := byte(value % 10)
		value /= 10
		hi := byte(value % 10)
		value /= 10
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func pow10(n int) uint64 {
	return uint64(math.Pow10(n))
}

// BCDToInt decodes width packed-BCD bytes into an integer. It fails with
// ErrInvalidDigit if any nibble is greater than 9.
func BCDToInt(data []byte) (uint64, error) {
	var value uint64
	for _, b := range data {
		hi := b >> 4
		lo := b & 0x0F
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("%w: byte 0x%02X", ErrInvalidDigit, b)
		}
		value = value*100 + uint64(hi)*10 + uint64(lo)
	}
	return value, nil
}

// hundred scales a decimal amount into minor units (cents).
var hundred = decimal.NewFromInt(100)

// DecimalToBCD multiplies amount by 100, rounds half-up to the nearest
// minor unit, and encodes the result as the fixed 6-byte BCD amount
// field. It fails with ErrOutOfRange if amount is negative or the scaled
// result exceeds MaxMinorUnits.
func DecimalToBCD(amount decimal.Decimal) ([6]byte, error) {
	var out [6]byte

	scaled := amount.Mul(hundred).Round(0)
	if scaled.IsNegative() {
		return out, fmt.Errorf("%w: %s", ErrOutOfRange, amount)
	}

	minorUnits := scaled.BigInt()
	if !minorUnits.IsUint64() || minorUnits.Uint64() > MaxMinorUnits {
		return out, fmt.Errorf("%w: %s", ErrOutOfRange, amount)
	}

	enc, err := IntToBCD(minorUnits.Uint64(), 6)
	if err != nil {
		return out, err
	}
	copy(out[:], enc)
	return out, nil
}

// BCDToDecimal decodes a 6-byte BCD amount field back into a Decimal
// amount in major units (e.g. euros), undoing DecimalToBCD's scaling.
func BCDToDecimal(data [6]byte) (decimal.Decimal, error) {
	v, err := BCDToInt(data[:])
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromInt(int64(v)).DivRound(hundred, 2), nil
}
