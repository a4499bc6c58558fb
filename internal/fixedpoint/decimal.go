// Package fixedpoint provides the share and index arithmetic used by the ledger and the swap math.
// Amounts are uint256 integers; indices and rates are unsigned 18-decimal fixed point values.
package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const Precision = 18

var decimalFractional = uint256.NewInt(1_000_000_000_000_000_000)

// Decimal is an unsigned fixed point number with 18 fractional digits.
// The zero value is 0.
type Decimal struct {
	raw uint256.Int
}

func ZeroDecimal() Decimal {
	return Decimal{}
}

func OneDecimal() Decimal {
	var d Decimal
	d.raw.Set(decimalFractional)
	return d
}

// DecimalFromRaw builds a Decimal from its scaled integer representation.
func DecimalFromRaw(raw *uint256.Int) Decimal {
	var d Decimal
	d.raw.Set(raw)
	return d
}

// DecimalFromRatio returns floor(num * 1e18 / den).
func DecimalFromRatio(num, den *uint256.Int) (Decimal, error) {
	if den.IsZero() {
		return Decimal{}, fmt.Errorf("decimal from ratio %s/0: %w", num.Dec(), ErrDivideByZero)
	}
	var d Decimal
	if _, overflow := d.raw.MulDivOverflow(num, decimalFractional, den); overflow {
		return Decimal{}, fmt.Errorf("decimal from ratio %s/%s: %w", num.Dec(), den.Dec(), ErrOverflow)
	}
	return d, nil
}

// ParseDecimal parses a plain decimal string such as "0.003".
func ParseDecimal(s string) (Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if v.IsNegative() {
		return Decimal{}, fmt.Errorf("invalid decimal %q: negative", s)
	}
	if v.Exponent() < -Precision {
		return Decimal{}, fmt.Errorf("invalid decimal %q: more than %d fractional digits", s, Precision)
	}
	raw, overflow := uint256.FromBig(v.Shift(Precision).BigInt())
	if overflow {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, ErrOverflow)
	}
	return DecimalFromRaw(raw), nil
}

func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Raw returns a copy of the scaled integer.
func (d Decimal) Raw() *uint256.Int {
	return new(uint256.Int).Set(&d.raw)
}

func (d Decimal) IsZero() bool {
	return d.raw.IsZero()
}

func (d Decimal) Cmp(o Decimal) int {
	return d.raw.Cmp(&o.raw)
}

func (d Decimal) Add(o Decimal) (Decimal, error) {
	var r Decimal
	if _, overflow := r.raw.AddOverflow(&d.raw, &o.raw); overflow {
		return Decimal{}, fmt.Errorf("decimal add: %w", ErrOverflow)
	}
	return r, nil
}

func (d Decimal) Sub(o Decimal) (Decimal, error) {
	var r Decimal
	if _, underflow := r.raw.SubOverflow(&d.raw, &o.raw); underflow {
		return Decimal{}, fmt.Errorf("decimal sub %s - %s: %w", d, o, ErrUnderflow)
	}
	return r, nil
}

// MulInt returns floor(x * d).
func (d Decimal) MulInt(x *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulDivOverflow(x, &d.raw, decimalFractional)
	if overflow {
		return nil, fmt.Errorf("decimal mul %s * %s: %w", x.Dec(), d, ErrOverflow)
	}
	return z, nil
}

// Decimal converts to shopspring's representation for display and float export.
func (d Decimal) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(d.raw.ToBig(), -Precision)
}

func (d Decimal) String() string {
	return d.Decimal().String()
}
