package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow     = errors.New("arithmetic overflow")
	ErrUnderflow    = errors.New("arithmetic underflow")
	ErrDivideByZero = errors.New("division by zero")
)

// IsArithmetic reports whether err is one of the arithmetic failures of this package.
func IsArithmetic(err error) bool {
	return errors.Is(err, ErrOverflow) || errors.Is(err, ErrUnderflow) || errors.Is(err, ErrDivideByZero)
}

// MulRatio returns floor(x * num / den) with a 512-bit intermediate.
func MulRatio(x, num, den *uint256.Int) (*uint256.Int, error) {
	if den.IsZero() {
		return nil, fmt.Errorf("mul ratio %s*%s/0: %w", x.Dec(), num.Dec(), ErrDivideByZero)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, num, den)
	if overflow {
		return nil, fmt.Errorf("mul ratio %s*%s/%s: %w", x.Dec(), num.Dec(), den.Dec(), ErrOverflow)
	}
	return z, nil
}

// MulRatioCeil returns ceil(x * num / den).
func MulRatioCeil(x, num, den *uint256.Int) (*uint256.Int, error) {
	if den.IsZero() {
		return nil, fmt.Errorf("mul ratio ceil %s*%s/0: %w", x.Dec(), num.Dec(), ErrDivideByZero)
	}
	product, overflow := new(uint256.Int).MulOverflow(x, num)
	if overflow {
		return nil, fmt.Errorf("mul ratio ceil %s*%s: %w", x.Dec(), num.Dec(), ErrOverflow)
	}
	q, rem := new(uint256.Int).DivMod(product, den, new(uint256.Int))
	if !rem.IsZero() {
		q.AddUint64(q, 1)
	}
	return q, nil
}

func CheckedAdd(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("add %s + %s: %w", x.Dec(), y.Dec(), ErrOverflow)
	}
	return z, nil
}

func CheckedSub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, fmt.Errorf("sub %s - %s: %w", x.Dec(), y.Dec(), ErrUnderflow)
	}
	return z, nil
}

func CheckedMul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("mul %s * %s: %w", x.Dec(), y.Dec(), ErrOverflow)
	}
	return z, nil
}

// SaturatingSub returns x - y, or zero when y > x.
func SaturatingSub(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(x, y)
}

// Isqrt returns floor(sqrt(x)).
func Isqrt(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(x)
}

func Min(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int).Set(x)
	}
	return new(uint256.Int).Set(y)
}

// ParseAmount parses a base-10 integer amount. The empty string is zero.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	z, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return z, nil
}

// Float64 approximates x for metrics export.
func Float64(x *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(x.ToBig()).Float64()
	return f
}
