// Package swap sizes the swap that rebalances a two-sided contribution to a constant-product pool
// so that liquidity can be provided at the pool's price with minimal leftover.
package swap

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

var (
	ErrInvalidFee    = errors.New("invalid swap fee")
	ErrUnknownAsset  = errors.New("asset not in pair")
	ErrEmptyReserves = errors.New("pair has empty reserves")
)

// Fee is the AMM trading fee expressed as Numerator/Denominator.
type Fee struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultFee is the 0.3% constant-product fee.
var DefaultFee = Fee{Numerator: 3, Denominator: 1000}

func (f Fee) Validate() error {
	if f.Denominator == 0 || f.Numerator >= f.Denominator {
		return fmt.Errorf("%w: %d/%d", ErrInvalidFee, f.Numerator, f.Denominator)
	}
	return nil
}

func (f Fee) String() string {
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// checked chains uint256 operations and keeps the first overflow.
type checked struct {
	err error
}

func (c *checked) mul(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow && c.err == nil {
		c.err = fmt.Errorf("mul %s * %s: %w", x.Dec(), y.Dec(), fixedpoint.ErrOverflow)
	}
	return z
}

func (c *checked) add(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow && c.err == nil {
		c.err = fmt.Errorf("add %s + %s: %w", x.Dec(), y.Dec(), fixedpoint.ErrOverflow)
	}
	return z
}

// OptimalSwapAmount returns how much of the excess asset X must be swapped into Y, where
// poolX/poolY are the reserves and amountX/amountY the contributed amounts.
// The caller decides which side is in excess.
//
// With fee F over denominator D:
//
//	pool_ax = amountX + poolX ; pool_bx = amountY + poolY
//	area_ax = pool_ax * poolY ; area_bx = pool_bx * poolX
//	a = F²·area_ax + 4D(D−F)·area_bx
//	b = F·area_ax + isqrt(area_ax)·isqrt(a)
//	swap = b / 2D / pool_bx − poolX
//
// A negative result saturates to zero.
func OptimalSwapAmount(poolX, poolY, amountX, amountY *uint256.Int, fee Fee) (*uint256.Int, error) {
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	if poolX.IsZero() || poolY.IsZero() {
		return nil, ErrEmptyReserves
	}

	var c checked
	f := uint256.NewInt(fee.Numerator)
	d := uint256.NewInt(fee.Denominator)
	// 4·D·(D−F)
	kb := c.mul(uint256.NewInt(4), c.mul(d, uint256.NewInt(fee.Denominator-fee.Numerator)))
	twoD := c.mul(uint256.NewInt(2), d)

	poolAX := c.add(amountX, poolX)
	poolBX := c.add(amountY, poolY)
	areaAX := c.mul(poolAX, poolY)
	areaBX := c.mul(poolBX, poolX)

	a := c.add(c.mul(c.mul(f, f), areaAX), c.mul(kb, areaBX))
	b := c.add(c.mul(f, areaAX), c.mul(fixedpoint.Isqrt(areaAX), fixedpoint.Isqrt(a)))
	if c.err != nil {
		return nil, c.err
	}

	x := new(uint256.Int).Div(b, twoD)
	x.Div(x, poolBX)
	return fixedpoint.SaturatingSub(x, poolX), nil
}
