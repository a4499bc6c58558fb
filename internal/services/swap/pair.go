package swap

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// Pair is a local model of a constant-product pool, used to simulate a sequence of swaps
// within one cycle without another round trip to the chain.
type Pair struct {
	Address  string
	AssetA   string
	AssetB   string
	ReserveA uint256.Int
	ReserveB uint256.Int
	Fee      Fee
}

func NewPair(address, assetA, assetB string, reserveA, reserveB *uint256.Int, fee Fee) Pair {
	p := Pair{Address: address, AssetA: assetA, AssetB: assetB, Fee: fee}
	p.ReserveA.Set(reserveA)
	p.ReserveB.Set(reserveB)
	return p
}

// Side reports whether asset is the A side of the pair.
func (p *Pair) Side(asset string) (bool, error) {
	switch asset {
	case p.AssetA:
		return true, nil
	case p.AssetB:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s in %s", ErrUnknownAsset, asset, p.Address)
	}
}

func (p *Pair) reserves(offerA bool) (in, out *uint256.Int) {
	if offerA {
		return &p.ReserveA, &p.ReserveB
	}
	return &p.ReserveB, &p.ReserveA
}

// Simulate returns the output of offering amount and the commission the pool keeps.
// The output follows the Uniswap v2 getAmountOut formula.
func (p *Pair) Simulate(offerA bool, amount *uint256.Int) (ret, commission *uint256.Int, err error) {
	if err := p.Fee.Validate(); err != nil {
		return nil, nil, err
	}
	if amount.IsZero() {
		return new(uint256.Int), new(uint256.Int), nil
	}
	reserveIn, reserveOut := p.reserves(offerA)
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyReserves, p.Address)
	}

	var c checked
	amountWithFee := c.mul(amount, uint256.NewInt(p.Fee.Denominator-p.Fee.Numerator))
	numerator := c.mul(amountWithFee, reserveOut)
	denominator := c.add(c.mul(reserveIn, uint256.NewInt(p.Fee.Denominator)), amountWithFee)
	if c.err != nil {
		return nil, nil, c.err
	}
	ret = new(uint256.Int).Div(numerator, denominator)

	noFee, err := fixedpoint.MulRatio(amount, reserveOut, c.add(reserveIn, amount))
	if err != nil {
		return nil, nil, err
	}
	if c.err != nil {
		return nil, nil, c.err
	}
	return ret, fixedpoint.SaturatingSub(noFee, ret), nil
}

// Apply moves the reserves as if amountIn was swapped for amountOut.
func (p *Pair) Apply(offerA bool, amountIn, amountOut *uint256.Int) error {
	reserveIn, reserveOut := p.reserves(offerA)
	in, err := fixedpoint.CheckedAdd(reserveIn, amountIn)
	if err != nil {
		return err
	}
	out, err := fixedpoint.CheckedSub(reserveOut, amountOut)
	if err != nil {
		return err
	}
	reserveIn.Set(in)
	reserveOut.Set(out)
	return nil
}

// ProvideAmounts sizes a provision of (a, b) to the pair's current price. The side that would
// overshoot is cut down; the cut stays with the caller.
func (p *Pair) ProvideAmounts(a, b *uint256.Int) (provideA, provideB *uint256.Int, err error) {
	if p.ReserveA.IsZero() || p.ReserveB.IsZero() {
		return new(uint256.Int).Set(a), new(uint256.Int).Set(b), nil
	}
	needB, err := fixedpoint.MulRatio(a, &p.ReserveB, &p.ReserveA)
	if err != nil {
		return nil, nil, err
	}
	if needB.Cmp(b) <= 0 {
		return new(uint256.Int).Set(a), needB, nil
	}
	needA, err := fixedpoint.MulRatio(b, &p.ReserveA, &p.ReserveB)
	if err != nil {
		return nil, nil, err
	}
	return fixedpoint.Min(needA, a), new(uint256.Int).Set(b), nil
}
