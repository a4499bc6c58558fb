package swap

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// Swap is one simulated swap against a pair.
type Swap struct {
	Pair       string
	OfferAsset string
	OfferA     bool
	// Input is what leaves the caller's balance; Offer is what reaches the pool after tax.
	Input      uint256.Int
	Offer      uint256.Int
	Return     uint256.Int
	Commission uint256.Int
	// Received is Return after the transfer tax on the way back.
	Received uint256.Int
	// PriceImpactBps excludes the pool fee.
	PriceImpactBps uint16
}

// Plan is the result of rebalancing a contribution against a pair.
type Plan struct {
	// Swap is nil when no swap is needed or the swap would return nothing.
	Swap     *Swap
	ProvideA uint256.Int
	ProvideB uint256.Int
	DustA    uint256.Int
	DustB    uint256.Int
	// After holds the pair reserves once the swap executed.
	After Pair
}

// SwapExact simulates offering input of offerAsset, applies the result to the pair and returns it.
// It returns nil when input is zero or the pool would return nothing.
func SwapExact(pair *Pair, offerAsset string, input *uint256.Int, tax TaxPolicy) (*Swap, error) {
	if input.IsZero() {
		return nil, nil
	}
	offerA, err := pair.Side(offerAsset)
	if err != nil {
		return nil, err
	}
	offer, err := tax.DeductTax(offerAsset, input)
	if err != nil {
		return nil, err
	}
	ret, commission, err := pair.Simulate(offerA, offer)
	if err != nil {
		return nil, err
	}
	if offer.IsZero() || ret.IsZero() {
		return nil, nil
	}
	reserveIn, _ := pair.reserves(offerA)
	impact := PriceImpactBps(reserveIn, offer)
	if err := pair.Apply(offerA, offer, ret); err != nil {
		return nil, err
	}

	askAsset := pair.AssetB
	if !offerA {
		askAsset = pair.AssetA
	}
	received, err := tax.DeductTax(askAsset, ret)
	if err != nil {
		return nil, err
	}

	s := &Swap{Pair: pair.Address, OfferAsset: offerAsset, OfferA: offerA}
	s.Input.Set(input)
	s.Offer.Set(offer)
	s.Return.Set(ret)
	s.Commission.Set(commission)
	s.Received.Set(received)
	s.PriceImpactBps = impact
	return s, nil
}

// Rebalance decides which side of (amountA, amountB) is in excess relative to the pair's price,
// swaps the optimal amount of it and sizes the provision of what remains.
// A one-sided contribution is the plain optimal single-asset zap.
func Rebalance(pair Pair, amountA, amountB *uint256.Int, tax TaxPolicy) (*Plan, error) {
	if tax == nil {
		tax = NoTax{}
	}
	plan := &Plan{After: pair}
	a := new(uint256.Int).Set(amountA)
	b := new(uint256.Int).Set(amountB)

	if !pair.ReserveA.IsZero() && !pair.ReserveB.IsZero() {
		var c checked
		areaA := c.mul(amountA, &pair.ReserveB)
		areaB := c.mul(amountB, &pair.ReserveA)
		if c.err != nil {
			return nil, c.err
		}

		var (
			amount     *uint256.Int
			offerAsset string
			err        error
		)
		switch areaA.Cmp(areaB) {
		case 1:
			amount, err = OptimalSwapAmount(&pair.ReserveA, &pair.ReserveB, amountA, amountB, pair.Fee)
			offerAsset = pair.AssetA
			amount = fixedpoint.Min(amount, a)
		case -1:
			amount, err = OptimalSwapAmount(&pair.ReserveB, &pair.ReserveA, amountB, amountA, pair.Fee)
			offerAsset = pair.AssetB
			amount = fixedpoint.Min(amount, b)
		}
		if err != nil {
			return nil, err
		}

		if amount != nil && !amount.IsZero() {
			s, err := SwapExact(&plan.After, offerAsset, amount, tax)
			if err != nil {
				return nil, err
			}
			if s != nil {
				plan.Swap = s
				if s.OfferA {
					a.Sub(a, &s.Input)
					b.Add(b, &s.Received)
				} else {
					b.Sub(b, &s.Input)
					a.Add(a, &s.Received)
				}
			}
		}
	}

	sendA, err := tax.DeductTax(pair.AssetA, a)
	if err != nil {
		return nil, err
	}
	sendB, err := tax.DeductTax(pair.AssetB, b)
	if err != nil {
		return nil, err
	}
	provideA, provideB, err := plan.After.ProvideAmounts(sendA, sendB)
	if err != nil {
		return nil, err
	}
	plan.ProvideA.Set(provideA)
	plan.ProvideB.Set(provideB)
	plan.DustA.Set(fixedpoint.SaturatingSub(sendA, provideA))
	plan.DustB.Set(fixedpoint.SaturatingSub(sendB, provideB))
	return plan, nil
}
