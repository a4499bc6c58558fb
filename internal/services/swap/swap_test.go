package swap

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// referenceSwapAmount is the closed form with the 0.3% constants written out.
func referenceSwapAmount(poolA, poolB, amountA, amountB *uint256.Int) *uint256.Int {
	poolAX := new(uint256.Int).Add(amountA, poolA)
	poolBX := new(uint256.Int).Add(amountB, poolB)
	areaAX := new(uint256.Int).Mul(poolAX, poolB)
	areaBX := new(uint256.Int).Mul(poolBX, poolA)

	a := new(uint256.Int).Mul(u(9), areaAX)
	a.Add(a, new(uint256.Int).Mul(u(3988000), areaBX))
	b := new(uint256.Int).Mul(u(3), areaAX)
	b.Add(b, new(uint256.Int).Mul(new(uint256.Int).Sqrt(areaAX), new(uint256.Int).Sqrt(a)))

	x := new(uint256.Int).Div(b, u(2000))
	x.Div(x, poolBX)
	return x.Sub(x, poolA)
}

func TestOptimalSwapAmountMatchesDefaultConstants(t *testing.T) {
	tests := []struct {
		name                           string
		poolA, poolB, amountA, amountB uint64
	}{
		{name: "one sided", poolA: 1_000_000, poolB: 1_000_000, amountA: 100_000},
		{name: "skewed pool", poolA: 5_000_000_000, poolB: 1_250_000, amountA: 77_777_777},
		{name: "two sided", poolA: 3_000_000, poolB: 9_000_000, amountA: 500_000, amountB: 200_000},
		{name: "large", poolA: 1 << 60, poolB: 1 << 58, amountA: 1 << 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptimalSwapAmount(u(tt.poolA), u(tt.poolB), u(tt.amountA), u(tt.amountB), DefaultFee)
			require.NoError(t, err)
			require.Equal(t, referenceSwapAmount(u(tt.poolA), u(tt.poolB), u(tt.amountA), u(tt.amountB)), got)
		})
	}
}

func TestOptimalSwapAmountKnownValue(t *testing.T) {
	got, err := OptimalSwapAmount(u(1_000_000), u(1_000_000), u(100_000), u(0), DefaultFee)
	require.NoError(t, err)
	require.Equal(t, uint64(48884), got.Uint64())
}

func TestOptimalSwapAmountInvalid(t *testing.T) {
	_, err := OptimalSwapAmount(u(1), u(1), u(1), u(0), Fee{Numerator: 1000, Denominator: 1000})
	require.ErrorIs(t, err, ErrInvalidFee)

	_, err = OptimalSwapAmount(u(0), u(1), u(1), u(0), DefaultFee)
	require.ErrorIs(t, err, ErrEmptyReserves)
}

func TestOptimalSwapAmountLowerFeeSwapsLess(t *testing.T) {
	standard, err := OptimalSwapAmount(u(1_000_000), u(1_000_000), u(100_000), u(0), DefaultFee)
	require.NoError(t, err)
	stable, err := OptimalSwapAmount(u(1_000_000), u(1_000_000), u(100_000), u(0), Fee{Numerator: 5, Denominator: 10000})
	require.NoError(t, err)
	require.Equal(t, uint64(48820), stable.Uint64())
	require.True(t, stable.Lt(standard))
}

func TestSimulate(t *testing.T) {
	pair := NewPair("pair", "A", "B", u(1_000_000), u(1_000_000), DefaultFee)

	ret, commission, err := pair.Simulate(true, u(48884))
	require.NoError(t, err)
	require.Equal(t, uint64(46472), ret.Uint64())
	// 48884*1e6/1048884 = 46605
	require.Equal(t, uint64(46605-46472), commission.Uint64())

	ret, _, err = pair.Simulate(true, u(0))
	require.NoError(t, err)
	require.True(t, ret.IsZero())
}

func TestRebalanceOneSided(t *testing.T) {
	pair := NewPair("pair", "A", "B", u(1_000_000), u(1_000_000), DefaultFee)

	plan, err := Rebalance(pair, u(100_000), u(0), NoTax{})
	require.NoError(t, err)
	require.NotNil(t, plan.Swap)
	require.Equal(t, "A", plan.Swap.OfferAsset)
	require.Equal(t, uint64(48884), plan.Swap.Input.Uint64())
	require.Equal(t, uint64(46472), plan.Swap.Return.Uint64())

	require.Equal(t, uint64(1_048_884), plan.After.ReserveA.Uint64())
	require.Equal(t, uint64(953_528), plan.After.ReserveB.Uint64())

	// contributed ratio after the swap tracks the pool ratio to within 0.01%
	remainA := uint64(100_000 - 48884)
	lhs := new(uint256.Int).Mul(u(remainA), &plan.After.ReserveB)
	rhs := new(uint256.Int).Mul(&plan.Swap.Return, &plan.After.ReserveA)
	diff := new(uint256.Int).Sub(rhs, lhs)
	if lhs.Gt(rhs) {
		diff = new(uint256.Int).Sub(lhs, rhs)
	}
	require.True(t, new(uint256.Int).Mul(diff, u(10_000)).Lt(lhs), "ratio mismatch %s", diff.Dec())

	require.Equal(t, remainA, plan.ProvideA.Uint64())
	require.Equal(t, uint64(46468), plan.ProvideB.Uint64())
	require.True(t, plan.DustA.IsZero())
	require.Equal(t, uint64(4), plan.DustB.Uint64())
	require.True(t, plan.DustB.Uint64()*10_000 <= 100_000)
}

func TestRebalanceSymmetric(t *testing.T) {
	pair := NewPair("pair", "A", "B", u(1_000_000), u(1_000_000), DefaultFee)

	plan, err := Rebalance(pair, u(0), u(100_000), NoTax{})
	require.NoError(t, err)
	require.NotNil(t, plan.Swap)
	require.Equal(t, "B", plan.Swap.OfferAsset)
	require.False(t, plan.Swap.OfferA)
	require.Equal(t, uint64(48884), plan.Swap.Input.Uint64())
	require.Equal(t, uint64(46472), plan.Swap.Return.Uint64())
	require.Equal(t, uint64(46468), plan.ProvideA.Uint64())
	require.Equal(t, uint64(51116), plan.ProvideB.Uint64())
}

func TestRebalanceBalancedNeedsNoSwap(t *testing.T) {
	pair := NewPair("pair", "A", "B", u(2_000_000), u(1_000_000), DefaultFee)

	plan, err := Rebalance(pair, u(2000), u(1000), NoTax{})
	require.NoError(t, err)
	require.Nil(t, plan.Swap)
	require.Equal(t, uint64(2000), plan.ProvideA.Uint64())
	require.Equal(t, uint64(1000), plan.ProvideB.Uint64())
	require.True(t, plan.DustA.IsZero())
	require.True(t, plan.DustB.IsZero())
}

func TestRebalanceSkipsZeroOutputSwap(t *testing.T) {
	pair := NewPair("pair", "A", "B", u(1_000_000), u(1_000_000), DefaultFee)

	plan, err := Rebalance(pair, u(1), u(0), NoTax{})
	require.NoError(t, err)
	require.Nil(t, plan.Swap)
	require.True(t, plan.ProvideA.IsZero())
	require.True(t, plan.ProvideB.IsZero())
	require.Equal(t, uint64(1), plan.DustA.Uint64())
	require.Equal(t, pair.ReserveA, plan.After.ReserveA)
}

func TestRebalanceDeductsTax(t *testing.T) {
	pair := NewPair("pair", "A", "uusd", u(1_000_000), u(1_000_000), DefaultFee)
	tax := NewProportionalTax(fixedpoint.MustParseDecimal("0.01"), u(0), "uusd")

	plan, err := Rebalance(pair, u(0), u(100_000), tax)
	require.NoError(t, err)
	require.NotNil(t, plan.Swap)
	require.True(t, plan.Swap.Offer.Lt(&plan.Swap.Input))

	untaxed, err := Rebalance(pair, u(0), u(100_000), NoTax{})
	require.NoError(t, err)
	require.True(t, plan.Swap.Return.Lt(&untaxed.Swap.Return))
}

func TestProportionalTax(t *testing.T) {
	tests := []struct {
		name     string
		asset    string
		amount   uint64
		cap      uint64
		expected uint64
	}{
		{name: "uncapped", asset: "uusd", amount: 1010, expected: 1000},
		{name: "capped", asset: "uusd", amount: 1010, cap: 5, expected: 1005},
		{name: "untaxed asset", asset: "token", amount: 1010, expected: 1010},
		{name: "zero", asset: "uusd", amount: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax := NewProportionalTax(fixedpoint.MustParseDecimal("0.01"), u(tt.cap), "uusd")
			got, err := tax.DeductTax(tt.asset, u(tt.amount))
			require.NoError(t, err)
			require.Equal(t, tt.expected, got.Uint64())
		})
	}
}

func TestSwapExactAppliesReserves(t *testing.T) {
	pair := NewPair("pair", "A", "B", u(1_000_000), u(1_000_000), DefaultFee)

	s, err := SwapExact(&pair, "A", u(48884), NoTax{})
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, uint64(46472), s.Received.Uint64())
	require.Equal(t, uint64(1_048_884), pair.ReserveA.Uint64())

	_, err = SwapExact(&pair, "C", u(1), NoTax{})
	require.ErrorIs(t, err, ErrUnknownAsset)

	s, err = SwapExact(&pair, "A", u(0), NoTax{})
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestPriceImpact(t *testing.T) {
	require.Equal(t, uint16(0), PriceImpactBps(u(1_000_000), u(0)))
	require.Equal(t, uint16(9), PriceImpactBps(u(1_000_000), u(1000)))
	require.Equal(t, uint16(5000), PriceImpactBps(u(1_000_000), u(1_000_000)))

	require.Equal(t, SeverityNone, GetPriceImpactSeverity(9))
	require.Equal(t, SeverityLow, GetPriceImpactSeverity(100))
	require.Equal(t, SeverityHigh, GetPriceImpactSeverity(999))
	require.Equal(t, SeverityExtreme, GetPriceImpactSeverity(5000))

	pair := NewPair("pair", "a", "b", u(1_000_000), u(1_000_000), DefaultFee)
	s, err := SwapExact(&pair, "a", u(1_000_000), NoTax{})
	require.NoError(t, err)
	require.Equal(t, uint16(5000), s.PriceImpactBps)
}
