package swap

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// Price impact thresholds in basis points.
const (
	PriceImpactLow      uint16 = 100
	PriceImpactModerate uint16 = 300
	PriceImpactHigh     uint16 = 500
	PriceImpactExtreme  uint16 = 1000
)

type PriceImpactSeverity string

const (
	SeverityNone     PriceImpactSeverity = "none"
	SeverityLow      PriceImpactSeverity = "low"
	SeverityModerate PriceImpactSeverity = "moderate"
	SeverityHigh     PriceImpactSeverity = "high"
	SeverityExtreme  PriceImpactSeverity = "extreme"
)

func GetPriceImpactSeverity(bps uint16) PriceImpactSeverity {
	switch {
	case bps < PriceImpactLow:
		return SeverityNone
	case bps < PriceImpactModerate:
		return SeverityLow
	case bps < PriceImpactHigh:
		return SeverityModerate
	case bps < PriceImpactExtreme:
		return SeverityHigh
	default:
		return SeverityExtreme
	}
}

// PriceImpactBps is how far the fee-free constant-product output of offering amount falls short of
// the spot price, in basis points. For x*y=k the shortfall is amount / (reserveIn + amount).
func PriceImpactBps(reserveIn, amount *uint256.Int) uint16 {
	if amount.IsZero() {
		return 0
	}
	den, err := fixedpoint.CheckedAdd(reserveIn, amount)
	if err != nil {
		return 10_000
	}
	bps, err := fixedpoint.MulRatio(amount, uint256.NewInt(10_000), den)
	if err != nil || !bps.IsUint64() || bps.Uint64() > 10_000 {
		return 10_000
	}
	return uint16(bps.Uint64())
}
