package domain

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

type FarmKind uint8

const (
	FarmKindGenerator FarmKind = iota
	FarmKindStaking
)

func (k FarmKind) String() string {
	switch k {
	case FarmKindGenerator:
		return "generator"
	case FarmKindStaking:
		return "staking"
	default:
		return "UNKNOWN"
	}
}

func ParseFarmKind(s string) (FarmKind, bool) {
	switch s {
	case "generator":
		return FarmKindGenerator, true
	case "staking":
		return FarmKindStaking, true
	default:
		return 0, false
	}
}

// PoolInfo is the ledger record of one supported LP token.
type PoolInfo struct {
	// Asset identifies the LP token and keys the record.
	Asset string
	// Pair is the AMM pair the LP token belongs to.
	Pair     string
	FarmKind FarmKind
	Weight   uint32

	TotalAutoBondShare   uint256.Int
	TotalStakeBondShare  uint256.Int
	TotalStakeBondAmount uint256.Int

	FarmShareIndex            fixedpoint.Decimal
	AutoGovernanceShareIndex  fixedpoint.Decimal
	StakeGovernanceShareIndex fixedpoint.Decimal
	StateGovernanceShareIndex fixedpoint.Decimal

	// FarmShare is the farm-token share owed to depositors of this pool and not yet withdrawn.
	FarmShare uint256.Int

	// ReinvestAllowance is farm-token dust left over by previous compound cycles.
	ReinvestAllowance uint256.Int
	// ReinvestBaseAllowance is the base-asset counterpart of ReinvestAllowance.
	ReinvestBaseAllowance uint256.Int
}

func NewPoolInfo(asset, pair string, kind FarmKind, weight uint32) *PoolInfo {
	return &PoolInfo{
		Asset:    asset,
		Pair:     pair,
		FarmKind: kind,
		Weight:   weight,
	}
}

func (p *PoolInfo) HasShares() bool {
	return !p.TotalAutoBondShare.IsZero() || !p.TotalStakeBondShare.IsZero()
}

// Clone returns a deep copy. All fields are values so a struct copy is enough.
func (p *PoolInfo) Clone() *PoolInfo {
	c := *p
	return &c
}
