package domain

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// GlobalState is the singleton ledger record of a strategy instance.
type GlobalState struct {
	PreviousGovernanceShare uint256.Int
	GovernanceShareIndex    fixedpoint.Decimal
	TotalWeight             uint32
	TotalFarmShare          uint256.Int
	Earning                 uint256.Int
}

const rewardKeySeparator = "|"

type RewardKey struct {
	Staker string
	Asset  string
}

func (k RewardKey) String() string {
	return k.Staker + rewardKeySeparator + k.Asset
}

func ParseRewardKey(s string) (RewardKey, error) {
	staker, asset, ok := strings.Cut(s, rewardKeySeparator)
	if !ok || staker == "" || asset == "" {
		return RewardKey{}, fmt.Errorf("invalid reward key %q", s)
	}
	return RewardKey{Staker: staker, Asset: asset}, nil
}

// RewardInfo is the position of one depositor in one pool.
type RewardInfo struct {
	Staker string
	Asset  string

	AutoBondShare  uint256.Int
	StakeBondShare uint256.Int

	FarmShareIndex            fixedpoint.Decimal
	AutoGovernanceShareIndex  fixedpoint.Decimal
	StakeGovernanceShareIndex fixedpoint.Decimal

	FarmShare            uint256.Int
	GovernanceShare      uint256.Int
	AccumGovernanceShare uint256.Int
}

// NewRewardInfo starts a position at the pool's current indices so it earns nothing retroactively.
func NewRewardInfo(staker string, pool *PoolInfo) *RewardInfo {
	return &RewardInfo{
		Staker:                    staker,
		Asset:                     pool.Asset,
		FarmShareIndex:            pool.FarmShareIndex,
		AutoGovernanceShareIndex:  pool.AutoGovernanceShareIndex,
		StakeGovernanceShareIndex: pool.StakeGovernanceShareIndex,
	}
}

func (r *RewardInfo) Key() RewardKey {
	return RewardKey{Staker: r.Staker, Asset: r.Asset}
}

// IsEmpty reports whether the position holds no shares and nothing claimable.
func (r *RewardInfo) IsEmpty() bool {
	return r.AutoBondShare.IsZero() &&
		r.StakeBondShare.IsZero() &&
		r.FarmShare.IsZero() &&
		r.GovernanceShare.IsZero()
}

func (r *RewardInfo) Clone() *RewardInfo {
	c := *r
	return &c
}
