// Package farm declares the capabilities the strategy needs from the contracts it farms on.
// One Farm implementation exists per external farm integration; the orchestration code is shared.
package farm

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

// Rewards is what the farm would pay the strategy on the next claim.
type Rewards struct {
	Farm uint256.Int
	// Secondary is an optional second emission paid alongside the farm token.
	Secondary      uint256.Int
	SecondaryAsset string
}

// Farm queries and addresses an external LP farm.
type Farm interface {
	// PendingRewards returns the unclaimed rewards of the strategy for the LP asset
	PendingRewards(ctx context.Context, asset string) (*Rewards, error)

	// BondedPrincipal returns the LP amount the strategy has bonded in the farm
	BondedPrincipal(ctx context.Context, asset string) (*uint256.Int, error)

	// FarmTokenStaked returns the farm tokens the strategy holds in the farm's staking program
	FarmTokenStaked(ctx context.Context) (*uint256.Int, error)

	// FarmToken is the token the farm emits
	FarmToken() string

	ClaimAction(asset string) domain.Action
	StakeAction(asset string, amount *uint256.Int) domain.Action
	UnstakeAction(asset string, amount *uint256.Int) domain.Action
	StakeFarmTokenAction(amount *uint256.Int) domain.Action
	WithdrawFarmTokenAction(amount *uint256.Int) domain.Action

	// SupportsFarmKind returns true if this farm serves pools of the given kind
	SupportsFarmKind(kind domain.FarmKind) bool
}

// Governance queries and addresses the protocol's governance staking contract.
type Governance interface {
	StakedShare(ctx context.Context) (*ledger.StakedShare, error)

	// Token is the governance token
	Token() string

	WithdrawAction(amount *uint256.Int) domain.Action
}

// Reserves is the state of a constant-product pair.
type Reserves struct {
	AssetA     string
	AssetB     string
	A          uint256.Int
	B          uint256.Int
	TotalShare uint256.Int
	Fee        swap.Fee
}

// Pair converts the reserves to the swap calculator's model.
func (r *Reserves) Pair(address string) swap.Pair {
	return swap.NewPair(address, r.AssetA, r.AssetB, &r.A, &r.B, r.Fee)
}

type Simulation struct {
	Return     uint256.Int
	Commission uint256.Int
}

// AMM queries constant-product pairs.
type AMM interface {
	PoolReserves(ctx context.Context, pair string) (*Reserves, error)

	SimulateSwap(ctx context.Context, pair, offerAsset string, amount *uint256.Int) (*Simulation, error)
}
