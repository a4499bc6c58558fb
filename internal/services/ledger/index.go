// Package ledger implements reward-per-share accounting for a strategy: a global governance index,
// per-pool indices for the auto-compound and fixed-stake sub-positions, and per-depositor snapshots.
//
// Every function mutates the records it is given and nothing else. Settlement must run before any
// share count changes, in the order SettleGlobal, SettlePool, SettleDepositor.
package ledger

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

var (
	ErrPoolNotFound        = errors.New("pool not found")
	ErrRewardNotFound      = errors.New("reward info not found")
	ErrExceedsBond         = errors.New("cannot unbond more than bond amount")
	ErrInvalidCompoundRate = errors.New("compound rate must be between 0 and 1")
	ErrZeroAmount          = errors.New("amount must be greater than zero")
)

// SettleGlobal folds governance shares the strategy gained since the last observation into the
// global per-weight index. A staked share below the previous observation is an invariant breach.
func SettleGlobal(state *domain.GlobalState, stakedShare *uint256.Int) error {
	if state.TotalWeight == 0 {
		return nil
	}
	diff, err := fixedpoint.CheckedSub(stakedShare, &state.PreviousGovernanceShare)
	if err != nil {
		return fmt.Errorf("governance share decreased: %w", err)
	}
	return foldGlobal(state, diff, stakedShare)
}

// PreviewGlobal is SettleGlobal for read paths: a decrease is treated as no accrual.
func PreviewGlobal(state *domain.GlobalState, stakedShare *uint256.Int) error {
	if state.TotalWeight == 0 {
		return nil
	}
	diff := fixedpoint.SaturatingSub(stakedShare, &state.PreviousGovernanceShare)
	return foldGlobal(state, diff, stakedShare)
}

func foldGlobal(state *domain.GlobalState, diff, stakedShare *uint256.Int) error {
	perWeight, err := fixedpoint.DecimalFromRatio(diff, uint256.NewInt(uint64(state.TotalWeight)))
	if err != nil {
		return err
	}
	index, err := state.GovernanceShareIndex.Add(perWeight)
	if err != nil {
		return err
	}
	state.GovernanceShareIndex = index
	state.PreviousGovernanceShare.Set(stakedShare)
	return nil
}

// SettlePool moves the governance shares accrued to the pool's weight since its last snapshot into
// the stake and auto indices. The stake side gets principal-weighted floor; auto gets the rest.
// Nothing happens while the pool has no bonded principal.
func SettlePool(state *domain.GlobalState, pool *domain.PoolInfo, principal *uint256.Int) error {
	if principal.IsZero() {
		return nil
	}

	delta, err := state.GovernanceShareIndex.Sub(pool.StateGovernanceShareIndex)
	if err != nil {
		return fmt.Errorf("pool %s governance index ahead of global: %w", pool.Asset, err)
	}
	share, err := delta.MulInt(uint256.NewInt(uint64(pool.Weight)))
	if err != nil {
		return err
	}

	stakeShare, err := fixedpoint.MulRatio(share, &pool.TotalStakeBondAmount, principal)
	if err != nil {
		return err
	}
	if !stakeShare.IsZero() && !pool.TotalStakeBondShare.IsZero() {
		if pool.StakeGovernanceShareIndex, err = bumpIndex(pool.StakeGovernanceShareIndex, stakeShare, &pool.TotalStakeBondShare); err != nil {
			return err
		}
	}

	autoShare, err := fixedpoint.CheckedSub(share, stakeShare)
	if err != nil {
		return fmt.Errorf("pool %s stake principal exceeds bonded principal: %w", pool.Asset, err)
	}
	if !autoShare.IsZero() && !pool.TotalAutoBondShare.IsZero() {
		if pool.AutoGovernanceShareIndex, err = bumpIndex(pool.AutoGovernanceShareIndex, autoShare, &pool.TotalAutoBondShare); err != nil {
			return err
		}
	}

	pool.StateGovernanceShareIndex = state.GovernanceShareIndex
	return nil
}

func bumpIndex(index fixedpoint.Decimal, amount, totalShare *uint256.Int) (fixedpoint.Decimal, error) {
	perShare, err := fixedpoint.DecimalFromRatio(amount, totalShare)
	if err != nil {
		return index, err
	}
	return index.Add(perShare)
}

// SettleDepositor credits the depositor with everything the pool indices gained since the
// depositor's snapshot, then moves the snapshot up. Calling it twice is a no-op.
func SettleDepositor(pool *domain.PoolInfo, reward *domain.RewardInfo) error {
	farmShare, err := indexDelta(pool.FarmShareIndex, reward.FarmShareIndex, &reward.StakeBondShare)
	if err != nil {
		return err
	}
	stakeShare, err := indexDelta(pool.StakeGovernanceShareIndex, reward.StakeGovernanceShareIndex, &reward.StakeBondShare)
	if err != nil {
		return err
	}
	autoShare, err := indexDelta(pool.AutoGovernanceShareIndex, reward.AutoGovernanceShareIndex, &reward.AutoBondShare)
	if err != nil {
		return err
	}

	governance, err := fixedpoint.CheckedAdd(stakeShare, autoShare)
	if err != nil {
		return err
	}
	if err := addTo(&reward.FarmShare, farmShare); err != nil {
		return err
	}
	if err := addTo(&reward.GovernanceShare, governance); err != nil {
		return err
	}
	if err := addTo(&reward.AccumGovernanceShare, governance); err != nil {
		return err
	}

	reward.FarmShareIndex = pool.FarmShareIndex
	reward.StakeGovernanceShareIndex = pool.StakeGovernanceShareIndex
	reward.AutoGovernanceShareIndex = pool.AutoGovernanceShareIndex
	return nil
}

func indexDelta(current, snapshot fixedpoint.Decimal, shares *uint256.Int) (*uint256.Int, error) {
	delta, err := current.Sub(snapshot)
	if err != nil {
		return nil, err
	}
	return delta.MulInt(shares)
}

func addTo(dst *uint256.Int, v *uint256.Int) error {
	sum, err := fixedpoint.CheckedAdd(dst, v)
	if err != nil {
		return err
	}
	dst.Set(sum)
	return nil
}

func subFrom(dst *uint256.Int, v *uint256.Int) error {
	diff, err := fixedpoint.CheckedSub(dst, v)
	if err != nil {
		return err
	}
	dst.Set(diff)
	return nil
}
