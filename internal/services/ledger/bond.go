package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// AutoPrincipal is the part of the bonded principal owned by the auto-compound sub-position.
// It grows with every reinvested harvest, so it is derived rather than stored.
func AutoPrincipal(pool *domain.PoolInfo, principal *uint256.Int) (*uint256.Int, error) {
	auto, err := fixedpoint.CheckedSub(principal, &pool.TotalStakeBondAmount)
	if err != nil {
		return nil, fmt.Errorf("pool %s stake principal exceeds bonded principal: %w", pool.Asset, err)
	}
	return auto, nil
}

// autoBondShare converts an auto-compound amount to shares at the current exchange rate,
// 1:1 while the sub-position is empty.
func autoBondShare(pool *domain.PoolInfo, amount, principal *uint256.Int, roundUp bool) (*uint256.Int, error) {
	total, err := AutoPrincipal(pool, principal)
	if err != nil {
		return nil, err
	}
	return toShares(amount, &pool.TotalAutoBondShare, total, roundUp)
}

func stakeBondShare(pool *domain.PoolInfo, amount *uint256.Int, roundUp bool) (*uint256.Int, error) {
	return toShares(amount, &pool.TotalStakeBondShare, &pool.TotalStakeBondAmount, roundUp)
}

func toShares(amount, totalShare, totalAmount *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if totalShare.IsZero() || totalAmount.IsZero() {
		return new(uint256.Int).Set(amount), nil
	}
	if roundUp {
		return fixedpoint.MulRatioCeil(amount, totalShare, totalAmount)
	}
	return fixedpoint.MulRatio(amount, totalShare, totalAmount)
}

func toAmount(shares, totalShare, totalAmount *uint256.Int) (*uint256.Int, error) {
	if totalShare.IsZero() {
		return new(uint256.Int), nil
	}
	return fixedpoint.MulRatio(totalAmount, shares, totalShare)
}

// UserBalances returns the principal behind a depositor's auto and stake shares.
func UserBalances(pool *domain.PoolInfo, reward *domain.RewardInfo, principal *uint256.Int) (auto, stake *uint256.Int, err error) {
	autoTotal, err := AutoPrincipal(pool, principal)
	if err != nil {
		return nil, nil, err
	}
	if auto, err = toAmount(&reward.AutoBondShare, &pool.TotalAutoBondShare, autoTotal); err != nil {
		return nil, nil, err
	}
	if stake, err = toAmount(&reward.StakeBondShare, &pool.TotalStakeBondShare, &pool.TotalStakeBondAmount); err != nil {
		return nil, nil, err
	}
	return auto, stake, nil
}

// IncreaseBond adds amount of principal to the depositor. compoundRate of it goes to the
// auto-compound sub-position and the rest to fixed-stake. The deposit fee is taken off the top and
// left in the sub-positions in proportion to where the new balance lands, which benefits the
// existing holders. principal is the bonded principal before this deposit.
func IncreaseBond(
	pool *domain.PoolInfo,
	reward *domain.RewardInfo,
	amount *uint256.Int,
	compoundRate, depositFee fixedpoint.Decimal,
	principal *uint256.Int,
) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if compoundRate.Cmp(fixedpoint.OneDecimal()) > 0 || depositFee.Cmp(fixedpoint.OneDecimal()) > 0 {
		return ErrInvalidCompoundRate
	}

	toAuto, err := compoundRate.MulInt(amount)
	if err != nil {
		return err
	}
	toStake := new(uint256.Int).Sub(amount, toAuto)
	newBalance, err := fixedpoint.CheckedAdd(principal, amount)
	if err != nil {
		return err
	}
	stakeAfter, err := fixedpoint.CheckedAdd(&pool.TotalStakeBondAmount, toStake)
	if err != nil {
		return err
	}
	newAuto, err := fixedpoint.CheckedSub(newBalance, stakeAfter)
	if err != nil {
		return fmt.Errorf("pool %s stake principal exceeds bonded principal: %w", pool.Asset, err)
	}

	fee, err := depositFee.MulInt(amount)
	if err != nil {
		return err
	}
	autoFee, err := fixedpoint.MulRatio(fee, newAuto, newBalance)
	if err != nil {
		return err
	}
	stakeFee := new(uint256.Int).Sub(fee, autoFee)

	remaining := new(uint256.Int).Sub(amount, fee)
	autoAmount, err := compoundRate.MulInt(remaining)
	if err != nil {
		return err
	}
	stakeAmount := new(uint256.Int).Sub(remaining, autoAmount)

	autoShare, err := autoBondShare(pool, autoAmount, principal, false)
	if err != nil {
		return err
	}
	stakeShare, err := stakeBondShare(pool, stakeAmount, false)
	if err != nil {
		return err
	}

	if err := addTo(&pool.TotalAutoBondShare, autoShare); err != nil {
		return err
	}
	if err := addTo(&pool.TotalStakeBondShare, stakeShare); err != nil {
		return err
	}
	if err := addTo(&pool.TotalStakeBondAmount, new(uint256.Int).Add(stakeAmount, stakeFee)); err != nil {
		return err
	}
	if err := addTo(&reward.AutoBondShare, autoShare); err != nil {
		return err
	}
	return addTo(&reward.StakeBondShare, stakeShare)
}

// DecreaseBond removes amount of principal from the depositor, taken from the auto and stake
// balances in proportion to their size. Shares burned round up so the pool keeps the rounding.
// principal is the bonded principal before the withdrawal.
func DecreaseBond(
	pool *domain.PoolInfo,
	reward *domain.RewardInfo,
	amount, userAuto, userStake, principal *uint256.Int,
) error {
	if amount.IsZero() {
		return ErrZeroAmount
	}
	userBalance, err := fixedpoint.CheckedAdd(userAuto, userStake)
	if err != nil {
		return err
	}
	if amount.Gt(userBalance) {
		return fmt.Errorf("%w: requested %s, bonded %s", ErrExceedsBond, amount.Dec(), userBalance.Dec())
	}

	autoAmount := new(uint256.Int).Set(amount)
	if !userStake.IsZero() {
		if autoAmount, err = fixedpoint.MulRatio(amount, userAuto, userBalance); err != nil {
			return err
		}
	}
	stakeAmount := new(uint256.Int).Sub(amount, autoAmount)

	autoShare, err := autoBondShare(pool, autoAmount, principal, true)
	if err != nil {
		return err
	}
	stakeShare, err := stakeBondShare(pool, stakeAmount, true)
	if err != nil {
		return err
	}

	if err := subFrom(&reward.AutoBondShare, autoShare); err != nil {
		return fmt.Errorf("auto share: %w", err)
	}
	if err := subFrom(&reward.StakeBondShare, stakeShare); err != nil {
		return fmt.Errorf("stake share: %w", err)
	}
	if err := subFrom(&pool.TotalAutoBondShare, autoShare); err != nil {
		return err
	}
	if err := subFrom(&pool.TotalStakeBondShare, stakeShare); err != nil {
		return err
	}
	return subFrom(&pool.TotalStakeBondAmount, stakeAmount)
}
