package ledger

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// StakedShare is the strategy's position in a share-based staking contract.
type StakedShare struct {
	Share        uint256.Int
	TotalShare   uint256.Int
	TotalBalance uint256.Int
}

// Balance is the token amount behind the strategy's shares.
func (s *StakedShare) Balance() (*uint256.Int, error) {
	return GovernanceAmount(&s.Share, s)
}

// DepositFarmShare registers amount of farm tokens, just staked by the strategy, as farm-share
// entitlement of the pool's fixed-stake holders. farmStaked is the strategy's staked farm-token
// balance before the deposit. It returns the farm shares created.
func DepositFarmShare(state *domain.GlobalState, pool *domain.PoolInfo, amount, farmStaked *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() || pool.TotalStakeBondShare.IsZero() {
		return new(uint256.Int), nil
	}

	newShare := new(uint256.Int).Set(amount)
	if !state.TotalFarmShare.IsZero() && !farmStaked.IsZero() {
		var err error
		if newShare, err = fixedpoint.MulRatio(amount, &state.TotalFarmShare, farmStaked); err != nil {
			return nil, err
		}
	}

	index, err := bumpIndex(pool.FarmShareIndex, newShare, &pool.TotalStakeBondShare)
	if err != nil {
		return nil, err
	}
	pool.FarmShareIndex = index
	if err := addTo(&pool.FarmShare, newShare); err != nil {
		return nil, err
	}
	if err := addTo(&state.TotalFarmShare, newShare); err != nil {
		return nil, err
	}
	return newShare, nil
}

// FarmAmount converts farm shares to the farm tokens they redeem. totalFarmShare and farmStaked
// refer to one farm token.
func FarmAmount(share, farmStaked, totalFarmShare *uint256.Int) (*uint256.Int, error) {
	if totalFarmShare.IsZero() {
		return new(uint256.Int), nil
	}
	return fixedpoint.MulRatio(farmStaked, share, totalFarmShare)
}

// GovernanceAmount converts governance shares to the governance tokens they redeem.
func GovernanceAmount(share *uint256.Int, staked *StakedShare) (*uint256.Int, error) {
	if staked.TotalShare.IsZero() {
		return new(uint256.Int), nil
	}
	return fixedpoint.MulRatio(share, &staked.TotalBalance, &staked.TotalShare)
}

// Vesting locks accrued governance rewards and releases them linearly between Start and End.
// A zero End disables the lock.
type Vesting struct {
	Start uint64
	End   uint64
}

// Locked returns the part of accum still locked at height.
func (v Vesting) Locked(accum *uint256.Int, height uint64) (*uint256.Int, error) {
	switch {
	case v.End == 0 || height >= v.End:
		return new(uint256.Int), nil
	case height <= v.Start:
		return new(uint256.Int).Set(accum), nil
	default:
		return fixedpoint.MulRatio(accum, uint256.NewInt(v.End-height), uint256.NewInt(v.End-v.Start))
	}
}

// Withdrawable splits the depositor's governance share into what can leave now and what stays locked.
func (v Vesting) Withdrawable(reward *domain.RewardInfo, height uint64) (withdraw, locked *uint256.Int, err error) {
	locked, err = v.Locked(&reward.AccumGovernanceShare, height)
	if err != nil {
		return nil, nil, err
	}
	return fixedpoint.SaturatingSub(&reward.GovernanceShare, locked), locked, nil
}
