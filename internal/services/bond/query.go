package bond

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
)

// PositionView is a depositor's position with rewards settled up to now.
type PositionView struct {
	Asset string

	BondAmount      uint256.Int
	AutoBondAmount  uint256.Int
	StakeBondAmount uint256.Int

	FarmShareIndex            fixedpoint.Decimal
	AutoGovernanceShareIndex  fixedpoint.Decimal
	StakeGovernanceShareIndex fixedpoint.Decimal

	FarmShare         uint256.Int
	PendingFarmReward uint256.Int

	GovernanceShare         uint256.Int
	PendingGovernanceReward uint256.Int
	LockedGovernanceReward  uint256.Int
}

// Preview settles the staker's positions on book and reports them. The global settlement
// saturates instead of failing, so book must be a throwaway copy.
func (h *Handler) Preview(ctx context.Context, book *ledger.Book, staker string, height uint64) ([]*PositionView, error) {
	rewards := book.StakerRewards(staker)
	if len(rewards) == 0 {
		return []*PositionView{}, nil
	}

	staked, err := h.governance.StakedShare(ctx)
	if err != nil {
		return nil, fmt.Errorf("query staked governance share: %w", err)
	}
	if err := ledger.PreviewGlobal(&book.State, &staked.Share); err != nil {
		return nil, err
	}

	farmStaked := make(map[string]*uint256.Int)
	stakedFor := func(f farm.Farm) (*uint256.Int, error) {
		if v, ok := farmStaked[f.FarmToken()]; ok {
			return v, nil
		}
		v, err := f.FarmTokenStaked(ctx)
		if err != nil {
			return nil, fmt.Errorf("query staked farm token: %w", err)
		}
		farmStaked[f.FarmToken()] = v
		return v, nil
	}

	views := make([]*PositionView, 0, len(rewards))
	for _, reward := range rewards {
		pos, err := h.settlePool(ctx, book, reward.Asset)
		if err != nil {
			return nil, err
		}
		userAuto, userStake, err := ledger.UserBalances(pos.pool, reward, pos.principal)
		if err != nil {
			return nil, err
		}
		if err := ledger.SettleDepositor(pos.pool, reward); err != nil {
			return nil, err
		}
		fs, err := stakedFor(pos.farm)
		if err != nil {
			return nil, err
		}

		v, err := h.view(book, reward, staked, fs, userAuto, userStake, height)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (h *Handler) view(
	book *ledger.Book,
	reward *domain.RewardInfo,
	staked *ledger.StakedShare,
	farmStaked, userAuto, userStake *uint256.Int,
	height uint64,
) (*PositionView, error) {
	v := &PositionView{
		Asset:                     reward.Asset,
		FarmShareIndex:            reward.FarmShareIndex,
		AutoGovernanceShareIndex:  reward.AutoGovernanceShareIndex,
		StakeGovernanceShareIndex: reward.StakeGovernanceShareIndex,
	}
	v.AutoBondAmount.Set(userAuto)
	v.StakeBondAmount.Set(userStake)
	if _, overflow := v.BondAmount.AddOverflow(userAuto, userStake); overflow {
		return nil, fixedpoint.ErrOverflow
	}
	v.FarmShare.Set(&reward.FarmShare)
	v.GovernanceShare.Set(&reward.GovernanceShare)

	farmAmount, err := ledger.FarmAmount(&reward.FarmShare, farmStaked, &book.State.TotalFarmShare)
	if err != nil {
		return nil, err
	}
	v.PendingFarmReward.Set(farmAmount)

	withdrawShare, locked, err := h.vesting.Withdrawable(reward, height)
	if err != nil {
		return nil, err
	}
	pending, err := ledger.GovernanceAmount(withdrawShare, staked)
	if err != nil {
		return nil, err
	}
	v.PendingGovernanceReward.Set(pending)
	lockedAmount, err := ledger.GovernanceAmount(locked, staked)
	if err != nil {
		return nil, err
	}
	v.LockedGovernanceReward.Set(lockedAmount)
	return v, nil
}
