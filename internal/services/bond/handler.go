// Package bond applies depositor operations to the ledger: adding principal, removing it and
// withdrawing accrued rewards. Each operation settles every index it touches before any share
// count changes and returns the external actions the dispatcher must run.
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

type Handler struct {
	farms      *farm.Registry
	governance farm.Governance
	depositFee fixedpoint.Decimal
	vesting    ledger.Vesting
}

func NewHandler(farms *farm.Registry, governance farm.Governance, depositFee fixedpoint.Decimal, vesting ledger.Vesting) *Handler {
	return &Handler{
		farms:      farms,
		governance: governance,
		depositFee: depositFee,
		vesting:    vesting,
	}
}

// position is a pool with its farm and the principal bonded there, settled against the global index.
type position struct {
	pool      *domain.PoolInfo
	farm      farm.Farm
	principal *uint256.Int
}

func (h *Handler) settleGlobal(ctx context.Context, book *ledger.Book) (*ledger.StakedShare, error) {
	staked, err := h.governance.StakedShare(ctx)
	if err != nil {
		return nil, fmt.Errorf("query staked governance share: %w", err)
	}
	if err := ledger.SettleGlobal(&book.State, &staked.Share); err != nil {
		return nil, err
	}
	return staked, nil
}

func (h *Handler) settlePool(ctx context.Context, book *ledger.Book, asset string) (*position, error) {
	pool, err := book.Pool(asset)
	if err != nil {
		return nil, err
	}
	f, err := h.farms.ForPool(pool)
	if err != nil {
		return nil, err
	}
	principal, err := f.BondedPrincipal(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("query bonded principal of %s: %w", asset, err)
	}
	if err := ledger.SettlePool(&book.State, pool, principal); err != nil {
		return nil, err
	}
	return &position{pool: pool, farm: f, principal: principal}, nil
}

// Bond credits amount of LP tokens, already transferred by the staker, to the staker's position.
func (h *Handler) Bond(ctx context.Context, book *ledger.Book, staker, asset string, amount *uint256.Int, compoundRate fixedpoint.Decimal) ([]domain.Action, error) {
	if amount.IsZero() {
		return nil, ledger.ErrZeroAmount
	}
	if _, err := book.Pool(asset); err != nil {
		return nil, err
	}
	if _, err := h.settleGlobal(ctx, book); err != nil {
		return nil, err
	}
	pos, err := h.settlePool(ctx, book, asset)
	if err != nil {
		return nil, err
	}

	reward := book.RewardOrNew(staker, pos.pool)
	if err := ledger.SettleDepositor(pos.pool, reward); err != nil {
		return nil, err
	}
	if err := ledger.IncreaseBond(pos.pool, reward, amount, compoundRate, h.depositFee, pos.principal); err != nil {
		return nil, err
	}
	book.SaveReward(reward)

	return []domain.Action{pos.farm.StakeAction(asset, amount)}, nil
}

// Unbond removes amount of LP tokens from the staker's position and sends them back.
func (h *Handler) Unbond(ctx context.Context, book *ledger.Book, staker, asset string, amount *uint256.Int) ([]domain.Action, error) {
	if amount.IsZero() {
		return nil, ledger.ErrZeroAmount
	}
	if _, err := book.Pool(asset); err != nil {
		return nil, err
	}
	reward, err := book.Reward(staker, asset)
	if err != nil {
		return nil, err
	}
	if _, err := h.settleGlobal(ctx, book); err != nil {
		return nil, err
	}
	pos, err := h.settlePool(ctx, book, asset)
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
	if err := ledger.DecreaseBond(pos.pool, reward, amount, userAuto, userStake, pos.principal); err != nil {
		return nil, err
	}
	book.SaveReward(reward)

	return []domain.Action{
		pos.farm.UnstakeAction(asset, amount),
		transfer(asset, amount, staker),
	}, nil
}

// Withdrawal is the outcome of a reward withdrawal.
type Withdrawal struct {
	FarmAmount       uint256.Int
	GovernanceAmount uint256.Int
	// LockedGovernance is the governance share that stays behind until it vests.
	LockedGovernance uint256.Int
	Actions          []domain.Action
}

type farmPayout struct {
	farm   farm.Farm
	staked *uint256.Int
	amount *uint256.Int
}

// Withdraw pays out the staker's farm and vested governance rewards, for one pool when asset is
// set and for every pool of the staker otherwise. height is the caller-supplied unix time the
// vesting schedule is evaluated at.
func (h *Handler) Withdraw(ctx context.Context, book *ledger.Book, staker, asset string, height uint64) (*Withdrawal, error) {
	var rewards []*domain.RewardInfo
	if asset != "" {
		r, err := book.Reward(staker, asset)
		if err != nil {
			return nil, err
		}
		rewards = []*domain.RewardInfo{r}
	} else {
		rewards = book.StakerRewards(staker)
		if len(rewards) == 0 {
			return nil, fmt.Errorf("%w: %s", ledger.ErrRewardNotFound, staker)
		}
	}

	staked, err := h.settleGlobal(ctx, book)
	if err != nil {
		return nil, err
	}

	var (
		payouts         []*farmPayout
		farmShare       = new(uint256.Int)
		governanceShare = new(uint256.Int)
		out             = &Withdrawal{}
	)
	// farm.Registry admits a single farm token, so the global TotalFarmShare prices every payout.
	payoutFor := func(ctx context.Context, f farm.Farm) (*farmPayout, error) {
		for _, p := range payouts {
			if p.farm.FarmToken() == f.FarmToken() {
				return p, nil
			}
		}
		farmStaked, err := f.FarmTokenStaked(ctx)
		if err != nil {
			return nil, fmt.Errorf("query staked farm token: %w", err)
		}
		p := &farmPayout{farm: f, staked: farmStaked, amount: new(uint256.Int)}
		payouts = append(payouts, p)
		return p, nil
	}

	for _, reward := range rewards {
		pos, err := h.settlePool(ctx, book, reward.Asset)
		if err != nil {
			return nil, err
		}
		if err := ledger.SettleDepositor(pos.pool, reward); err != nil {
			return nil, err
		}

		payout, err := payoutFor(ctx, pos.farm)
		if err != nil {
			return nil, err
		}
		farmAmount, err := ledger.FarmAmount(&reward.FarmShare, payout.staked, &book.State.TotalFarmShare)
		if err != nil {
			return nil, err
		}
		payout.amount.Add(payout.amount, farmAmount)
		farmShare.Add(farmShare, &reward.FarmShare)

		withdrawShare, locked, err := h.vesting.Withdrawable(reward, height)
		if err != nil {
			return nil, err
		}
		governanceAmount, err := ledger.GovernanceAmount(withdrawShare, staked)
		if err != nil {
			return nil, err
		}
		governanceShare.Add(governanceShare, withdrawShare)
		out.GovernanceAmount.Add(&out.GovernanceAmount, governanceAmount)
		out.LockedGovernance.Add(&out.LockedGovernance, locked)

		diff, err := fixedpoint.CheckedSub(&pos.pool.FarmShare, &reward.FarmShare)
		if err != nil {
			return nil, fmt.Errorf("pool %s farm share: %w", pos.pool.Asset, err)
		}
		pos.pool.FarmShare.Set(diff)
		reward.FarmShare.Clear()
		reward.GovernanceShare.Sub(&reward.GovernanceShare, withdrawShare)
		book.SaveReward(reward)
	}

	previous, err := fixedpoint.CheckedSub(&book.State.PreviousGovernanceShare, governanceShare)
	if err != nil {
		return nil, fmt.Errorf("previous governance share: %w", err)
	}
	totalFarmShare, err := fixedpoint.CheckedSub(&book.State.TotalFarmShare, farmShare)
	if err != nil {
		return nil, fmt.Errorf("total farm share: %w", err)
	}
	book.State.PreviousGovernanceShare.Set(previous)
	book.State.TotalFarmShare.Set(totalFarmShare)

	if !out.GovernanceAmount.IsZero() {
		out.Actions = append(out.Actions,
			h.governance.WithdrawAction(&out.GovernanceAmount),
			transfer(h.governance.Token(), &out.GovernanceAmount, staker),
		)
	}
	for _, p := range payouts {
		if p.amount.IsZero() {
			continue
		}
		out.FarmAmount.Add(&out.FarmAmount, p.amount)
		out.Actions = append(out.Actions,
			p.farm.WithdrawFarmTokenAction(p.amount),
			transfer(p.farm.FarmToken(), p.amount, staker),
		)
	}
	return out, nil
}

func transfer(token string, amount *uint256.Int, recipient string) domain.Action {
	return domain.NewAction(domain.ActionTransfer, token, domain.NewAssetAmount(token, amount)).WithRecipient(recipient)
}
