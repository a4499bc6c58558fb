// Package compound drives one harvest-and-reinvest cycle of a pool: it claims the farm rewards,
// takes the protocol commission, credits the fixed-stake share to the ledger and turns the
// auto-compound share back into LP tokens.
package compound

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

type Orchestrator struct {
	cfg        Config
	farms      *farm.Registry
	governance farm.Governance
	amm        farm.AMM
}

func NewOrchestrator(cfg Config, farms *farm.Registry, governance farm.Governance, amm farm.AMM) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:        cfg,
		farms:      farms,
		governance: governance,
		amm:        amm,
	}, nil
}

// cycle carries the intermediate amounts of one Compound call.
type cycle struct {
	pool     *domain.PoolInfo
	farm     farm.Farm
	rewards  *farm.Rewards
	totalFee fixedpoint.Decimal
	tax      swap.TaxPolicy

	pair      swap.Pair
	farmIsA   bool
	baseAsset string
	lpSupply  uint256.Int

	swaps      []domain.Action
	commission []domain.Action
	fees       []domain.Action
	provide    []domain.Action

	result *domain.CompoundResult
}

func (c *cycle) summary() *domain.CompoundSummary {
	return &c.result.Summary
}

// carry keeps what the cycle did not provide as the pool's reinvest allowances.
func (c *cycle) carry(farmAmount, baseAmount *uint256.Int) {
	s := c.summary()
	c.pool.ReinvestAllowance.Set(farmAmount)
	c.pool.ReinvestBaseAllowance.Set(baseAmount)
	s.ReinvestAllowance.Set(farmAmount)
	s.DustBase.Set(baseAmount)
}

func (c *cycle) observeImpact(s *swap.Swap) {
	sum := c.summary()
	if s.PriceImpactBps > sum.MaxPriceImpactBps {
		sum.MaxPriceImpactBps = s.PriceImpactBps
	}
}

// Compound runs one cycle on the pool of asset and returns the actions to dispatch, in order.
// It mutates book; on error the book must be discarded.
func (o *Orchestrator) Compound(ctx context.Context, book *ledger.Book, caller, asset string) (*domain.CompoundResult, error) {
	pool, err := book.Pool(asset)
	if err != nil {
		return nil, err
	}
	f, err := o.farms.ForPool(pool)
	if err != nil {
		return nil, err
	}
	principal, err := f.BondedPrincipal(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("query bonded principal of %s: %w", asset, err)
	}
	rewards, err := f.PendingRewards(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("query pending rewards of %s: %w", asset, err)
	}

	if o.cfg.Controller != "" && caller != o.cfg.Controller {
		return nil, fmt.Errorf("%w: %s is not the controller", ErrUnauthorized, caller)
	}

	totalFee, err := o.cfg.TotalFee()
	if err != nil {
		return nil, err
	}
	c := &cycle{
		pool:     pool,
		farm:     f,
		rewards:  rewards,
		totalFee: totalFee,
		tax:      o.cfg.tax(),
		result: &domain.CompoundResult{
			Asset:   asset,
			Caller:  caller,
			Actions: []domain.Action{f.ClaimAction(asset)},
		},
	}
	s := c.summary()
	s.Reward.Set(&rewards.Farm)
	s.SecondaryReward.Set(&rewards.Secondary)
	if principal.IsZero() || (rewards.Farm.IsZero() && rewards.Secondary.IsZero()) {
		return c.result, nil
	}

	if err := o.split(c, principal); err != nil {
		return nil, err
	}
	if err := o.settle(ctx, book, c, principal); err != nil {
		return nil, err
	}
	if err := o.reinvest(ctx, c); err != nil {
		return nil, err
	}
	if err := o.convertCommission(ctx, book, c); err != nil {
		return nil, err
	}

	actions := c.result.Actions
	actions = append(actions, c.swaps...)
	actions = append(actions, c.commission...)
	actions = append(actions, c.fees...)
	if !s.StakeAmount.IsZero() {
		actions = append(actions, f.StakeFarmTokenAction(&s.StakeAmount))
	}
	actions = append(actions, c.provide...)
	c.result.Actions = actions
	return c.result, nil
}

// split takes the commission off the farm reward and divides the rest between the auto-compound
// and fixed-stake sub-positions by their current share of the bonded principal.
func (o *Orchestrator) split(c *cycle, principal *uint256.Int) error {
	s := c.summary()
	commission, err := c.totalFee.MulInt(&c.rewards.Farm)
	if err != nil {
		return err
	}
	net, err := fixedpoint.CheckedSub(&c.rewards.Farm, commission)
	if err != nil {
		return err
	}
	autoPrincipal, err := ledger.AutoPrincipal(c.pool, principal)
	if err != nil {
		return err
	}
	compoundAmount, err := fixedpoint.MulRatio(net, autoPrincipal, principal)
	if err != nil {
		return err
	}
	s.Commission.Set(commission)
	s.CompoundAmount.Set(compoundAmount)
	s.StakeAmount.Sub(net, compoundAmount)
	return nil
}

// settle brings the governance indices up to date and registers the stake-destined farm tokens
// as farm shares of the pool's fixed-stake holders.
func (o *Orchestrator) settle(ctx context.Context, book *ledger.Book, c *cycle, principal *uint256.Int) error {
	staked, err := o.governance.StakedShare(ctx)
	if err != nil {
		return fmt.Errorf("query staked governance share: %w", err)
	}
	if err := ledger.SettleGlobal(&book.State, &staked.Share); err != nil {
		return err
	}
	if err := ledger.SettlePool(&book.State, c.pool, principal); err != nil {
		return err
	}

	s := c.summary()
	if s.StakeAmount.IsZero() {
		return nil
	}
	farmStaked, err := c.farm.FarmTokenStaked(ctx)
	if err != nil {
		return fmt.Errorf("query staked farm token: %w", err)
	}
	share, err := ledger.DepositFarmShare(&book.State, c.pool, &s.StakeAmount, farmStaked)
	if err != nil {
		return err
	}
	s.FarmShare.Set(share)
	return nil
}

// reinvest sells the commission for the base asset, sells any secondary reward through its own
// pair and rebalances what is left of the farm token into a liquidity provision.
func (o *Orchestrator) reinvest(ctx context.Context, c *cycle) error {
	s := c.summary()
	reserves, err := o.amm.PoolReserves(ctx, c.pool.Pair)
	if err != nil {
		return fmt.Errorf("query reserves of %s: %w", c.pool.Pair, err)
	}
	c.pair = reserves.Pair(c.pool.Pair)
	c.lpSupply.Set(&reserves.TotalShare)
	farmToken := c.farm.FarmToken()
	if c.farmIsA, err = c.pair.Side(farmToken); err != nil {
		return err
	}
	c.baseAsset = c.pair.AssetA
	if c.farmIsA {
		c.baseAsset = c.pair.AssetB
	}

	commissionSwap, err := swap.SwapExact(&c.pair, farmToken, &s.Commission, c.tax)
	if err != nil {
		return err
	}
	if commissionSwap != nil {
		c.observeImpact(commissionSwap)
		c.swaps = append(c.swaps, swapAction(commissionSwap.Pair, commissionSwap.OfferAsset, &commissionSwap.Input))
		s.CommissionBase.Set(&commissionSwap.Received)
	} else if !s.Commission.IsZero() {
		// a commission too small to sell is compounded with the rest
		if err := addTo(&s.CompoundAmount, &s.Commission); err != nil {
			return err
		}
		s.Commission.Clear()
	}

	secondaryBase, err := o.sellSecondary(ctx, c)
	if err != nil {
		return err
	}

	farmAmount, err := fixedpoint.CheckedAdd(&s.CompoundAmount, &c.pool.ReinvestAllowance)
	if err != nil {
		return err
	}
	baseAmount, err := fixedpoint.CheckedAdd(secondaryBase, &c.pool.ReinvestBaseAllowance)
	if err != nil {
		return err
	}
	amountA, amountB := farmAmount, baseAmount
	if !c.farmIsA {
		amountA, amountB = baseAmount, farmAmount
	}
	plan, err := swap.Rebalance(c.pair, amountA, amountB, c.tax)
	if err != nil {
		return err
	}

	provideFarm, provideBase, dustFarm, dustBase := &plan.ProvideA, &plan.ProvideB, &plan.DustA, &plan.DustB
	if !c.farmIsA {
		provideFarm, provideBase, dustFarm, dustBase = &plan.ProvideB, &plan.ProvideA, &plan.DustB, &plan.DustA
	}
	if provideFarm.IsZero() || provideBase.IsZero() {
		// Nothing can be provided: skip the rebalance swap and carry both sides to the next cycle.
		c.carry(farmAmount, baseAmount)
		return nil
	}
	if plan.Swap != nil {
		c.observeImpact(plan.Swap)
		c.swaps = append(c.swaps, swapAction(plan.Swap.Pair, plan.Swap.OfferAsset, &plan.Swap.Input))
	}
	s.ProvideFarm.Set(provideFarm)
	s.ProvideBase.Set(provideBase)
	c.carry(dustFarm, dustBase)
	lp, err := mintedShare(&plan.After, &plan.ProvideA, &plan.ProvideB, &c.lpSupply)
	if err != nil {
		return err
	}
	s.LPAmount.Set(lp)
	c.provide = append(c.provide,
		domain.NewAction(domain.ActionIncreaseAllowance, farmToken, domain.NewAssetAmount(farmToken, provideFarm)).WithRecipient(c.pair.Address),
		domain.NewAction(domain.ActionProvideLiquidity, c.pair.Address,
			domain.NewAssetAmount(c.pair.AssetA, &plan.ProvideA),
			domain.NewAssetAmount(c.pair.AssetB, &plan.ProvideB),
		),
	)
	if !lp.IsZero() {
		c.provide = append(c.provide, c.farm.StakeAction(c.pool.Asset, lp))
	}
	return nil
}

// sellSecondary swaps the whole secondary reward for the base asset. Its commission slice joins
// the farm-token commission; the rest is returned for reinvestment.
func (o *Orchestrator) sellSecondary(ctx context.Context, c *cycle) (*uint256.Int, error) {
	s := c.summary()
	secondary := &c.rewards.Secondary
	if secondary.IsZero() {
		return new(uint256.Int), nil
	}
	pair, ok := o.cfg.SecondaryPairs[c.rewards.SecondaryAsset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, c.rewards.SecondaryAsset)
	}

	offer, err := c.tax.DeductTax(c.rewards.SecondaryAsset, secondary)
	if err != nil {
		return nil, err
	}
	sim, err := o.amm.SimulateSwap(ctx, pair, c.rewards.SecondaryAsset, offer)
	if err != nil {
		return nil, fmt.Errorf("simulate %s on %s: %w", c.rewards.SecondaryAsset, pair, err)
	}
	if sim.Return.IsZero() {
		return new(uint256.Int), nil
	}
	received, err := c.tax.DeductTax(c.baseAsset, &sim.Return)
	if err != nil {
		return nil, err
	}

	commission, err := c.totalFee.MulInt(secondary)
	if err != nil {
		return nil, err
	}
	commissionBase, err := fixedpoint.MulRatio(received, commission, secondary)
	if err != nil {
		return nil, err
	}
	if err := addTo(&s.CommissionBase, commissionBase); err != nil {
		return nil, err
	}
	c.swaps = append(c.swaps, swapAction(pair, c.rewards.SecondaryAsset, secondary))
	return new(uint256.Int).Sub(received, commissionBase), nil
}

// convertCommission turns the base-asset commission into protocol tokens or wrapper units and
// splits them between community, platform and controller, in that order. The last paid recipient
// takes the remainder so the split always adds up to the converted amount.
func (o *Orchestrator) convertCommission(ctx context.Context, book *ledger.Book, c *cycle) error {
	s := c.summary()
	if s.CommissionBase.IsZero() {
		return nil
	}
	net, err := c.tax.DeductTax(c.baseAsset, &s.CommissionBase)
	if err != nil {
		return err
	}
	if net.IsZero() {
		return nil
	}
	if err := addTo(&book.State.Earning, net); err != nil {
		return err
	}

	var feeToken string
	switch o.cfg.Mode {
	case CommissionWrapper:
		units, err := fixedpoint.MulRatio(net, fixedpoint.OneDecimal().Raw(), o.cfg.WrapperRate.Raw())
		if err != nil {
			return err
		}
		s.ProtocolAmount.Set(units)
		feeToken = o.cfg.WrapperToken
		c.commission = append(c.commission,
			domain.NewAction(domain.ActionDepositWrapper, o.cfg.Wrapper, domain.NewAssetAmount(c.baseAsset, net)))
	default:
		sim, err := o.amm.SimulateSwap(ctx, o.cfg.ProtocolPair, c.baseAsset, net)
		if err != nil {
			return fmt.Errorf("simulate commission on %s: %w", o.cfg.ProtocolPair, err)
		}
		s.ProtocolAmount.Set(&sim.Return)
		feeToken = o.cfg.ProtocolToken
		c.commission = append(c.commission,
			swapAction(o.cfg.ProtocolPair, c.baseAsset, net),
			domain.NewAction(domain.ActionMint, o.cfg.GovernanceContract),
		)
	}

	fees, err := o.splitFees(&s.ProtocolAmount, c.totalFee)
	if err != nil {
		return err
	}
	s.Fees = fees
	for i := range fees {
		fee := &fees[i]
		if fee.Amount.IsZero() {
			continue
		}
		c.fees = append(c.fees, o.feeAction(feeToken, fee))
	}
	return nil
}

func (o *Orchestrator) splitFees(total *uint256.Int, totalFee fixedpoint.Decimal) ([]domain.FeeShare, error) {
	if total.IsZero() || totalFee.IsZero() {
		return nil, nil
	}
	recipients := []struct {
		recipient string
		rate      fixedpoint.Decimal
	}{
		{o.cfg.GovernanceContract, o.cfg.CommunityFee},
		{o.cfg.Platform, o.cfg.PlatformFee},
		{o.cfg.Controller, o.cfg.ControllerFee},
	}

	var fees []domain.FeeShare
	paid := new(uint256.Int)
	for _, r := range recipients {
		if r.rate.IsZero() {
			continue
		}
		amount, err := fixedpoint.MulRatio(total, r.rate.Raw(), totalFee.Raw())
		if err != nil {
			return nil, err
		}
		paid.Add(paid, amount)
		fee := domain.FeeShare{Recipient: r.recipient}
		fee.Amount.Set(amount)
		fees = append(fees, fee)
	}
	last := &fees[len(fees)-1].Amount
	last.Add(last, fixedpoint.SaturatingSub(total, paid))
	return fees, nil
}

func (o *Orchestrator) feeAction(token string, fee *domain.FeeShare) domain.Action {
	asset := domain.NewAssetAmount(token, &fee.Amount)
	if o.cfg.Mode == CommissionWrapper || fee.Recipient == o.cfg.GovernanceContract {
		return domain.NewAction(domain.ActionTransfer, token, asset).WithRecipient(fee.Recipient)
	}
	return domain.NewAction(domain.ActionStake, o.cfg.GovernanceContract, asset).WithRecipient(fee.Recipient)
}

// mintedShare estimates the LP tokens a provision into the after reserves mints.
func mintedShare(after *swap.Pair, provideA, provideB, supply *uint256.Int) (*uint256.Int, error) {
	if supply.IsZero() {
		product, err := fixedpoint.CheckedMul(provideA, provideB)
		if err != nil {
			return nil, err
		}
		return fixedpoint.Isqrt(product), nil
	}
	shareA, err := fixedpoint.MulRatio(provideA, supply, &after.ReserveA)
	if err != nil {
		return nil, err
	}
	shareB, err := fixedpoint.MulRatio(provideB, supply, &after.ReserveB)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Min(shareA, shareB), nil
}

func swapAction(pair, offerAsset string, amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionSwap, pair, domain.NewAssetAmount(offerAsset, amount))
}

func addTo(dst, v *uint256.Int) error {
	sum, err := fixedpoint.CheckedAdd(dst, v)
	if err != nil {
		return err
	}
	dst.Set(sum)
	return nil
}
