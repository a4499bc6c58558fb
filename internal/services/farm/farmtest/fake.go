// Package farmtest provides in-memory Farm, Governance and AMM implementations for tests.
package farmtest

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
)

const (
	FarmContract       = "farm-staking"
	FarmGovContract    = "farm-gov"
	FarmToken          = "farm-token"
	GovernanceContract = "gov"
	GovernanceToken    = "gov-token"
)

type Farm struct {
	Kind domain.FarmKind
	// Token overrides FarmToken when set.
	Token string

	Principal map[string]*uint256.Int
	Pending   map[string]*farm.Rewards
	Staked    uint256.Int

	// Err, when set, fails every query.
	Err error
}

func NewFarm(kind domain.FarmKind) *Farm {
	return &Farm{
		Kind:      kind,
		Principal: make(map[string]*uint256.Int),
		Pending:   make(map[string]*farm.Rewards),
	}
}

func (f *Farm) SetPrincipal(asset string, amount uint64) {
	f.Principal[asset] = uint256.NewInt(amount)
}

func (f *Farm) SetPending(asset string, amount uint64) {
	r := &farm.Rewards{}
	r.Farm.SetUint64(amount)
	f.Pending[asset] = r
}

func (f *Farm) PendingRewards(_ context.Context, asset string) (*farm.Rewards, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if r, ok := f.Pending[asset]; ok {
		c := *r
		return &c, nil
	}
	return &farm.Rewards{}, nil
}

func (f *Farm) BondedPrincipal(_ context.Context, asset string) (*uint256.Int, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if p, ok := f.Principal[asset]; ok {
		return new(uint256.Int).Set(p), nil
	}
	return new(uint256.Int), nil
}

func (f *Farm) FarmTokenStaked(_ context.Context) (*uint256.Int, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return new(uint256.Int).Set(&f.Staked), nil
}

func (f *Farm) FarmToken() string {
	if f.Token != "" {
		return f.Token
	}
	return FarmToken
}

func (f *Farm) ClaimAction(asset string) domain.Action {
	return domain.NewAction(domain.ActionClaim, FarmContract, domain.NewAssetAmount(asset, new(uint256.Int)))
}

func (f *Farm) StakeAction(asset string, amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionStakeLP, FarmContract, domain.NewAssetAmount(asset, amount))
}

func (f *Farm) UnstakeAction(asset string, amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionUnstakeLP, FarmContract, domain.NewAssetAmount(asset, amount))
}

func (f *Farm) StakeFarmTokenAction(amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionStake, FarmGovContract, domain.NewAssetAmount(FarmToken, amount))
}

func (f *Farm) WithdrawFarmTokenAction(amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionUnstake, FarmGovContract, domain.NewAssetAmount(FarmToken, amount))
}

func (f *Farm) SupportsFarmKind(kind domain.FarmKind) bool {
	return kind == f.Kind
}

type Governance struct {
	Staked ledger.StakedShare
	Err    error
}

// SetStaked sets the strategy's share and a 1:1 share price over the same total.
func (g *Governance) SetStaked(share uint64) {
	g.Staked.Share.SetUint64(share)
	g.Staked.TotalShare.SetUint64(share)
	g.Staked.TotalBalance.SetUint64(share)
}

func (g *Governance) StakedShare(_ context.Context) (*ledger.StakedShare, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	s := g.Staked
	return &s, nil
}

func (g *Governance) Token() string {
	return GovernanceToken
}

func (g *Governance) WithdrawAction(amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionUnstake, GovernanceContract, domain.NewAssetAmount(GovernanceToken, amount))
}

// AMM simulates swaps against fixed reserves with the constant-product formula.
type AMM struct {
	Reserves map[string]*farm.Reserves
	Err      error
}

func NewAMM() *AMM {
	return &AMM{Reserves: make(map[string]*farm.Reserves)}
}

func (a *AMM) SetReserves(pair string, r *farm.Reserves) {
	a.Reserves[pair] = r
}

func (a *AMM) PoolReserves(_ context.Context, pair string) (*farm.Reserves, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	r, ok := a.Reserves[pair]
	if !ok {
		return nil, fmt.Errorf("unknown pair %s", pair)
	}
	c := *r
	return &c, nil
}

func (a *AMM) SimulateSwap(ctx context.Context, pair, offerAsset string, amount *uint256.Int) (*farm.Simulation, error) {
	r, err := a.PoolReserves(ctx, pair)
	if err != nil {
		return nil, err
	}
	p := r.Pair(pair)
	offerA, err := p.Side(offerAsset)
	if err != nil {
		return nil, err
	}
	ret, commission, err := p.Simulate(offerA, amount)
	if err != nil {
		return nil, err
	}
	s := &farm.Simulation{}
	s.Return.Set(ret)
	s.Commission.Set(commission)
	return s, nil
}
