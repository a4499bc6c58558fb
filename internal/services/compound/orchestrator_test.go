package compound

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/farm/farmtest"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

const (
	baseAsset    = "base"
	lpPair       = "lp-pair"
	protocolPair = "gov-pair"
	controller   = "controller"
	platform     = "platform"
)

type fixture struct {
	book *ledger.Book
	farm *farmtest.Farm
	gov  *farmtest.Governance
	amm  *farmtest.AMM
	cfg  Config
}

func reserves(assetA, assetB string, a, b uint64) *farm.Reserves {
	r := &farm.Reserves{AssetA: assetA, AssetB: assetB, Fee: swap.DefaultFee}
	r.A.SetUint64(a)
	r.B.SetUint64(b)
	r.TotalShare.SetUint64(a)
	return r
}

// newFixture builds a pool with user1 (7000, 60% auto) and user2 (5000, fixed stake) bonded.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		book: ledger.NewBook(),
		farm: farmtest.NewFarm(domain.FarmKindGenerator),
		gov:  &farmtest.Governance{},
		amm:  farmtest.NewAMM(),
		cfg: Config{
			Controller:         controller,
			Platform:           platform,
			CommunityFee:       fixedpoint.MustParseDecimal("0.01"),
			PlatformFee:        fixedpoint.MustParseDecimal("0.01"),
			ControllerFee:      fixedpoint.MustParseDecimal("0.01"),
			GovernanceContract: farmtest.GovernanceContract,
			ProtocolToken:      farmtest.GovernanceToken,
			ProtocolPair:       protocolPair,
		},
	}
	f.amm.SetReserves(lpPair, reserves(farmtest.FarmToken, baseAsset, 1_000_000, 1_000_000))
	f.amm.SetReserves(protocolPair, reserves(baseAsset, farmtest.GovernanceToken, 1_000_000, 1_000_000))

	require.NoError(t, ledger.RegisterPool(f.book, domain.NewPoolInfo("lp", lpPair, domain.FarmKindGenerator, 1), new(uint256.Int), nil))
	pool, err := f.book.Pool("lp")
	require.NoError(t, err)
	r1 := f.book.RewardOrNew("user1", pool)
	require.NoError(t, ledger.IncreaseBond(pool, r1, uint256.NewInt(7000), fixedpoint.MustParseDecimal("0.6"), fixedpoint.ZeroDecimal(), new(uint256.Int)))
	r2 := f.book.RewardOrNew("user2", pool)
	require.NoError(t, ledger.IncreaseBond(pool, r2, uint256.NewInt(5000), fixedpoint.ZeroDecimal(), fixedpoint.ZeroDecimal(), uint256.NewInt(7000)))
	f.farm.SetPrincipal("lp", 12_000)
	return f
}

func (f *fixture) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	farms, err := farm.NewRegistry(f.farm)
	require.NoError(t, err)
	o, err := NewOrchestrator(f.cfg, farms, f.gov, f.amm)
	require.NoError(t, err)
	return o
}

func sumFees(fees []domain.FeeShare) *uint256.Int {
	sum := new(uint256.Int)
	for i := range fees {
		sum.Add(sum, &fees[i].Amount)
	}
	return sum
}

func TestCompoundCycle(t *testing.T) {
	f := newFixture(t)
	f.farm.SetPending("lp", 10_000)

	res, err := f.orchestrator(t).Compound(context.Background(), f.book, controller, "lp")
	require.NoError(t, err)

	s := res.Summary
	require.Equal(t, uint64(300), s.Commission.Uint64())
	require.Equal(t, uint64(3395), s.CompoundAmount.Uint64())
	require.Equal(t, uint64(6305), s.StakeAmount.Uint64())
	require.Equal(t, uint64(6305), s.FarmShare.Uint64())
	require.Equal(t, uint64(299), s.CommissionBase.Uint64())
	require.Equal(t, uint64(298), s.ProtocolAmount.Uint64())
	require.NotZero(t, s.MaxPriceImpactBps)
	require.Less(t, s.MaxPriceImpactBps, swap.PriceImpactLow)

	require.Equal(t, []domain.ActionKind{
		domain.ActionClaim,
		domain.ActionSwap,
		domain.ActionSwap,
		domain.ActionSwap,
		domain.ActionMint,
		domain.ActionTransfer,
		domain.ActionStake,
		domain.ActionStake,
		domain.ActionStake,
		domain.ActionIncreaseAllowance,
		domain.ActionProvideLiquidity,
		domain.ActionStakeLP,
	}, domain.Kinds(res.Actions))

	require.Equal(t, lpPair, res.Actions[1].Contract)
	require.Equal(t, uint64(300), res.Actions[1].Amount().Uint64())
	require.Equal(t, protocolPair, res.Actions[3].Contract)
	require.Equal(t, farmtest.GovernanceContract, res.Actions[5].Recipient)
	require.Equal(t, platform, res.Actions[6].Recipient)
	require.Equal(t, controller, res.Actions[7].Recipient)
	require.Equal(t, farmtest.FarmGovContract, res.Actions[8].Contract)
	require.Equal(t, uint64(6305), res.Actions[8].Amount().Uint64())

	require.Len(t, s.Fees, 3)
	require.Equal(t, uint64(99), s.Fees[0].Amount.Uint64())
	require.Equal(t, uint64(99), s.Fees[1].Amount.Uint64())
	require.Equal(t, uint64(100), s.Fees[2].Amount.Uint64())
	require.Equal(t, s.ProtocolAmount, *sumFees(s.Fees))

	// everything reinvested is provided, swapped or carried over
	rebalanceIn := res.Actions[2].Amount()
	accounted := new(uint256.Int).Add(&s.ProvideFarm, &s.ReinvestAllowance)
	accounted.Add(accounted, rebalanceIn)
	require.Equal(t, uint64(3395), accounted.Uint64())
	require.False(t, s.LPAmount.IsZero())
	require.Equal(t, s.LPAmount, res.Actions[11].Assets[0].Amount)

	pool, err := f.book.Pool("lp")
	require.NoError(t, err)
	require.Equal(t, s.ReinvestAllowance, pool.ReinvestAllowance)
	require.Equal(t, uint64(6305), pool.FarmShare.Uint64())
	require.Equal(t, uint64(299), f.book.State.Earning.Uint64())
}

func TestCompoundNothingToHarvest(t *testing.T) {
	tests := []struct {
		name      string
		principal uint64
		pending   uint64
	}{
		{name: "zero principal and reward"},
		{name: "zero reward", principal: 12_000},
		{name: "zero principal", pending: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.farm.SetPrincipal("lp", tt.principal)
			f.farm.SetPending("lp", tt.pending)
			f.gov.SetStaked(1000)
			before := f.book.Clone()

			res, err := f.orchestrator(t).Compound(context.Background(), before, controller, "lp")
			require.NoError(t, err)
			require.Equal(t, []domain.ActionKind{domain.ActionClaim}, domain.Kinds(res.Actions))
			require.True(t, before.Changes().Empty())
		})
	}
}

func TestCompoundUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.farm.SetPending("lp", 10_000)

	_, err := f.orchestrator(t).Compound(context.Background(), f.book, "mallory", "lp")
	require.ErrorIs(t, err, ErrUnauthorized)

	f.cfg.Controller = ""
	f.cfg.ControllerFee = fixedpoint.ZeroDecimal()
	_, err = f.orchestrator(t).Compound(context.Background(), f.book, "anyone", "lp")
	require.NoError(t, err)
}

func TestCompoundRemainderGoesToLastPaidRecipient(t *testing.T) {
	f := newFixture(t)
	f.cfg.CommunityFee = fixedpoint.MustParseDecimal("0.02")
	f.cfg.ControllerFee = fixedpoint.ZeroDecimal()
	f.farm.SetPending("lp", 10_000)

	res, err := f.orchestrator(t).Compound(context.Background(), f.book, controller, "lp")
	require.NoError(t, err)

	fees := res.Summary.Fees
	require.Len(t, fees, 2)
	require.Equal(t, uint64(198), fees[0].Amount.Uint64())
	require.Equal(t, uint64(100), fees[1].Amount.Uint64())
	require.Equal(t, res.Summary.ProtocolAmount, *sumFees(fees))

	kinds := domain.Kinds(res.Actions)
	require.Equal(t, []domain.ActionKind{domain.ActionMint, domain.ActionTransfer, domain.ActionStake, domain.ActionStake}, kinds[4:8])
	require.Equal(t, platform, res.Actions[6].Recipient)
	require.Equal(t, farmtest.FarmGovContract, res.Actions[7].Contract)
}

func TestCompoundWrapperCommission(t *testing.T) {
	f := newFixture(t)
	f.cfg.Mode = CommissionWrapper
	f.cfg.Wrapper = "wrapper"
	f.cfg.WrapperToken = "wrapped-base"
	f.cfg.WrapperRate = fixedpoint.MustParseDecimal("1.25")
	f.farm.SetPending("lp", 10_000)

	res, err := f.orchestrator(t).Compound(context.Background(), f.book, controller, "lp")
	require.NoError(t, err)
	require.Equal(t, uint64(239), res.Summary.ProtocolAmount.Uint64())

	kinds := domain.Kinds(res.Actions)
	require.Equal(t, []domain.ActionKind{
		domain.ActionDepositWrapper,
		domain.ActionTransfer,
		domain.ActionTransfer,
		domain.ActionTransfer,
		domain.ActionStake,
	}, kinds[3:8])
	require.Equal(t, "wrapper", res.Actions[3].Contract)
	require.Equal(t, uint64(299), res.Actions[3].Amount().Uint64())
	for _, a := range res.Actions[4:7] {
		require.Equal(t, "wrapped-base", a.Contract)
	}
	require.Equal(t, uint64(81), res.Actions[6].Amount().Uint64())
	require.Equal(t, res.Summary.ProtocolAmount, *sumFees(res.Summary.Fees))
}

func TestCompoundSecondaryReward(t *testing.T) {
	f := newFixture(t)
	f.cfg.SecondaryPairs = map[string]string{"astro": "astro-pair"}
	f.amm.SetReserves("astro-pair", reserves("astro", baseAsset, 1_000_000, 1_000_000))
	rewards := &farm.Rewards{SecondaryAsset: "astro"}
	rewards.Farm.SetUint64(10_000)
	rewards.Secondary.SetUint64(1000)
	f.farm.Pending["lp"] = rewards

	res, err := f.orchestrator(t).Compound(context.Background(), f.book, controller, "lp")
	require.NoError(t, err)
	require.Equal(t, uint64(328), res.Summary.CommissionBase.Uint64())
	require.Equal(t, uint64(1000), res.Summary.SecondaryReward.Uint64())

	require.Equal(t, "astro-pair", res.Actions[2].Contract)
	require.Equal(t, "astro", res.Actions[2].Assets[0].Asset)
	require.Equal(t, lpPair, res.Actions[3].Contract)
	require.Equal(t, protocolPair, res.Actions[4].Contract)

	f.cfg.SecondaryPairs = nil
	_, err = f.orchestrator(t).Compound(context.Background(), f.book.Clone(), controller, "lp")
	require.ErrorIs(t, err, ErrNoRoute)
}

func TestCompoundFailureEmitsNothing(t *testing.T) {
	f := newFixture(t)
	f.farm.SetPending("lp", 10_000)
	f.amm.Err = errors.New("lcd unavailable")

	res, err := f.orchestrator(t).Compound(context.Background(), f.book.Clone(), controller, "lp")
	require.Error(t, err)
	require.Nil(t, res)

	_, err = f.orchestrator(t).Compound(context.Background(), f.book, controller, "missing")
	require.ErrorIs(t, err, ledger.ErrPoolNotFound)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		valid  bool
	}{
		{name: "valid", mutate: func(c *Config) {}, valid: true},
		{name: "fees above one", mutate: func(c *Config) { c.CommunityFee = fixedpoint.MustParseDecimal("0.99") }},
		{name: "fees sum to one", mutate: func(c *Config) {
			c.CommunityFee = fixedpoint.MustParseDecimal("0.5")
			c.PlatformFee = fixedpoint.MustParseDecimal("0.25")
			c.ControllerFee = fixedpoint.MustParseDecimal("0.25")
		}},
		{name: "protocol mode without pair", mutate: func(c *Config) { c.ProtocolPair = "" }},
		{name: "wrapper mode without rate", mutate: func(c *Config) {
			c.Mode = CommissionWrapper
			c.Wrapper = "w"
			c.WrapperToken = "wt"
		}},
		{name: "platform fee without platform", mutate: func(c *Config) { c.Platform = "" }},
		{name: "no fees needs nothing", mutate: func(c *Config) {
			*c = Config{}
		}, valid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newFixture(t).cfg
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestCompoundCarriesUnprovidedAmounts(t *testing.T) {
	t.Run("provision too small", func(t *testing.T) {
		f := newFixture(t)
		// one farm token buys about a thousand base, so the rebalanced remainder provides nothing
		f.amm.SetReserves(lpPair, reserves(farmtest.FarmToken, baseAsset, 1000, 1_000_000))
		f.farm.SetPending("lp", 9)

		res, err := f.orchestrator(t).Compound(context.Background(), f.book, controller, "lp")
		require.NoError(t, err)
		require.Equal(t, []domain.ActionKind{domain.ActionClaim, domain.ActionStake}, domain.Kinds(res.Actions))
		require.Equal(t, uint64(6), res.Actions[1].Amount().Uint64())

		s := res.Summary
		require.Equal(t, uint64(3), s.CompoundAmount.Uint64())
		require.True(t, s.ProvideFarm.IsZero())
		require.Equal(t, uint64(3), s.ReinvestAllowance.Uint64())
		require.Zero(t, s.MaxPriceImpactBps)

		pool, err := f.book.Pool("lp")
		require.NoError(t, err)
		require.Equal(t, uint64(3), pool.ReinvestAllowance.Uint64())
		require.True(t, pool.ReinvestBaseAllowance.IsZero())
	})

	t.Run("commission too small to sell", func(t *testing.T) {
		f := newFixture(t)
		f.amm.SetReserves(lpPair, reserves(farmtest.FarmToken, baseAsset, 1_000_000_000, 1000))
		f.farm.SetPending("lp", 1000)

		res, err := f.orchestrator(t).Compound(context.Background(), f.book, controller, "lp")
		require.NoError(t, err)
		require.Equal(t, []domain.ActionKind{domain.ActionClaim, domain.ActionStake}, domain.Kinds(res.Actions))
		require.Equal(t, uint64(631), res.Actions[1].Amount().Uint64())

		s := res.Summary
		require.True(t, s.Commission.IsZero())
		require.True(t, s.CommissionBase.IsZero())
		require.Equal(t, uint64(369), s.CompoundAmount.Uint64())
		require.Empty(t, s.Fees)

		pool, err := f.book.Pool("lp")
		require.NoError(t, err)
		require.Equal(t, uint64(369), pool.ReinvestAllowance.Uint64())
		require.True(t, f.book.State.Earning.IsZero())
	})

	t.Run("base allowance joins the next provision", func(t *testing.T) {
		f := newFixture(t)
		pool, err := f.book.Pool("lp")
		require.NoError(t, err)
		pool.ReinvestAllowance.SetUint64(3)
		pool.ReinvestBaseAllowance.SetUint64(3)
		f.farm.SetPending("lp", 9)

		res, err := f.orchestrator(t).Compound(context.Background(), f.book, controller, "lp")
		require.NoError(t, err)

		s := res.Summary
		require.Equal(t, uint64(3), s.ProvideFarm.Uint64())
		require.Equal(t, uint64(3), s.ProvideBase.Uint64())
		require.Equal(t, uint64(3), s.LPAmount.Uint64())
		require.Equal(t, uint64(3), pool.ReinvestAllowance.Uint64())
		require.True(t, pool.ReinvestBaseAllowance.IsZero())
		require.Equal(t, domain.ActionProvideLiquidity, res.Actions[len(res.Actions)-2].Kind)
	})
}
