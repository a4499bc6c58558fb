// Package strategy runs the ledger operations of one strategy instance. Operations execute one at a
// time on a copy of the ledger; the copy replaces the live ledger only after its changes are
// committed, so a failed operation leaves no trace.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/compound-engine/internal/adapters/persistence"
	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/metrics"
	"github.com/hxuan190/compound-engine/internal/services"
	"github.com/hxuan190/compound-engine/internal/services/bond"
	"github.com/hxuan190/compound-engine/internal/services/compound"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

const STRATEGY_SERVICE = "strategy-service"

var ErrUnauthorized = compound.ErrUnauthorized

// Committer persists the changes of one operation atomically.
type Committer interface {
	Commit(changes *ledger.Changes) error
}

// CycleRecorder receives every successful compound cycle.
type CycleRecorder interface {
	RecordCycle(result *domain.CompoundResult)
}

// Deps is everything the service runs on. Configure builds it from the container configs.
type Deps struct {
	Store      Committer
	Book       *ledger.Book
	Farms      *farm.Registry
	Governance farm.Governance
	AMM        farm.AMM

	Compound   compound.Config
	DepositFee fixedpoint.Decimal
	Vesting    ledger.Vesting

	// Owner is the only caller allowed to register pools.
	Owner string
	// Pools are registered on Start when missing or when their weight changed.
	Pools []*domain.PoolInfo

	// Clock stamps compound cycles. Defaults to the real clock.
	Clock clockwork.Clock
	// Recorder is optional.
	Recorder CycleRecorder
}

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	mu   sync.Mutex
	book *ledger.Book

	store        Committer
	storage      *persistence.Storage
	recorder     CycleRecorder
	closers      []func()
	farms        *farm.Registry
	governance   farm.Governance
	bonds        *bond.Handler
	orchestrator *compound.Orchestrator

	owner      string
	controller string
	pools      []*domain.PoolInfo
	cycles     map[string]*domain.CompoundResult
	clock      clockwork.Clock
}

// New builds a service outside the container.
func New(d Deps) (*Service, error) {
	svc := &Service{}
	if err := svc.init(d); err != nil {
		return nil, err
	}
	return svc, nil
}

func (svc *Service) init(d Deps) error {
	if d.Store == nil || d.Farms == nil || d.Governance == nil || d.AMM == nil {
		return errors.New("strategy service needs a store, farms, governance and amm")
	}
	orchestrator, err := compound.NewOrchestrator(d.Compound, d.Farms, d.Governance, d.AMM)
	if err != nil {
		return err
	}
	if d.Book == nil {
		d.Book = ledger.NewBook()
	}

	svc.logger = services.NewServiceLogger(svc)
	svc.book = d.Book
	svc.store = d.Store
	svc.farms = d.Farms
	svc.governance = d.Governance
	svc.bonds = bond.NewHandler(d.Farms, d.Governance, d.DepositFee, d.Vesting)
	svc.orchestrator = orchestrator
	svc.owner = d.Owner
	svc.controller = d.Compound.Controller
	svc.pools = d.Pools
	svc.cycles = make(map[string]*domain.CompoundResult)
	svc.recorder = d.Recorder
	svc.clock = d.Clock
	if svc.clock == nil {
		svc.clock = clockwork.NewRealClock()
	}
	return nil
}

func (svc *Service) ID() string {
	return STRATEGY_SERVICE
}

// Start registers the configured pools that are missing from the ledger or carry another weight.
func (svc *Service) Start() error {
	ctx := context.Background()
	for _, p := range svc.pools {
		existing, err := svc.Pool(p.Asset)
		if err == nil && existing.Weight == p.Weight && existing.Pair == p.Pair && existing.FarmKind == p.FarmKind {
			continue
		}
		if err := svc.RegisterPool(ctx, svc.owner, p); err != nil {
			svc.logger.Error().Err(err).Str("asset", p.Asset).Msg("failed to register configured pool")
			return err
		}
	}
	svc.logger.Info().
		Int("pools", len(svc.Pools())).
		Int("rewards", svc.rewardCount()).
		Msg("strategy started")
	return nil
}

func (svc *Service) Stop() error {
	for _, closeFn := range svc.closers {
		closeFn()
	}
	if svc.storage != nil {
		return svc.storage.Close()
	}
	return nil
}

// apply runs fn on a copy of the ledger and adopts the copy once its changes are committed.
func (svc *Service) apply(op string, fn func(book *ledger.Book) error) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	book := svc.book.Clone()
	if err := fn(book); err != nil {
		metrics.Operations.WithLabelValues(op, "error").Inc()
		return err
	}

	commitStart := time.Now()
	if err := svc.store.Commit(book.Changes()); err != nil {
		metrics.Operations.WithLabelValues(op, "error").Inc()
		svc.logger.Error().Err(err).Str("op", op).Msg("failed to commit ledger changes")
		return fmt.Errorf("commit %s: %w", op, err)
	}
	metrics.CommitDuration.Observe(time.Since(commitStart).Seconds())

	book.Rebase()
	svc.book = book
	metrics.Operations.WithLabelValues(op, "ok").Inc()
	svc.observeLedger()
	return nil
}

func (svc *Service) observeLedger() {
	metrics.PoolCount.Set(float64(len(svc.book.Pools())))
	metrics.RewardCount.Set(float64(svc.book.RewardCount()))
	metrics.TotalFarmShare.Set(fixedpoint.Float64(&svc.book.State.TotalFarmShare))
	metrics.Earning.Set(fixedpoint.Float64(&svc.book.State.Earning))
}

func (svc *Service) Bond(ctx context.Context, staker, asset string, amount *uint256.Int, compoundRate fixedpoint.Decimal) ([]domain.Action, error) {
	var actions []domain.Action
	err := svc.apply("bond", func(book *ledger.Book) (err error) {
		actions, err = svc.bonds.Bond(ctx, book, staker, asset, amount, compoundRate)
		return err
	})
	if err != nil {
		return nil, err
	}
	svc.logger.Info().Str("staker", staker).Str("asset", asset).Str("amount", amount.Dec()).Msg("bonded")
	return actions, nil
}

func (svc *Service) Unbond(ctx context.Context, staker, asset string, amount *uint256.Int) ([]domain.Action, error) {
	var actions []domain.Action
	err := svc.apply("unbond", func(book *ledger.Book) (err error) {
		actions, err = svc.bonds.Unbond(ctx, book, staker, asset, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	svc.logger.Info().Str("staker", staker).Str("asset", asset).Str("amount", amount.Dec()).Msg("unbonded")
	return actions, nil
}

// Withdraw pays out rewards for asset, or for every pool of the staker when asset is empty.
func (svc *Service) Withdraw(ctx context.Context, staker, asset string, height uint64) (*bond.Withdrawal, error) {
	var w *bond.Withdrawal
	err := svc.apply("withdraw", func(book *ledger.Book) (err error) {
		w, err = svc.bonds.Withdraw(ctx, book, staker, asset, height)
		return err
	})
	if err != nil {
		return nil, err
	}
	svc.logger.Info().
		Str("staker", staker).
		Str("farm_amount", w.FarmAmount.Dec()).
		Str("governance_amount", w.GovernanceAmount.Dec()).
		Msg("withdrew rewards")
	return w, nil
}

func (svc *Service) Compound(ctx context.Context, caller, asset string) (*domain.CompoundResult, error) {
	var result *domain.CompoundResult
	err := svc.apply("compound", func(book *ledger.Book) (err error) {
		result, err = svc.orchestrator.Compound(ctx, book, caller, asset)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.ID = uuid.New()
	result.At = svc.clock.Now()

	s := &result.Summary
	metrics.CompoundReward.WithLabelValues(asset).Set(fixedpoint.Float64(&s.Reward))
	metrics.CompoundCommission.WithLabelValues(asset).Add(fixedpoint.Float64(&s.Commission))
	metrics.CompoundActions.Observe(float64(len(result.Actions)))

	svc.mu.Lock()
	svc.cycles[asset] = result
	svc.mu.Unlock()
	if svc.recorder != nil {
		svc.recorder.RecordCycle(result)
	}

	logger := svc.logger.With("asset", asset)
	logger.Info().
		Str("cycle_id", result.ID.String()).
		Str("reward", s.Reward.Dec()).
		Str("commission", s.Commission.Dec()).
		Str("compound", s.CompoundAmount.Dec()).
		Str("stake", s.StakeAmount.Dec()).
		Int("actions", len(result.Actions)).
		Uint16("max_price_impact_bps", s.MaxPriceImpactBps).
		Msg("compounded")
	if severity := swap.GetPriceImpactSeverity(s.MaxPriceImpactBps); severity == swap.SeverityHigh || severity == swap.SeverityExtreme {
		logger.Warn().
			Str("severity", string(severity)).
			Uint16("price_impact_bps", s.MaxPriceImpactBps).
			Msg("compound swap moved the pool price")
	}
	return result, nil
}

// CompoundAll runs a cycle on every pool. A failing pool does not stop the others.
func (svc *Service) CompoundAll(ctx context.Context, caller string) ([]*domain.CompoundResult, error) {
	var (
		results []*domain.CompoundResult
		errs    []error
	)
	for _, p := range svc.Pools() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r, err := svc.Compound(ctx, caller, p.Asset)
		if err != nil {
			svc.logger.Warn().Err(err).Str("asset", p.Asset).Msg("compound failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Asset, err))
			continue
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}

// RegisterPool adds a pool or changes its weight. Only the owner may call it.
func (svc *Service) RegisterPool(ctx context.Context, caller string, pool *domain.PoolInfo) error {
	if svc.owner != "" && caller != svc.owner {
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller)
	}
	if pool.Asset == "" || pool.Pair == "" {
		return errors.New("pool asset and pair are required")
	}
	if _, err := svc.farms.ForPool(pool); err != nil {
		return err
	}

	err := svc.apply("register_pool", func(book *ledger.Book) error {
		staked, err := svc.governance.StakedShare(ctx)
		if err != nil {
			return fmt.Errorf("query staked governance share: %w", err)
		}
		principals := make(map[string]*uint256.Int)
		for _, p := range book.Pools() {
			f, err := svc.farms.ForPool(p)
			if err != nil {
				return err
			}
			principal, err := f.BondedPrincipal(ctx, p.Asset)
			if err != nil {
				return fmt.Errorf("query bonded principal of %s: %w", p.Asset, err)
			}
			principals[p.Asset] = principal
		}
		return ledger.RegisterPool(book, pool, &staked.Share, principals)
	})
	if err != nil {
		return err
	}
	svc.logger.Info().Str("asset", pool.Asset).Str("pair", pool.Pair).Uint32("weight", pool.Weight).Msg("registered pool")
	return nil
}

// RewardInfos previews the staker's positions as a withdrawal at height would see them.
func (svc *Service) RewardInfos(ctx context.Context, staker string, height uint64) ([]*bond.PositionView, error) {
	svc.mu.Lock()
	book := svc.book.Clone()
	svc.mu.Unlock()
	return svc.bonds.Preview(ctx, book, staker, height)
}

func (svc *Service) Pools() []*domain.PoolInfo {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	pools := svc.book.Pools()
	out := make([]*domain.PoolInfo, len(pools))
	for i, p := range pools {
		out[i] = p.Clone()
	}
	return out
}

func (svc *Service) Pool(asset string) (*domain.PoolInfo, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	p, err := svc.book.Pool(asset)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (svc *Service) State() domain.GlobalState {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.book.State
}

// LastCycles returns the most recent compound result of every pool, by asset.
func (svc *Service) LastCycles() []*domain.CompoundResult {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]*domain.CompoundResult, 0, len(svc.cycles))
	for _, r := range svc.cycles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// Now is the service clock. Heights default to its unix time.
func (svc *Service) Now() time.Time {
	return svc.clock.Now()
}

// Controller is the address compound cycles run as.
func (svc *Service) Controller() string {
	return svc.controller
}

func (svc *Service) rewardCount() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.book.RewardCount()
}
