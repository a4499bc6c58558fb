// Package keeper runs compound cycles on every pool on a cron schedule.
package keeper

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/compound-engine/internal/config"
	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/metrics"
	"github.com/hxuan190/compound-engine/internal/services"
	"github.com/hxuan190/compound-engine/internal/strategy"
)

const KEEPER_SERVICE = "keeper-service"

// Compounder is the part of the strategy service the keeper drives.
type Compounder interface {
	CompoundAll(ctx context.Context, caller string) ([]*domain.CompoundResult, error)
	Controller() string
}

type Keeper struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	conf       *config.KeeperConfig
	compounder Compounder
	cron       *cron.Cron

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.Mutex
	timeout time.Duration
}

func New(conf *config.KeeperConfig, compounder Compounder) *Keeper {
	k := &Keeper{}
	k.init(conf, compounder)
	return k
}

func (k *Keeper) init(conf *config.KeeperConfig, compounder Compounder) {
	k.logger = services.NewServiceLogger(k)
	k.conf = conf
	k.compounder = compounder
	k.cron = cron.New(cron.WithSeconds())
	k.ctx, k.cancel = context.WithCancel(context.Background())
	k.timeout = 5 * time.Minute
}

func (k *Keeper) ID() string {
	return KEEPER_SERVICE
}

func (k *Keeper) Configure(c container.IContainer) error {
	conf := c.GetConfig(config.KEEPER_CONFIG_KEY).(*config.KeeperConfig)
	svc := c.Instance(strategy.STRATEGY_SERVICE).(*strategy.Service)
	k.init(conf, svc)
	return nil
}

func (k *Keeper) Start() error {
	if !k.conf.Enabled {
		k.logger.Info().Msg("keeper disabled")
		return nil
	}
	if _, err := k.cron.AddFunc(k.conf.Schedule, k.RunOnce); err != nil {
		return err
	}
	k.cron.Start()
	k.logger.Info().Str("schedule", k.conf.Schedule).Msg("keeper started")

	if k.conf.RunOnStart {
		go k.RunOnce()
	}
	return nil
}

func (k *Keeper) Stop() error {
	k.cancel()
	<-k.cron.Stop().Done()
	k.logger.Info().Msg("keeper stopped")
	return nil
}

// RunOnce compounds every pool as the controller. A run that finds the previous one still going
// is skipped.
func (k *Keeper) RunOnce() {
	if !k.running.TryLock() {
		metrics.KeeperRuns.WithLabelValues("skipped").Inc()
		k.logger.Warn().Msg("previous compound run still in progress, skipping")
		return
	}
	defer k.running.Unlock()

	ctx, cancel := context.WithTimeout(k.ctx, k.timeout)
	defer cancel()

	start := time.Now()
	results, err := k.compounder.CompoundAll(ctx, k.compounder.Controller())
	if err != nil {
		metrics.KeeperRuns.WithLabelValues("error").Inc()
		k.logger.Error().Err(err).Int("compounded", len(results)).Msg("compound run finished with errors")
		return
	}
	metrics.KeeperRuns.WithLabelValues("ok").Inc()
	k.logger.Info().
		Int("compounded", len(results)).
		Dur("took", time.Since(start)).
		Msg("compound run finished")
}
