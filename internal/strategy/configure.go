package strategy

import (
	"fmt"

	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/compound-engine/internal/adapters/persistence"
	"github.com/hxuan190/compound-engine/internal/adapters/timeseries"
	"github.com/hxuan190/compound-engine/internal/adapters/wasm"
	"github.com/hxuan190/compound-engine/internal/config"
	"github.com/hxuan190/compound-engine/internal/services/compound"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

func (svc *Service) Configure(c container.IContainer) error {
	chainConf := c.GetConfig(config.CHAIN_CONFIG_KEY).(*config.ChainConfig)
	storageConf := c.GetConfig(config.STORAGE_CONFIG_KEY).(*config.StorageConfig)
	strategyConf := c.GetConfig(config.STRATEGY_CONFIG_KEY).(*config.StrategyConfig)

	compoundConf, err := CompoundConfig(strategyConf, chainConf.GovernanceContract)
	if err != nil {
		return err
	}

	storage, err := persistence.NewStorage(storageConf.DBPath)
	if err != nil {
		return err
	}
	book, err := storage.LoadBook()
	if err != nil {
		_ = storage.Close()
		return fmt.Errorf("load ledger: %w", err)
	}

	client := wasm.NewClient(chainConf.LCDUrl, chainConf.Timeout)
	farms, err := farm.NewRegistry(wasm.NewFarm(client, wasm.FarmConfig{
		Kind:             chainConf.FarmKind,
		Strategy:         chainConf.Strategy,
		Contract:         chainConf.FarmContract,
		GovContract:      chainConf.FarmGovContract,
		Token:            chainConf.FarmToken,
		ProxyRewardToken: chainConf.ProxyRewardToken,
	}))
	if err != nil {
		_ = storage.Close()
		return err
	}
	var recorder *timeseries.CycleRecorder
	if storageConf.InfluxURL != "" {
		recorder = timeseries.NewCycleRecorder(storageConf.InfluxURL, storageConf.InfluxToken, storageConf.InfluxOrg, storageConf.InfluxBucket)
	}
	fee := swap.Fee{Numerator: strategyConf.File.SwapFeeBps, Denominator: 10_000}

	if err := svc.init(Deps{
		Store:      storage,
		Book:       book,
		Farms:      farms,
		Governance: wasm.NewGovernance(client, chainConf.GovernanceContract, chainConf.GovernanceToken, chainConf.Strategy),
		AMM:        wasm.NewAMM(client, fee, chainConf.NativeDenoms...),
		Compound:   compoundConf,
		DepositFee: strategyConf.DepositFee,
		Vesting:    ledger.Vesting{Start: strategyConf.File.Vesting.Start, End: strategyConf.File.Vesting.End},
		Owner:      strategyConf.File.Owner,
		Pools:      strategyConf.Pools,
		Recorder:   recorderOrNil(recorder),
	}); err != nil {
		_ = storage.Close()
		return err
	}
	svc.storage = storage
	if recorder != nil {
		svc.closers = append(svc.closers, recorder.Close)
	}
	return nil
}

// recorderOrNil keeps a nil recorder from becoming a non-nil interface.
func recorderOrNil(r *timeseries.CycleRecorder) CycleRecorder {
	if r == nil {
		return nil
	}
	return r
}

// CompoundConfig converts the strategy file into the orchestrator's settings.
func CompoundConfig(sc *config.StrategyConfig, governanceContract string) (compound.Config, error) {
	mode, err := compound.ParseCommissionMode(sc.File.Commission.Mode)
	if err != nil {
		return compound.Config{}, err
	}

	cfg := compound.Config{
		Controller:         sc.File.Controller,
		Platform:           sc.File.Platform,
		CommunityFee:       sc.CommunityFee,
		PlatformFee:        sc.PlatformFee,
		ControllerFee:      sc.ControllerFee,
		GovernanceContract: governanceContract,
		ProtocolToken:      sc.File.Commission.ProtocolToken,
		ProtocolPair:       sc.File.Commission.ProtocolPair,
		Mode:               mode,
		Wrapper:            sc.File.Commission.Wrapper,
		WrapperToken:       sc.File.Commission.WrapperToken,
		WrapperRate:        sc.WrapperRate,
		SecondaryPairs:     sc.File.SecondaryPairs,
	}
	if !sc.TaxRate.IsZero() {
		assets := sc.File.Tax.Assets
		if len(assets) == 0 {
			assets = []string{sc.File.BaseAsset}
		}
		cfg.Tax = swap.NewProportionalTax(sc.TaxRate, &sc.TaxCap, assets...)
	}
	return cfg, cfg.Validate()
}
