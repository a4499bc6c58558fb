package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/compound-engine/internal/common"
	"github.com/hxuan190/compound-engine/internal/config"
	"github.com/hxuan190/compound-engine/internal/http"
	"github.com/hxuan190/compound-engine/internal/keeper"
	"github.com/hxuan190/compound-engine/internal/strategy"
)

// @title Compound Engine API
// @version 1.0
// @description Reward ledger and compound orchestrator for an auto-compounding yield farming strategy.
// @description
// @description ## - Features
// @description - **Reward Ledger**: Per-pool share indices for farm and governance rewards
// @description - **Compounding**: Claims farm rewards, takes the protocol commission and re-provides liquidity
// @description - **Bonding**: Auto-compound and stake positions with linear governance reward vesting
// @description
// @description ## - Usage Tips
// @description - Amounts are base-10 strings in the smallest unit of the asset
// @description - Admin routes need the `X-Admin-Key` header and act as the address in `X-Caller`
// @description - Compound cycles run on the keeper schedule and can also be triggered by the controller
// @BasePath /
// @schemes https http
// @tag.name pools
// @tag.description Registered pools and their reward indices
// @tag.name strategy
// @tag.description Global ledger state and recent compound cycles
// @tag.name rewards
// @tag.description Staker positions and pending rewards
// @tag.name admin
// @tag.description Ledger operations, guarded by the admin key

func main() {
	envFileFlag := flag.String("env-file", ".env", "Env file to load before reading the config")
	strategyFileFlag := flag.String("strategy-file", "", "Strategy YAML file (or set STRATEGY_FILE env var)")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	flag.Parse()

	if err := godotenv.Load(*envFileFlag); err != nil && !os.IsNotExist(err) {
		log.Error().Err(err).Str("file", *envFileFlag).Msg("failed to load env")
		return
	}
	if *strategyFileFlag != "" {
		_ = os.Setenv("STRATEGY_FILE", *strategyFileFlag)
	}

	common.InitRuntime()
	logLevel := os.Getenv("LOG_LEVEL")
	if *verboseFlag {
		logLevel = "debug"
	}
	common.InitLogger(logLevel)

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.StorageConfig{},
		&config.ChainConfig{},
		&config.StrategyConfig{},
		&config.KeeperConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&strategy.Service{},
		&keeper.Keeper{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Run blocks until SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
