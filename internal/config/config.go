package config

import (
	"errors"
	"fmt"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/rs/zerolog/log"
)

type ServerEnv = string

var (
	DevEnv     ServerEnv = "dev"
	StagingEnv ServerEnv = "staging"
	ProdEnv    ServerEnv = "prod"
)

const (
	GENERAL_CONFIG_KEY  = "general-config"
	STORAGE_CONFIG_KEY  = "storage-config"
	CHAIN_CONFIG_KEY    = "chain-config"
	STRATEGY_CONFIG_KEY = "strategy-config"
	KEEPER_CONFIG_KEY   = "keeper-config"
)

type GeneralConfig struct {
	HTTPPort string
	HTTPHost string
	Env      string
	LogLevel string
	// AdminKey guards the admin routes. Empty disables them.
	AdminKey string
}

func (gc *GeneralConfig) Key() string {
	return GENERAL_CONFIG_KEY
}

func (gc *GeneralConfig) Load() error {
	gc.HTTPPort = common.GetEnvOrDefault("HTTP_PORT", "8080")
	gc.HTTPHost = common.GetEnvOrDefault("HTTP_HOST", "localhost")
	gc.Env = common.GetEnvOrDefault("ENV", "dev")
	gc.LogLevel = common.GetEnvOrDefault("LOG_LEVEL", "INFO")
	gc.AdminKey = common.GetEnvOrDefault("ADMIN_KEY", "")
	return gc.Validate()
}

func (gc *GeneralConfig) Validate() error {
	if gc.HTTPPort == "" || gc.HTTPHost == "" {
		return errors.New("invalid server config")
	}
	switch gc.Env {
	case DevEnv, StagingEnv, ProdEnv:
	default:
		return fmt.Errorf("unknown ENV %q", gc.Env)
	}
	if gc.Env == ProdEnv && gc.AdminKey == "" {
		log.Warn().Msg("ADMIN_KEY is empty, admin routes are disabled")
	}
	return nil
}
