package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"

	"github.com/hxuan190/compound-engine/internal/domain"
)

// ChainConfig points the engine at the LCD endpoint and the contracts it queries.
type ChainConfig struct {
	LCDUrl string
	// Strategy is the address the farm and governance contracts know the strategy by.
	Strategy string

	FarmKind        domain.FarmKind
	FarmContract    string
	FarmGovContract string
	FarmToken       string

	GovernanceContract string
	GovernanceToken    string

	// NativeDenoms are bank denominations; every other asset is a cw20 contract.
	NativeDenoms []string
	// ProxyRewardToken is the secondary emission paid by generator farms, if any.
	ProxyRewardToken string

	Timeout time.Duration
}

func (c *ChainConfig) Key() string {
	return CHAIN_CONFIG_KEY
}

func (c *ChainConfig) Load() error {
	c.LCDUrl = os.Getenv("LCD_URL")
	c.Strategy = os.Getenv("STRATEGY_ADDRESS")
	kind, ok := domain.ParseFarmKind(common.GetEnvOrDefault("FARM_KIND", "generator"))
	if !ok {
		return fmt.Errorf("invalid FARM_KIND %q", os.Getenv("FARM_KIND"))
	}
	c.FarmKind = kind
	c.FarmContract = os.Getenv("FARM_CONTRACT")
	c.FarmGovContract = os.Getenv("FARM_GOV_CONTRACT")
	c.FarmToken = os.Getenv("FARM_TOKEN")
	c.GovernanceContract = os.Getenv("GOVERNANCE_CONTRACT")
	c.GovernanceToken = os.Getenv("GOVERNANCE_TOKEN")
	c.NativeDenoms = strings.Split(common.GetEnvOrDefault("NATIVE_DENOMS", "uusd,uluna"), ",")
	c.ProxyRewardToken = os.Getenv("PROXY_REWARD_TOKEN")
	c.Timeout = time.Duration(common.GetEnvOrDefaultInt("LCD_TIMEOUT_SECONDS", 10)) * time.Second
	return c.Validate()
}

func (c *ChainConfig) Validate() error {
	if slices.Contains([]string{c.LCDUrl, c.Strategy, c.FarmContract, c.FarmToken, c.GovernanceContract, c.GovernanceToken}, "") {
		return errors.New("invalid chain config")
	}
	return nil
}
