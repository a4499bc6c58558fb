package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// PoolFile is one pool entry of the strategy file.
type PoolFile struct {
	Asset    string `yaml:"asset"`
	Pair     string `yaml:"pair"`
	FarmKind string `yaml:"farm_kind"`
	Weight   uint32 `yaml:"weight"`
}

// StrategyFile is the YAML layout of the strategy file. Rates and amounts are strings so they
// keep full precision.
type StrategyFile struct {
	Owner      string `yaml:"owner"`
	Controller string `yaml:"controller"`
	Platform   string `yaml:"platform"`
	BaseAsset  string `yaml:"base_asset"`

	Fees struct {
		Community  string `yaml:"community"`
		Platform   string `yaml:"platform"`
		Controller string `yaml:"controller"`
	} `yaml:"fees"`
	DepositFee string `yaml:"deposit_fee"`
	SwapFeeBps uint64 `yaml:"swap_fee_bps"`

	Commission struct {
		Mode          string `yaml:"mode"`
		ProtocolToken string `yaml:"protocol_token"`
		ProtocolPair  string `yaml:"protocol_pair"`
		Wrapper       string `yaml:"wrapper"`
		WrapperToken  string `yaml:"wrapper_token"`
		WrapperRate   string `yaml:"wrapper_rate"`
	} `yaml:"commission"`

	Tax struct {
		Rate   string   `yaml:"rate"`
		Cap    string   `yaml:"cap"`
		Assets []string `yaml:"assets"`
	} `yaml:"tax"`

	Vesting struct {
		Start uint64 `yaml:"start"`
		End   uint64 `yaml:"end"`
	} `yaml:"vesting"`

	Pools          []PoolFile        `yaml:"pools"`
	SecondaryPairs map[string]string `yaml:"secondary_pairs"`
}

// StrategyConfig is the parsed strategy file plus env overrides.
type StrategyConfig struct {
	Path string
	File StrategyFile

	CommunityFee  fixedpoint.Decimal
	PlatformFee   fixedpoint.Decimal
	ControllerFee fixedpoint.Decimal
	DepositFee    fixedpoint.Decimal
	WrapperRate   fixedpoint.Decimal
	TaxRate       fixedpoint.Decimal
	TaxCap        uint256.Int

	Pools []*domain.PoolInfo
}

func (c *StrategyConfig) Key() string {
	return STRATEGY_CONFIG_KEY
}

func (c *StrategyConfig) Load() error {
	c.Path = common.GetEnvOrDefault("STRATEGY_FILE", "./strategy.yaml")
	data, err := os.ReadFile(c.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read strategy file: %w", err)
	}
	if err := c.Parse(data); err != nil {
		return err
	}

	if v := os.Getenv("STRATEGY_OWNER"); v != "" {
		c.File.Owner = v
	}
	if v := os.Getenv("STRATEGY_CONTROLLER"); v != "" {
		c.File.Controller = v
	}
	if v := os.Getenv("STRATEGY_PLATFORM"); v != "" {
		c.File.Platform = v
	}
	return c.Validate()
}

// Parse decodes a strategy file and converts its rates and pools.
func (c *StrategyConfig) Parse(data []byte) error {
	c.File = StrategyFile{}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &c.File); err != nil {
			return fmt.Errorf("parse strategy file: %w", err)
		}
	}
	if c.File.SwapFeeBps == 0 {
		c.File.SwapFeeBps = 30
	}

	rates := []struct {
		name string
		src  string
		dst  *fixedpoint.Decimal
	}{
		{"fees.community", c.File.Fees.Community, &c.CommunityFee},
		{"fees.platform", c.File.Fees.Platform, &c.PlatformFee},
		{"fees.controller", c.File.Fees.Controller, &c.ControllerFee},
		{"deposit_fee", c.File.DepositFee, &c.DepositFee},
		{"commission.wrapper_rate", c.File.Commission.WrapperRate, &c.WrapperRate},
		{"tax.rate", c.File.Tax.Rate, &c.TaxRate},
	}
	for _, r := range rates {
		if r.src == "" {
			*r.dst = fixedpoint.ZeroDecimal()
			continue
		}
		v, err := fixedpoint.ParseDecimal(r.src)
		if err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}
		*r.dst = v
	}

	c.TaxCap.Clear()
	if c.File.Tax.Cap != "" {
		v, err := fixedpoint.ParseAmount(c.File.Tax.Cap)
		if err != nil {
			return fmt.Errorf("tax.cap: %w", err)
		}
		c.TaxCap.Set(v)
	}

	c.Pools = make([]*domain.PoolInfo, 0, len(c.File.Pools))
	for i, p := range c.File.Pools {
		kind, ok := domain.ParseFarmKind(p.FarmKind)
		if !ok {
			return fmt.Errorf("pools[%d]: unknown farm kind %q", i, p.FarmKind)
		}
		c.Pools = append(c.Pools, domain.NewPoolInfo(p.Asset, p.Pair, kind, p.Weight))
	}
	return nil
}

func (c *StrategyConfig) Validate() error {
	if c.File.BaseAsset == "" {
		return errors.New("strategy base_asset is required")
	}
	if c.DepositFee.Cmp(fixedpoint.OneDecimal()) >= 0 {
		return fmt.Errorf("deposit_fee %s must be below 1", c.DepositFee)
	}
	if c.File.SwapFeeBps >= 10_000 {
		return fmt.Errorf("swap_fee_bps %d must be below 10000", c.File.SwapFeeBps)
	}
	if c.File.Vesting.End != 0 && c.File.Vesting.End <= c.File.Vesting.Start {
		return fmt.Errorf("vesting end %d must be after start %d", c.File.Vesting.End, c.File.Vesting.Start)
	}
	seen := make(map[string]struct{}, len(c.Pools))
	for _, p := range c.Pools {
		if p.Asset == "" || p.Pair == "" {
			return errors.New("pool asset and pair are required")
		}
		if _, ok := seen[p.Asset]; ok {
			return fmt.Errorf("duplicate pool %s", p.Asset)
		}
		seen[p.Asset] = struct{}{}
	}
	return nil
}
