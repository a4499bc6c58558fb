package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

const strategyYAML = `
owner: owner
controller: keeper
platform: platform
base_asset: uusd
fees:
  community: "0.01"
  platform: "0.02"
  controller: "0.03"
deposit_fee: "0.001"
commission:
  mode: protocol
  protocol_token: gov-token
  protocol_pair: gov-pair
tax:
  rate: "0.005"
  cap: "1400000"
  assets: [uusd]
vesting:
  start: 100
  end: 200
pools:
  - asset: lp-a
    pair: pair-a
    farm_kind: staking
    weight: 3
  - asset: lp-b
    pair: pair-b
    farm_kind: generator
    weight: 1
secondary_pairs:
  astro: astro-pair
`

func TestStrategyConfigParse(t *testing.T) {
	var c StrategyConfig
	require.NoError(t, c.Parse([]byte(strategyYAML)))
	require.NoError(t, c.Validate())

	require.Equal(t, "keeper", c.File.Controller)
	require.Equal(t, fixedpoint.MustParseDecimal("0.02"), c.PlatformFee)
	require.Equal(t, fixedpoint.MustParseDecimal("0.001"), c.DepositFee)
	require.True(t, c.WrapperRate.IsZero())
	require.Equal(t, "1400000", c.TaxCap.Dec())
	require.Equal(t, uint64(30), c.File.SwapFeeBps)
	require.Equal(t, "astro-pair", c.File.SecondaryPairs["astro"])

	require.Len(t, c.Pools, 2)
	require.Equal(t, domain.FarmKindStaking, c.Pools[0].FarmKind)
	require.Equal(t, uint32(3), c.Pools[0].Weight)
	require.Equal(t, domain.FarmKindGenerator, c.Pools[1].FarmKind)
}

func TestStrategyConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		parse   bool
		wantErr string
	}{
		{"bad rate", "base_asset: uusd\nfees:\n  community: abc\n", true, "fees.community"},
		{"bad farm kind", "base_asset: uusd\npools:\n  - {asset: a, pair: p, farm_kind: lending}\n", true, "unknown farm kind"},
		{"missing base asset", "owner: o\n", false, "base_asset"},
		{"deposit fee too high", "base_asset: uusd\ndeposit_fee: \"1\"\n", false, "deposit_fee"},
		{"vesting backwards", "base_asset: uusd\nvesting: {start: 5, end: 4}\n", false, "vesting"},
		{"duplicate pool", "base_asset: uusd\npools:\n  - {asset: a, pair: p, farm_kind: staking}\n  - {asset: a, pair: q, farm_kind: staking}\n", false, "duplicate pool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c StrategyConfig
			err := c.Parse([]byte(tt.yaml))
			if tt.parse {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.ErrorContains(t, c.Validate(), tt.wantErr)
		})
	}
}

func TestKeeperConfigValidate(t *testing.T) {
	require.NoError(t, (&KeeperConfig{Enabled: true, Schedule: "0 0 */6 * * *"}).Validate())
	require.NoError(t, (&KeeperConfig{Enabled: true, Schedule: "@every 1h"}).Validate())
	require.Error(t, (&KeeperConfig{Enabled: true, Schedule: "every hour"}).Validate())
	require.NoError(t, (&KeeperConfig{Enabled: false, Schedule: "bogus"}).Validate())
}
