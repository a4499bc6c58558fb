package wasm

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/farm"
)

type FarmConfig struct {
	Kind     domain.FarmKind
	Strategy string
	// Contract holds the bonded LP tokens and pays the rewards.
	Contract string
	// GovContract stakes the farm tokens the strategy keeps for fixed-stake holders.
	GovContract      string
	Token            string
	ProxyRewardToken string
}

// Farm implements farm.Farm for generator style (pending_token/deposit) and staking style
// (reward_info) farm contracts.
type Farm struct {
	client *Client
	cfg    FarmConfig
}

var _ farm.Farm = (*Farm)(nil)

func NewFarm(client *Client, cfg FarmConfig) *Farm {
	return &Farm{client: client, cfg: cfg}
}

type lpUserQuery struct {
	LpToken string `json:"lp_token"`
	User    string `json:"user"`
}

type rewardInfoQuery struct {
	StakerAddr string `json:"staker_addr"`
	AssetToken string `json:"asset_token,omitempty"`
}

type stakerInfoQuery struct {
	StakerAddr string `json:"staker_addr"`
}

type addressQuery struct {
	Address string `json:"address"`
}

func (f *Farm) rewardInfo(ctx context.Context, asset string) (*rewardInfo, error) {
	resp, err := query[rewardInfoResponse](ctx, f.client, f.cfg.Contract, map[string]any{
		"reward_info": rewardInfoQuery{StakerAddr: f.cfg.Strategy, AssetToken: asset},
	})
	if err != nil {
		return nil, err
	}
	for i := range resp.RewardInfos {
		if resp.RewardInfos[i].AssetToken == asset {
			return &resp.RewardInfos[i], nil
		}
	}
	return &rewardInfo{AssetToken: asset}, nil
}

func (f *Farm) PendingRewards(ctx context.Context, asset string) (*farm.Rewards, error) {
	r := &farm.Rewards{}
	if f.cfg.Kind == domain.FarmKindStaking {
		info, err := f.rewardInfo(ctx, asset)
		if err != nil {
			return nil, err
		}
		if err := info.PendingReward.parse("pending_reward", &r.Farm); err != nil {
			return nil, err
		}
		return r, nil
	}

	resp, err := query[pendingTokenResponse](ctx, f.client, f.cfg.Contract, map[string]any{
		"pending_token": lpUserQuery{LpToken: asset, User: f.cfg.Strategy},
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Pending.parse("pending", &r.Farm); err != nil {
		return nil, err
	}
	if resp.PendingOnProxy != nil && f.cfg.ProxyRewardToken != "" {
		if err := resp.PendingOnProxy.parse("pending_on_proxy", &r.Secondary); err != nil {
			return nil, err
		}
		r.SecondaryAsset = f.cfg.ProxyRewardToken
	}
	return r, nil
}

func (f *Farm) BondedPrincipal(ctx context.Context, asset string) (*uint256.Int, error) {
	out := new(uint256.Int)
	if f.cfg.Kind == domain.FarmKindStaking {
		info, err := f.rewardInfo(ctx, asset)
		if err != nil {
			return nil, err
		}
		return out, info.BondAmount.parse("bond_amount", out)
	}

	resp, err := query[Uint128](ctx, f.client, f.cfg.Contract, map[string]any{
		"deposit": lpUserQuery{LpToken: asset, User: f.cfg.Strategy},
	})
	if err != nil {
		return nil, err
	}
	return out, resp.parse("deposit", out)
}

func (f *Farm) FarmTokenStaked(ctx context.Context) (*uint256.Int, error) {
	if f.cfg.GovContract == "" {
		return nil, fmt.Errorf("farm %s has no gov contract", f.cfg.Contract)
	}
	out := new(uint256.Int)
	if f.cfg.Kind == domain.FarmKindStaking {
		resp, err := query[balanceResponse](ctx, f.client, f.cfg.GovContract, map[string]any{
			"balance": addressQuery{Address: f.cfg.Strategy},
		})
		if err != nil {
			return nil, err
		}
		return out, resp.Balance.parse("balance", out)
	}

	resp, err := query[stakerInfoResponse](ctx, f.client, f.cfg.GovContract, map[string]any{
		"staker_info": stakerInfoQuery{StakerAddr: f.cfg.Strategy},
	})
	if err != nil {
		return nil, err
	}
	return out, resp.BondAmount.parse("bond_amount", out)
}

func (f *Farm) FarmToken() string {
	return f.cfg.Token
}

func (f *Farm) ClaimAction(asset string) domain.Action {
	return domain.NewAction(domain.ActionClaim, f.cfg.Contract, domain.NewAssetAmount(asset, new(uint256.Int)))
}

func (f *Farm) StakeAction(asset string, amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionStakeLP, f.cfg.Contract, domain.NewAssetAmount(asset, amount))
}

func (f *Farm) UnstakeAction(asset string, amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionUnstakeLP, f.cfg.Contract, domain.NewAssetAmount(asset, amount))
}

func (f *Farm) StakeFarmTokenAction(amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionStake, f.cfg.GovContract, domain.NewAssetAmount(f.cfg.Token, amount))
}

func (f *Farm) WithdrawFarmTokenAction(amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionUnstake, f.cfg.GovContract, domain.NewAssetAmount(f.cfg.Token, amount))
}

func (f *Farm) SupportsFarmKind(kind domain.FarmKind) bool {
	return kind == f.cfg.Kind
}
