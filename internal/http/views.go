package http

import (
	"time"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/bond"
)

// Amounts are rendered as base-10 strings and indices as decimal strings.

type AssetAmountView struct {
	Asset  string `json:"asset" example:"uusd"`
	Amount string `json:"amount" example:"1000000"`
}

type ActionView struct {
	Kind      string            `json:"kind" example:"provide_liquidity"`
	Contract  string            `json:"contract"`
	Assets    []AssetAmountView `json:"assets,omitempty"`
	Recipient string            `json:"recipient,omitempty"`
}

func actionViews(actions []domain.Action) []ActionView {
	out := make([]ActionView, len(actions))
	for i, a := range actions {
		v := ActionView{Kind: string(a.Kind), Contract: a.Contract, Recipient: a.Recipient}
		for _, asset := range a.Assets {
			v.Assets = append(v.Assets, AssetAmountView{Asset: asset.Asset, Amount: asset.Amount.Dec()})
		}
		out[i] = v
	}
	return out
}

type PoolView struct {
	Asset    string `json:"asset" example:"terra1lptoken"`
	Pair     string `json:"pair" example:"terra1pair"`
	FarmKind string `json:"farm_kind" example:"generator"`
	Weight   uint32 `json:"weight" example:"1"`

	TotalAutoBondShare   string `json:"total_auto_bond_share"`
	TotalStakeBondShare  string `json:"total_stake_bond_share"`
	TotalStakeBondAmount string `json:"total_stake_bond_amount"`

	FarmShareIndex            string `json:"farm_share_index"`
	AutoGovernanceShareIndex  string `json:"auto_governance_share_index"`
	StakeGovernanceShareIndex string `json:"stake_governance_share_index"`
	StateGovernanceShareIndex string `json:"state_governance_share_index"`

	FarmShare             string `json:"farm_share"`
	ReinvestAllowance     string `json:"reinvest_allowance"`
	ReinvestBaseAllowance string `json:"reinvest_base_allowance"`
}

func poolView(p *domain.PoolInfo) PoolView {
	return PoolView{
		Asset:                     p.Asset,
		Pair:                      p.Pair,
		FarmKind:                  p.FarmKind.String(),
		Weight:                    p.Weight,
		TotalAutoBondShare:        p.TotalAutoBondShare.Dec(),
		TotalStakeBondShare:       p.TotalStakeBondShare.Dec(),
		TotalStakeBondAmount:      p.TotalStakeBondAmount.Dec(),
		FarmShareIndex:            p.FarmShareIndex.String(),
		AutoGovernanceShareIndex:  p.AutoGovernanceShareIndex.String(),
		StakeGovernanceShareIndex: p.StakeGovernanceShareIndex.String(),
		StateGovernanceShareIndex: p.StateGovernanceShareIndex.String(),
		FarmShare:                 p.FarmShare.Dec(),
		ReinvestAllowance:         p.ReinvestAllowance.Dec(),
		ReinvestBaseAllowance:     p.ReinvestBaseAllowance.Dec(),
	}
}

type StateView struct {
	PreviousGovernanceShare string `json:"previous_governance_share"`
	GovernanceShareIndex    string `json:"governance_share_index"`
	TotalWeight             uint32 `json:"total_weight"`
	TotalFarmShare          string `json:"total_farm_share"`
	Earning                 string `json:"earning"`
}

func stateView(s domain.GlobalState) StateView {
	return StateView{
		PreviousGovernanceShare: s.PreviousGovernanceShare.Dec(),
		GovernanceShareIndex:    s.GovernanceShareIndex.String(),
		TotalWeight:             s.TotalWeight,
		TotalFarmShare:          s.TotalFarmShare.Dec(),
		Earning:                 s.Earning.Dec(),
	}
}

type FeeShareView struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type CompoundView struct {
	ID     string    `json:"id" example:"7b0c4d0e-4f3a-4b8e-9a57-2f1d5c3e8a11"`
	Asset  string    `json:"asset"`
	Caller string    `json:"caller"`
	At     time.Time `json:"at"`

	Reward            string         `json:"reward"`
	SecondaryReward   string         `json:"secondary_reward"`
	Commission        string         `json:"commission"`
	CompoundAmount    string         `json:"compound_amount"`
	StakeAmount       string         `json:"stake_amount"`
	FarmShare         string         `json:"farm_share"`
	CommissionBase    string         `json:"commission_base"`
	ProtocolAmount    string         `json:"protocol_amount"`
	Fees              []FeeShareView `json:"fees,omitempty"`
	ProvideFarm       string         `json:"provide_farm"`
	ProvideBase       string         `json:"provide_base"`
	LPAmount          string         `json:"lp_amount"`
	ReinvestAllowance string         `json:"reinvest_allowance"`
	DustBase          string         `json:"dust_base"`
	MaxPriceImpactBps uint16         `json:"max_price_impact_bps"`

	Actions []ActionView `json:"actions"`
}

func compoundView(r *domain.CompoundResult) CompoundView {
	s := &r.Summary
	v := CompoundView{
		ID:                r.ID.String(),
		Asset:             r.Asset,
		Caller:            r.Caller,
		At:                r.At,
		Reward:            s.Reward.Dec(),
		SecondaryReward:   s.SecondaryReward.Dec(),
		Commission:        s.Commission.Dec(),
		CompoundAmount:    s.CompoundAmount.Dec(),
		StakeAmount:       s.StakeAmount.Dec(),
		FarmShare:         s.FarmShare.Dec(),
		CommissionBase:    s.CommissionBase.Dec(),
		ProtocolAmount:    s.ProtocolAmount.Dec(),
		ProvideFarm:       s.ProvideFarm.Dec(),
		ProvideBase:       s.ProvideBase.Dec(),
		LPAmount:          s.LPAmount.Dec(),
		ReinvestAllowance: s.ReinvestAllowance.Dec(),
		DustBase:          s.DustBase.Dec(),
		MaxPriceImpactBps: s.MaxPriceImpactBps,
		Actions:           actionViews(r.Actions),
	}
	for _, f := range s.Fees {
		v.Fees = append(v.Fees, FeeShareView{Recipient: f.Recipient, Amount: f.Amount.Dec()})
	}
	return v
}

// PositionView is one staked position with the rewards a withdrawal would pay out.
type PositionView struct {
	Asset string `json:"asset"`

	BondAmount      string `json:"bond_amount"`
	AutoBondAmount  string `json:"auto_bond_amount"`
	StakeBondAmount string `json:"stake_bond_amount"`

	FarmShareIndex            string `json:"farm_share_index"`
	AutoGovernanceShareIndex  string `json:"auto_governance_share_index"`
	StakeGovernanceShareIndex string `json:"stake_governance_share_index"`

	FarmShare         string `json:"farm_share"`
	PendingFarmReward string `json:"pending_farm_reward"`

	GovernanceShare         string `json:"governance_share"`
	PendingGovernanceReward string `json:"pending_governance_reward"`
	LockedGovernanceReward  string `json:"locked_governance_reward"`
}

func positionViews(positions []*bond.PositionView) []PositionView {
	out := make([]PositionView, len(positions))
	for i, p := range positions {
		out[i] = PositionView{
			Asset:                     p.Asset,
			BondAmount:                p.BondAmount.Dec(),
			AutoBondAmount:            p.AutoBondAmount.Dec(),
			StakeBondAmount:           p.StakeBondAmount.Dec(),
			FarmShareIndex:            p.FarmShareIndex.String(),
			AutoGovernanceShareIndex:  p.AutoGovernanceShareIndex.String(),
			StakeGovernanceShareIndex: p.StakeGovernanceShareIndex.String(),
			FarmShare:                 p.FarmShare.Dec(),
			PendingFarmReward:         p.PendingFarmReward.Dec(),
			GovernanceShare:           p.GovernanceShare.Dec(),
			PendingGovernanceReward:   p.PendingGovernanceReward.Dec(),
			LockedGovernanceReward:    p.LockedGovernanceReward.Dec(),
		}
	}
	return out
}

type WithdrawalView struct {
	FarmAmount       string       `json:"farm_amount"`
	GovernanceAmount string       `json:"governance_amount"`
	LockedGovernance string       `json:"locked_governance"`
	Actions          []ActionView `json:"actions"`
}

func withdrawalView(w *bond.Withdrawal) WithdrawalView {
	return WithdrawalView{
		FarmAmount:       w.FarmAmount.Dec(),
		GovernanceAmount: w.GovernanceAmount.Dec(),
		LockedGovernance: w.LockedGovernance.Dec(),
		Actions:          actionViews(w.Actions),
	}
}
