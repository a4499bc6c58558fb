package persistence

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// Amounts are stored as base-10 integers and indices as decimals with up to 18 fractional digits.

type StoredState struct {
	PreviousGovernanceShare string `json:"previousGovernanceShare"`
	GovernanceShareIndex    string `json:"governanceShareIndex"`
	TotalWeight             uint32 `json:"totalWeight"`
	TotalFarmShare          string `json:"totalFarmShare"`
	Earning                 string `json:"earning"`
}

type StoredPool struct {
	Asset    string `json:"asset"`
	Pair     string `json:"pair"`
	FarmKind string `json:"farmKind"`
	Weight   uint32 `json:"weight"`

	TotalAutoBondShare   string `json:"totalAutoBondShare"`
	TotalStakeBondShare  string `json:"totalStakeBondShare"`
	TotalStakeBondAmount string `json:"totalStakeBondAmount"`

	FarmShareIndex            string `json:"farmShareIndex"`
	AutoGovernanceShareIndex  string `json:"autoGovernanceShareIndex"`
	StakeGovernanceShareIndex string `json:"stakeGovernanceShareIndex"`
	StateGovernanceShareIndex string `json:"stateGovernanceShareIndex"`

	FarmShare         string `json:"farmShare"`
	ReinvestAllowance string `json:"reinvestAllowance"`
	// ReinvestBaseAllowance is absent from records written before it existed.
	ReinvestBaseAllowance string `json:"reinvestBaseAllowance,omitempty"`
}

type StoredReward struct {
	Staker string `json:"staker"`
	Asset  string `json:"asset"`

	AutoBondShare  string `json:"autoBondShare"`
	StakeBondShare string `json:"stakeBondShare"`

	FarmShareIndex            string `json:"farmShareIndex"`
	AutoGovernanceShareIndex  string `json:"autoGovernanceShareIndex"`
	StakeGovernanceShareIndex string `json:"stakeGovernanceShareIndex"`

	FarmShare            string `json:"farmShare"`
	GovernanceShare      string `json:"governanceShare"`
	AccumGovernanceShare string `json:"accumGovernanceShare"`
}

// decoder collects the first parse failure so record conversion reads as a flat list of fields.
type decoder struct {
	err error
}

func (d *decoder) amount(field, s string, dst *uint256.Int) {
	if d.err != nil {
		return
	}
	v, err := fixedpoint.ParseAmount(s)
	if err != nil {
		d.err = fmt.Errorf("invalid %s: %w", field, err)
		return
	}
	dst.Set(v)
}

func (d *decoder) index(field, s string, dst *fixedpoint.Decimal) {
	if d.err != nil {
		return
	}
	if s == "" {
		*dst = fixedpoint.ZeroDecimal()
		return
	}
	v, err := fixedpoint.ParseDecimal(s)
	if err != nil {
		d.err = fmt.Errorf("invalid %s: %w", field, err)
		return
	}
	*dst = v
}

func stateToStored(s *domain.GlobalState) *StoredState {
	return &StoredState{
		PreviousGovernanceShare: s.PreviousGovernanceShare.Dec(),
		GovernanceShareIndex:    s.GovernanceShareIndex.String(),
		TotalWeight:             s.TotalWeight,
		TotalFarmShare:          s.TotalFarmShare.Dec(),
		Earning:                 s.Earning.Dec(),
	}
}

func storedToState(stored *StoredState) (*domain.GlobalState, error) {
	s := &domain.GlobalState{TotalWeight: stored.TotalWeight}
	var d decoder
	d.amount("previousGovernanceShare", stored.PreviousGovernanceShare, &s.PreviousGovernanceShare)
	d.index("governanceShareIndex", stored.GovernanceShareIndex, &s.GovernanceShareIndex)
	d.amount("totalFarmShare", stored.TotalFarmShare, &s.TotalFarmShare)
	d.amount("earning", stored.Earning, &s.Earning)
	if d.err != nil {
		return nil, d.err
	}
	return s, nil
}

func poolToStored(p *domain.PoolInfo) *StoredPool {
	return &StoredPool{
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

func storedToPool(stored *StoredPool) (*domain.PoolInfo, error) {
	if stored.Asset == "" {
		return nil, fmt.Errorf("missing asset")
	}
	kind, ok := domain.ParseFarmKind(stored.FarmKind)
	if !ok {
		return nil, fmt.Errorf("unknown farm kind %q", stored.FarmKind)
	}
	p := domain.NewPoolInfo(stored.Asset, stored.Pair, kind, stored.Weight)
	var d decoder
	d.amount("totalAutoBondShare", stored.TotalAutoBondShare, &p.TotalAutoBondShare)
	d.amount("totalStakeBondShare", stored.TotalStakeBondShare, &p.TotalStakeBondShare)
	d.amount("totalStakeBondAmount", stored.TotalStakeBondAmount, &p.TotalStakeBondAmount)
	d.index("farmShareIndex", stored.FarmShareIndex, &p.FarmShareIndex)
	d.index("autoGovernanceShareIndex", stored.AutoGovernanceShareIndex, &p.AutoGovernanceShareIndex)
	d.index("stakeGovernanceShareIndex", stored.StakeGovernanceShareIndex, &p.StakeGovernanceShareIndex)
	d.index("stateGovernanceShareIndex", stored.StateGovernanceShareIndex, &p.StateGovernanceShareIndex)
	d.amount("farmShare", stored.FarmShare, &p.FarmShare)
	d.amount("reinvestAllowance", stored.ReinvestAllowance, &p.ReinvestAllowance)
	if stored.ReinvestBaseAllowance != "" {
		d.amount("reinvestBaseAllowance", stored.ReinvestBaseAllowance, &p.ReinvestBaseAllowance)
	}
	if d.err != nil {
		return nil, d.err
	}
	return p, nil
}

func rewardToStored(r *domain.RewardInfo) *StoredReward {
	return &StoredReward{
		Staker:                    r.Staker,
		Asset:                     r.Asset,
		AutoBondShare:             r.AutoBondShare.Dec(),
		StakeBondShare:            r.StakeBondShare.Dec(),
		FarmShareIndex:            r.FarmShareIndex.String(),
		AutoGovernanceShareIndex:  r.AutoGovernanceShareIndex.String(),
		StakeGovernanceShareIndex: r.StakeGovernanceShareIndex.String(),
		FarmShare:                 r.FarmShare.Dec(),
		GovernanceShare:           r.GovernanceShare.Dec(),
		AccumGovernanceShare:      r.AccumGovernanceShare.Dec(),
	}
}

func storedToReward(stored *StoredReward) (*domain.RewardInfo, error) {
	if stored.Staker == "" || stored.Asset == "" {
		return nil, fmt.Errorf("missing staker or asset")
	}
	r := &domain.RewardInfo{Staker: stored.Staker, Asset: stored.Asset}
	var d decoder
	d.amount("autoBondShare", stored.AutoBondShare, &r.AutoBondShare)
	d.amount("stakeBondShare", stored.StakeBondShare, &r.StakeBondShare)
	d.index("farmShareIndex", stored.FarmShareIndex, &r.FarmShareIndex)
	d.index("autoGovernanceShareIndex", stored.AutoGovernanceShareIndex, &r.AutoGovernanceShareIndex)
	d.index("stakeGovernanceShareIndex", stored.StakeGovernanceShareIndex, &r.StakeGovernanceShareIndex)
	d.amount("farmShare", stored.FarmShare, &r.FarmShare)
	d.amount("governanceShare", stored.GovernanceShare, &r.GovernanceShare)
	d.amount("accumGovernanceShare", stored.AccumGovernanceShare, &r.AccumGovernanceShare)
	if d.err != nil {
		return nil, d.err
	}
	return r, nil
}
