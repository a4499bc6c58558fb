package wasm

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/domain"
	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/ledger"
)

type Governance struct {
	client   *Client
	contract string
	token    string
	strategy string
}

var _ farm.Governance = (*Governance)(nil)

func NewGovernance(client *Client, contract, token, strategy string) *Governance {
	return &Governance{client: client, contract: contract, token: token, strategy: strategy}
}

func (g *Governance) StakedShare(ctx context.Context) (*ledger.StakedShare, error) {
	balance, err := query[balanceResponse](ctx, g.client, g.contract, map[string]any{
		"balance": addressQuery{Address: g.strategy},
	})
	if err != nil {
		return nil, err
	}
	state, err := query[stateResponse](ctx, g.client, g.contract, map[string]any{
		"state": struct{}{},
	})
	if err != nil {
		return nil, err
	}

	s := &ledger.StakedShare{}
	if err := balance.Share.parse("share", &s.Share); err != nil {
		return nil, err
	}
	if err := state.TotalShare.parse("total_share", &s.TotalShare); err != nil {
		return nil, err
	}
	if err := state.TotalBalance.parse("total_balance", &s.TotalBalance); err != nil {
		return nil, err
	}
	return s, nil
}

func (g *Governance) Token() string {
	return g.token
}

func (g *Governance) WithdrawAction(amount *uint256.Int) domain.Action {
	return domain.NewAction(domain.ActionUnstake, g.contract, domain.NewAssetAmount(g.token, amount))
}
