package wasm

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/services/farm"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

// AMM reads constant-product pair contracts.
type AMM struct {
	client  *Client
	fee     swap.Fee
	natives map[string]struct{}
}

var _ farm.AMM = (*AMM)(nil)

func NewAMM(client *Client, fee swap.Fee, nativeDenoms ...string) *AMM {
	natives := make(map[string]struct{}, len(nativeDenoms))
	for _, d := range nativeDenoms {
		if d != "" {
			natives[d] = struct{}{}
		}
	}
	return &AMM{client: client, fee: fee, natives: natives}
}

func (a *AMM) infoFor(name string) assetInfo {
	if _, ok := a.natives[name]; ok {
		return assetInfo{NativeToken: &nativeInfo{Denom: name}}
	}
	return assetInfo{Token: &tokenInfo{ContractAddr: name}}
}

func (a *AMM) PoolReserves(ctx context.Context, pair string) (*farm.Reserves, error) {
	resp, err := query[poolResponse](ctx, a.client, pair, map[string]any{
		"pool": struct{}{},
	})
	if err != nil {
		return nil, err
	}

	r := &farm.Reserves{
		AssetA: resp.Assets[0].Info.name(),
		AssetB: resp.Assets[1].Info.name(),
		Fee:    a.fee,
	}
	if r.AssetA == "" || r.AssetB == "" {
		return nil, fmt.Errorf("pair %s answered without asset info", pair)
	}
	if err := resp.Assets[0].Amount.parse("assets[0].amount", &r.A); err != nil {
		return nil, err
	}
	if err := resp.Assets[1].Amount.parse("assets[1].amount", &r.B); err != nil {
		return nil, err
	}
	if err := resp.TotalShare.parse("total_share", &r.TotalShare); err != nil {
		return nil, err
	}
	return r, nil
}

func (a *AMM) SimulateSwap(ctx context.Context, pair, offerAsset string, amount *uint256.Int) (*farm.Simulation, error) {
	resp, err := query[simulationResponse](ctx, a.client, pair, map[string]any{
		"simulation": map[string]any{
			"offer_asset": asset{Info: a.infoFor(offerAsset), Amount: Uint128(amount.Dec())},
		},
	})
	if err != nil {
		return nil, err
	}

	s := &farm.Simulation{}
	if err := resp.ReturnAmount.parse("return_amount", &s.Return); err != nil {
		return nil, err
	}
	if err := resp.CommissionAmount.parse("commission_amount", &s.Commission); err != nil {
		return nil, err
	}
	return s, nil
}
