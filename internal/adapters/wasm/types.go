package wasm

type tokenInfo struct {
	ContractAddr string `json:"contract_addr"`
}

type nativeInfo struct {
	Denom string `json:"denom"`
}

type assetInfo struct {
	Token       *tokenInfo  `json:"token,omitempty"`
	NativeToken *nativeInfo `json:"native_token,omitempty"`
}

func (a assetInfo) name() string {
	switch {
	case a.Token != nil:
		return a.Token.ContractAddr
	case a.NativeToken != nil:
		return a.NativeToken.Denom
	default:
		return ""
	}
}

type asset struct {
	Info   assetInfo `json:"info"`
	Amount Uint128   `json:"amount"`
}

type poolResponse struct {
	Assets     [2]asset `json:"assets"`
	TotalShare Uint128  `json:"total_share"`
}

type simulationResponse struct {
	ReturnAmount     Uint128 `json:"return_amount"`
	SpreadAmount     Uint128 `json:"spread_amount"`
	CommissionAmount Uint128 `json:"commission_amount"`
}

// generator farms

type pendingTokenResponse struct {
	Pending        Uint128  `json:"pending"`
	PendingOnProxy *Uint128 `json:"pending_on_proxy"`
}

type stakerInfoResponse struct {
	BondAmount Uint128 `json:"bond_amount"`
}

// staking farms

type rewardInfo struct {
	AssetToken    string  `json:"asset_token"`
	BondAmount    Uint128 `json:"bond_amount"`
	PendingReward Uint128 `json:"pending_reward"`
}

type rewardInfoResponse struct {
	StakerAddr  string       `json:"staker_addr"`
	RewardInfos []rewardInfo `json:"reward_infos"`
}

// governance

type balanceResponse struct {
	Balance Uint128 `json:"balance"`
	Share   Uint128 `json:"share"`
}

type stateResponse struct {
	TotalShare   Uint128 `json:"total_share"`
	TotalBalance Uint128 `json:"total_balance"`
}
