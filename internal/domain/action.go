package domain

import (
	"github.com/holiman/uint256"
)

type ActionKind string

const (
	ActionClaim             ActionKind = "claim"
	ActionSwap              ActionKind = "swap"
	ActionDepositWrapper    ActionKind = "deposit_wrapper"
	ActionMint              ActionKind = "mint"
	ActionTransfer          ActionKind = "transfer"
	ActionStake             ActionKind = "stake"
	ActionUnstake           ActionKind = "unstake"
	ActionIncreaseAllowance ActionKind = "increase_allowance"
	ActionProvideLiquidity  ActionKind = "provide_liquidity"
	ActionStakeLP           ActionKind = "stake_lp"
	ActionUnstakeLP         ActionKind = "unstake_lp"
)

type AssetAmount struct {
	Asset  string
	Amount uint256.Int
}

func NewAssetAmount(asset string, amount *uint256.Int) AssetAmount {
	a := AssetAmount{Asset: asset}
	a.Amount.Set(amount)
	return a
}

// Action is one external call the dispatcher executes. Actions are emitted in execution order.
type Action struct {
	Kind ActionKind
	// Contract is the contract the call is addressed to.
	Contract string
	Assets   []AssetAmount
	// Recipient receives the result of the call, when the call has one.
	Recipient string
}

func NewAction(kind ActionKind, contract string, assets ...AssetAmount) Action {
	return Action{Kind: kind, Contract: contract, Assets: assets}
}

func (a Action) WithRecipient(recipient string) Action {
	a.Recipient = recipient
	return a
}

// Amount returns the first asset amount, or zero.
func (a Action) Amount() *uint256.Int {
	if len(a.Assets) == 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(&a.Assets[0].Amount)
}

func Kinds(actions []Action) []ActionKind {
	kinds := make([]ActionKind, len(actions))
	for i, a := range actions {
		kinds[i] = a.Kind
	}
	return kinds
}
