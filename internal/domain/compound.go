package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// FeeShare is the slice of the converted commission paid to one recipient.
type FeeShare struct {
	Recipient string
	Amount    uint256.Int
}

// CompoundSummary reports the amounts one compound cycle worked with.
type CompoundSummary struct {
	Reward          uint256.Int
	SecondaryReward uint256.Int

	// Commission is the farm-token part of the reward kept as protocol fee.
	Commission     uint256.Int
	CompoundAmount uint256.Int
	StakeAmount    uint256.Int
	FarmShare      uint256.Int

	// CommissionBase is the commission after conversion to the base asset and tax.
	CommissionBase uint256.Int
	// ProtocolAmount is what CommissionBase bought: protocol tokens or wrapper units.
	ProtocolAmount uint256.Int
	Fees           []FeeShare

	ProvideFarm       uint256.Int
	ProvideBase       uint256.Int
	LPAmount          uint256.Int
	ReinvestAllowance uint256.Int
	DustBase          uint256.Int

	// MaxPriceImpactBps is the largest price impact of the swaps against the pool's own pair.
	MaxPriceImpactBps uint16
}

// CompoundResult is the outcome of one compound cycle on one pool.
type CompoundResult struct {
	ID      uuid.UUID
	Asset   string
	Caller  string
	At      time.Time
	Actions []Action
	Summary CompoundSummary
}
