package compound

import (
	"errors"
	"fmt"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
	"github.com/hxuan190/compound-engine/internal/services/swap"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoRoute       = errors.New("no swap route for reward")
	ErrInvalidConfig = errors.New("invalid compound config")
)

// CommissionMode selects what the commission is converted into.
type CommissionMode uint8

const (
	// CommissionProtocol swaps the commission to the protocol token and mints.
	CommissionProtocol CommissionMode = iota
	// CommissionWrapper deposits the commission into a yield-bearing wrapper.
	CommissionWrapper
)

func (m CommissionMode) String() string {
	switch m {
	case CommissionProtocol:
		return "protocol"
	case CommissionWrapper:
		return "wrapper"
	default:
		return "UNKNOWN"
	}
}

func ParseCommissionMode(s string) (CommissionMode, error) {
	switch s {
	case "", "protocol":
		return CommissionProtocol, nil
	case "wrapper":
		return CommissionWrapper, nil
	default:
		return 0, fmt.Errorf("%w: commission mode %q", ErrInvalidConfig, s)
	}
}

type Config struct {
	// Controller is the only caller allowed to compound. Empty allows anyone.
	Controller string
	Platform   string

	CommunityFee  fixedpoint.Decimal
	PlatformFee   fixedpoint.Decimal
	ControllerFee fixedpoint.Decimal

	// GovernanceContract mints protocol tokens, holds the community pool and takes fee stakes.
	GovernanceContract string
	ProtocolToken      string
	// ProtocolPair trades the base asset against the protocol token.
	ProtocolPair string

	Mode         CommissionMode
	Wrapper      string
	WrapperToken string
	// WrapperRate is the base-asset value of one wrapper unit.
	WrapperRate fixedpoint.Decimal

	// SecondaryPairs maps a secondary reward asset to the pair selling it for the base asset.
	SecondaryPairs map[string]string

	Tax swap.TaxPolicy
}

func (c *Config) TotalFee() (fixedpoint.Decimal, error) {
	total, err := c.CommunityFee.Add(c.PlatformFee)
	if err != nil {
		return total, err
	}
	return total.Add(c.ControllerFee)
}

func (c *Config) Validate() error {
	total, err := c.TotalFee()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if total.Cmp(fixedpoint.OneDecimal()) >= 0 {
		return fmt.Errorf("%w: total fee %s must be below 1", ErrInvalidConfig, total)
	}
	if total.IsZero() {
		return nil
	}
	switch c.Mode {
	case CommissionProtocol:
		if c.ProtocolPair == "" || c.ProtocolToken == "" || c.GovernanceContract == "" {
			return fmt.Errorf("%w: protocol mode needs pair, token and governance contract", ErrInvalidConfig)
		}
	case CommissionWrapper:
		if c.Wrapper == "" || c.WrapperToken == "" || c.WrapperRate.IsZero() {
			return fmt.Errorf("%w: wrapper mode needs wrapper, token and rate", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: mode %d", ErrInvalidConfig, c.Mode)
	}
	if !c.CommunityFee.IsZero() && c.GovernanceContract == "" {
		return fmt.Errorf("%w: community fee without governance contract", ErrInvalidConfig)
	}
	if !c.PlatformFee.IsZero() && c.Platform == "" {
		return fmt.Errorf("%w: platform fee without platform", ErrInvalidConfig)
	}
	if !c.ControllerFee.IsZero() && c.Controller == "" {
		return fmt.Errorf("%w: controller fee without controller", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) tax() swap.TaxPolicy {
	if c.Tax == nil {
		return swap.NoTax{}
	}
	return c.Tax
}
