package swap

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/compound-engine/internal/fixedpoint"
)

// TaxPolicy returns what arrives when amount of asset is transferred.
type TaxPolicy interface {
	DeductTax(asset string, amount *uint256.Int) (*uint256.Int, error)
}

type NoTax struct{}

func (NoTax) DeductTax(_ string, amount *uint256.Int) (*uint256.Int, error) {
	return new(uint256.Int).Set(amount), nil
}

// ProportionalTax charges Rate on transfers of the listed assets, capped at Cap.
// The tax is taken from inside the amount: amount − amount/(1+Rate). A zero Cap means no cap.
type ProportionalTax struct {
	Rate   fixedpoint.Decimal
	Cap    uint256.Int
	Assets map[string]struct{}
}

func NewProportionalTax(rate fixedpoint.Decimal, taxCap *uint256.Int, assets ...string) *ProportionalTax {
	t := &ProportionalTax{Rate: rate, Assets: make(map[string]struct{}, len(assets))}
	t.Cap.Set(taxCap)
	for _, a := range assets {
		t.Assets[a] = struct{}{}
	}
	return t
}

func (t *ProportionalTax) DeductTax(asset string, amount *uint256.Int) (*uint256.Int, error) {
	if _, ok := t.Assets[asset]; !ok || t.Rate.IsZero() || amount.IsZero() {
		return new(uint256.Int).Set(amount), nil
	}
	one := fixedpoint.OneDecimal()
	denom, err := one.Add(t.Rate)
	if err != nil {
		return nil, err
	}
	net, err := fixedpoint.MulRatio(amount, one.Raw(), denom.Raw())
	if err != nil {
		return nil, err
	}
	tax := new(uint256.Int).Sub(amount, net)
	if !t.Cap.IsZero() && tax.Gt(&t.Cap) {
		tax.Set(&t.Cap)
	}
	return new(uint256.Int).Sub(amount, tax), nil
}
