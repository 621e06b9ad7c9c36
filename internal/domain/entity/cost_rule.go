package entity

import "github.com/shopspring/decimal"

// CostRuleKind tipo de regla de costo.
type CostRuleKind string

const (
	CostRulePercentage CostRuleKind = "percentage"
	CostRuleFixed      CostRuleKind = "fixed"
)

var hundred = decimal.NewFromInt(100)

// CostRule es un componente de costo (mano de obra, overhead, empaque...) sumado al costo bruto.
type CostRule struct {
	ID     int64
	Name   string
	Kind   CostRuleKind
	Value  decimal.Decimal
	Active bool
}

// Apply devuelve la contribución sobre base, redondeada a 2 decimales half-up.
// Las reglas inactivas aportan 0.
func (r *CostRule) Apply(base decimal.Decimal) decimal.Decimal {
	if !r.Active {
		return decimal.Zero
	}
	switch r.Kind {
	case CostRulePercentage:
		return base.Mul(r.Value).Div(hundred).Round(2)
	case CostRuleFixed:
		return r.Value.Round(2)
	}
	return decimal.Zero
}
