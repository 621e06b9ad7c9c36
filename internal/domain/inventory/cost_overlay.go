package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// Costing resultado de aplicar las reglas de costo sobre el costo bruto de consumo.
type Costing struct {
	RawTotal      decimal.Decimal
	Added         decimal.Decimal
	Total         decimal.Decimal
	Contributions []entity.CostContribution
}

// RawTotal suma unitCost × cantidad sobre las líneas que descuentan stock, redondeado a 2 decimales
// (la misma escala que persiste manufacturing_runs.raw_total).
func RawTotal(lines []*entity.ConsumptionLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if !l.Deducts() {
			continue
		}
		total = total.Add(l.UnitCost.Mul(l.Quantity))
	}
	return total.Round(2)
}

// ApplyCostRules (servicio de dominio) pliega las reglas activas, ordenadas por nombre, sobre raw.
// Cada aporte se redondea al aplicarse; el total final también se redondea a 2 decimales.
// Total = raw + Σ aportes
func ApplyCostRules(raw decimal.Decimal, rules []*entity.CostRule) Costing {
	ordered := make([]*entity.CostRule, 0, len(rules))
	for _, r := range rules {
		if r != nil && r.Active {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	c := Costing{RawTotal: raw, Added: decimal.Zero}
	for _, r := range ordered {
		amount := r.Apply(raw)
		c.Contributions = append(c.Contributions, entity.CostContribution{RuleName: r.Name, Amount: amount})
		c.Added = c.Added.Add(amount)
	}
	c.Total = raw.Add(c.Added).Round(2)
	return c
}
