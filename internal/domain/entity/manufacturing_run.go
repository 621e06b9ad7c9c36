package entity

import "github.com/shopspring/decimal"

// ManufacturingRun es el ensamble de un producto terminado: cabecera de consumo + datos del producto + costeo.
// Comparte ID con su ConsumptionTransaction.
type ManufacturingRun struct {
	Transaction *ConsumptionTransaction

	ProductName string
	ProductType string
	Collection  string
	Color       string
	Size        string
	SKU         string

	RawTotal        decimal.Decimal
	ComponentsAdded decimal.Decimal
	TotalCost       decimal.Decimal
	Contributions   []CostContribution
}

// ID del run (mismo que la transacción).
func (m *ManufacturingRun) ID() string {
	if m.Transaction == nil {
		return ""
	}
	return m.Transaction.ID
}

// CostContribution aporte de una regla de costo al total de un run.
type CostContribution struct {
	RuleName string
	Amount   decimal.Decimal
}
