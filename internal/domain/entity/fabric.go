package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Fabric representa un rollo/lote de tela medido en metros.
type Fabric struct {
	ID          int64
	ItemName    string
	Quality     string
	BaseColor   string
	Type        string
	Width       decimal.Decimal
	UseIn       string
	CostPerUnit decimal.Decimal // costo por metro
	VendorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	stock stockLevel
}

var _ StockBearing = (*Fabric)(nil)

// NewFabric hidrata una tela con su stock en metros (nunca negativo).
func NewFabric(f Fabric, stockMeters decimal.Decimal) (*Fabric, error) {
	s, err := newStockLevel(stockMeters)
	if err != nil {
		return nil, fmt.Errorf("fabric %d: %w", f.ID, err)
	}
	f.stock = s
	return &f, nil
}

func (f *Fabric) Ref() Reference { return Ref(KindFabric, f.ID) }
func (f *Fabric) DisplayName() string { return f.ItemName }
func (f *Fabric) Quantity() decimal.Decimal { return f.stock.Quantity() }
func (f *Fabric) UnitCost() decimal.Decimal { return f.CostPerUnit }

// Reduce descuenta metros de tela.
func (f *Fabric) Reduce(qty decimal.Decimal) (decimal.Decimal, error) {
	return f.stock.reduce(f.ItemName, qty)
}

// Increase devuelve metros de tela al stock.
func (f *Fabric) Increase(qty decimal.Decimal) (decimal.Decimal, error) {
	return f.stock.increase(qty)
}
