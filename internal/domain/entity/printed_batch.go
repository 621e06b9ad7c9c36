package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PrintedBatch es tela estampada producida a partir de una Fabric.
// Su creación consume QuantityUsed de la tela origen mediante una línea de consumo.
type PrintedBatch struct {
	ID           int64
	Product      string
	FabricID     int64
	BaseColor    string
	ProductType  string
	Width        decimal.Decimal
	UseIn        string
	Quality      string
	Unit         string // m, cm, ft
	QuantityUsed decimal.Decimal
	CostPerUnit  decimal.Decimal
	Rate         decimal.Decimal
	FabricCost   decimal.Decimal // costo por unidad de la tela origen (solo lectura)
	VendorID     int64
	// TransactionID transacción de consumo que descontó la tela origen al crear el lote.
	TransactionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	stock stockLevel
}

var _ StockBearing = (*PrintedBatch)(nil)

// NewPrintedBatch hidrata un lote estampado con su stock.
func NewPrintedBatch(p PrintedBatch, stock decimal.Decimal) (*PrintedBatch, error) {
	s, err := newStockLevel(stock)
	if err != nil {
		return nil, fmt.Errorf("printed batch %d: %w", p.ID, err)
	}
	p.stock = s
	return &p, nil
}

func (p *PrintedBatch) Ref() Reference { return Ref(KindPrinted, p.ID) }
func (p *PrintedBatch) DisplayName() string { return p.Product }
func (p *PrintedBatch) Quantity() decimal.Decimal { return p.stock.Quantity() }

// UnitCost: Rate si es positiva, luego CostPerUnit, luego el costo de la tela origen.
func (p *PrintedBatch) UnitCost() decimal.Decimal {
	if p.Rate.IsPositive() {
		return p.Rate
	}
	if p.CostPerUnit.IsPositive() {
		return p.CostPerUnit
	}
	return p.FabricCost
}

func (p *PrintedBatch) Reduce(qty decimal.Decimal) (decimal.Decimal, error) {
	return p.stock.reduce(p.Product, qty)
}

func (p *PrintedBatch) Increase(qty decimal.Decimal) (decimal.Decimal, error) {
	return p.stock.increase(qty)
}
