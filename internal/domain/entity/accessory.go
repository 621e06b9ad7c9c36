package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Accessory representa botones, cierres, etiquetas, etc. (stock en unidades).
type Accessory struct {
	ID          int64
	ItemName    string
	Quality     string
	QualityText string // variante textual ("madera") con prioridad sobre Quality
	BaseColor   string
	ItemType    string
	UseIn       string
	CostPerUnit decimal.Decimal
	VendorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	stock stockLevel
}

var _ StockBearing = (*Accessory)(nil)

// NewAccessory hidrata un accesorio con su stock.
func NewAccessory(a Accessory, stock decimal.Decimal) (*Accessory, error) {
	s, err := newStockLevel(stock)
	if err != nil {
		return nil, fmt.Errorf("accessory %d: %w", a.ID, err)
	}
	a.stock = s
	return &a, nil
}

func (a *Accessory) Ref() Reference { return Ref(KindAccessory, a.ID) }
func (a *Accessory) Quantity() decimal.Decimal { return a.stock.Quantity() }
func (a *Accessory) UnitCost() decimal.Decimal { return a.CostPerUnit }

// DisplayName incluye la calidad cuando existe: "Botón - Madera".
func (a *Accessory) DisplayName() string {
	q := strings.TrimSpace(a.QualityText)
	if q == "" {
		q = strings.TrimSpace(a.Quality)
	}
	if q == "" {
		return a.ItemName
	}
	return a.ItemName + " - " + q
}

func (a *Accessory) Reduce(qty decimal.Decimal) (decimal.Decimal, error) {
	return a.stock.reduce(a.DisplayName(), qty)
}

func (a *Accessory) Increase(qty decimal.Decimal) (decimal.Decimal, error) {
	return a.stock.increase(qty)
}
