package entity

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain"
)

// StockBearing es la capacidad común de todo ítem de inventario registrado en el libro.
// La cantidad solo cambia a través de Reduce/Increase.
type StockBearing interface {
	Ref() Reference
	DisplayName() string
	Quantity() decimal.Decimal
	UnitCost() decimal.Decimal
	Reduce(qty decimal.Decimal) (decimal.Decimal, error)
	Increase(qty decimal.Decimal) (decimal.Decimal, error)
}

// stockLevel guarda la cantidad con la invariante de no-negatividad.
// Campo no exportado: fuera del paquete no hay escritura directa posible.
type stockLevel struct {
	qty decimal.Decimal
}

func newStockLevel(qty decimal.Decimal) (stockLevel, error) {
	if qty.IsNegative() {
		return stockLevel{}, domain.ErrInvalidQuantity
	}
	return stockLevel{qty: qty}, nil
}

func (s *stockLevel) Quantity() decimal.Decimal { return s.qty }

func (s *stockLevel) reduce(name string, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return s.qty, domain.ErrInvalidQuantity
	}
	if s.qty.LessThan(qty) {
		return s.qty, &domain.InsufficientStockError{Entity: name, Requested: qty, Available: s.qty}
	}
	s.qty = s.qty.Sub(qty)
	return s.qty, nil
}

func (s *stockLevel) increase(qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return s.qty, domain.ErrInvalidQuantity
	}
	s.qty = s.qty.Add(qty)
	return s.qty, nil
}
