package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas salvo decimal).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")

	// Taxonomía del libro de consumos.
	ErrInvalidQuantity         = errors.New("cantidad inválida")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrEntityNotFound          = errors.New("ítem de inventario no encontrado")
	ErrUnknownEntityKind       = errors.New("tipo de ítem de inventario desconocido")
	ErrStockFieldUnavailable   = errors.New("el ítem no expone una cantidad de stock legible")
	ErrInvalidTransactionState = errors.New("estado de transacción inválido")
	ErrLockTimeout             = errors.New("tiempo de espera de bloqueo agotado")
)

// InsufficientStockError detalla qué ítem no alcanza. errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	Entity    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s (disponible %s, solicitado %s)",
		e.Entity, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// EntityNotFoundError indica una referencia genérica colgante.
type EntityNotFoundError struct {
	Kind string
	ID   int64
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s #%d no existe", e.Kind, e.ID)
}

func (e *EntityNotFoundError) Unwrap() error { return ErrEntityNotFound }
