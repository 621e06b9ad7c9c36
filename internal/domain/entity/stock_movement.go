package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockMovement es una entrada inmutable del historial: una por cada deducción o restitución.
type StockMovement struct {
	ID            string
	Ref           Reference
	Delta         decimal.Decimal // negativo al descontar, positivo al restituir
	Reason        string
	TransactionID string
	CreatedAt     time.Time
}

// MovementFilter criterios de consulta del historial.
type MovementFilter struct {
	Kind          EntityKind
	EntityID      int64
	TransactionID string
	From, To      *time.Time
	Limit         int
	Offset        int
}

// Motivos estándar del historial.
const (
	reasonIssue         = "Issue - %s"
	reasonManufacturing = "Manufacturing - Finished Product creation - finished product: %s"
	reasonPrinting      = "Printing - Printed fabric creation - product: %s"
	reasonRevertPrefix  = "Revert - "
)

// ApplyReason motivo de los movimientos al aplicar una transacción.
func ApplyReason(kind TransactionKind, label string) string {
	switch kind {
	case TransactionManufacturing:
		return fmt.Sprintf(reasonManufacturing, label)
	case TransactionPrinting:
		return fmt.Sprintf(reasonPrinting, label)
	default:
		return fmt.Sprintf(reasonIssue, label)
	}
}

// RevertReason motivo de los movimientos al revertir.
func RevertReason(kind TransactionKind, label string) string {
	return reasonRevertPrefix + ApplyReason(kind, label)
}
