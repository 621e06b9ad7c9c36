package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain"
)

// TransactionKind identifica el flujo que originó la transacción de consumo.
type TransactionKind string

const (
	TransactionIssue         TransactionKind = "issue"         // salida de material ad-hoc
	TransactionManufacturing TransactionKind = "manufacturing" // producción de producto terminado
	TransactionPrinting      TransactionKind = "printing"      // estampado de tela
)

// TransactionStatus se deriva de AppliedAt/RevertedAt; no se persiste.
type TransactionStatus string

const (
	StatusDraft    TransactionStatus = "draft"
	StatusApplied  TransactionStatus = "applied"
	StatusReverted TransactionStatus = "reverted"
)

// ConsumptionTransaction es la cabecera común de Issue, ManufacturingRun y PrintRun.
// Draft -> Applied -> Reverted; no existe Applied -> Draft.
type ConsumptionTransaction struct {
	ID         string
	Kind       TransactionKind
	Label      string
	OrderNo    string
	Notes      string
	CreatedBy  string
	CreatedAt  time.Time
	AppliedAt  *time.Time
	RevertedAt *time.Time
	Lines      []*ConsumptionLine
}

// Status estado actual de la transacción.
func (t *ConsumptionTransaction) Status() TransactionStatus {
	switch {
	case t.RevertedAt != nil:
		return StatusReverted
	case t.AppliedAt != nil:
		return StatusApplied
	default:
		return StatusDraft
	}
}

// EnsureDraft falla si la transacción ya no admite edición ni aplicación.
func (t *ConsumptionTransaction) EnsureDraft() error {
	if s := t.Status(); s != StatusDraft {
		return fmt.Errorf("%w: transaction %s is %s", domain.ErrInvalidTransactionState, t.ID, s)
	}
	return nil
}

// EnsureApplied falla salvo que la transacción esté aplicada y no revertida.
func (t *ConsumptionTransaction) EnsureApplied() error {
	if s := t.Status(); s != StatusApplied {
		return fmt.Errorf("%w: transaction %s is %s", domain.ErrInvalidTransactionState, t.ID, s)
	}
	return nil
}

// MarkApplied sella appliedAt. Solo desde Draft.
func (t *ConsumptionTransaction) MarkApplied(now time.Time) error {
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	t.AppliedAt = &now
	return nil
}

// MarkReverted sella revertedAt. Solo desde Applied.
func (t *ConsumptionTransaction) MarkReverted(now time.Time) error {
	if err := t.EnsureApplied(); err != nil {
		return err
	}
	t.RevertedAt = &now
	return nil
}

// AddLines agrega líneas; solo permitido en Draft.
func (t *ConsumptionTransaction) AddLines(lines ...*ConsumptionLine) error {
	if err := t.EnsureDraft(); err != nil {
		return err
	}
	for _, l := range lines {
		l.TransactionID = t.ID
		t.Lines = append(t.Lines, l)
	}
	return nil
}

// References devuelve las referencias distintas de todas las líneas, ordenadas por (kind, id).
func (t *ConsumptionTransaction) References() []Reference {
	seen := make(map[Reference]struct{}, len(t.Lines))
	refs := make([]Reference, 0, len(t.Lines))
	for _, l := range t.Lines {
		if _, ok := seen[l.Ref]; ok {
			continue
		}
		seen[l.Ref] = struct{}{}
		refs = append(refs, l.Ref)
	}
	SortReferences(refs)
	return refs
}

// ConsumptionLine es una línea (referencia, cantidad, desperdicio) de una transacción.
type ConsumptionLine struct {
	ID            string
	TransactionID string
	Ref           Reference
	ItemName      string // nombre cacheado al aplicar
	Quantity      decimal.Decimal
	FromWaste     bool
	StockSnapshot decimal.NullDecimal // stock observado antes de mutar; inmutable una vez escrito
	UnitCost      decimal.Decimal
	LineCost      decimal.Decimal
	CreatedAt     time.Time
}

// NewConsumptionLine valida la cantidad: > 0 si descuenta, >= 0 si es de desperdicio.
func NewConsumptionLine(ref Reference, qty decimal.Decimal, fromWaste bool) (*ConsumptionLine, error) {
	if fromWaste {
		if qty.IsNegative() {
			return nil, fmt.Errorf("%w: waste line %s with negative quantity", domain.ErrInvalidQuantity, ref)
		}
	} else if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: line %s requires quantity > 0", domain.ErrInvalidQuantity, ref)
	}
	return &ConsumptionLine{Ref: ref, Quantity: qty, FromWaste: fromWaste}, nil
}

// Deducts indica si la línea mueve stock.
func (l *ConsumptionLine) Deducts() bool { return !l.FromWaste }

// RecordSnapshot escribe el stock observado y el costo de la línea. Falla si ya había snapshot.
func (l *ConsumptionLine) RecordSnapshot(item StockBearing) error {
	if l.StockSnapshot.Valid {
		return fmt.Errorf("%w: snapshot already recorded for line %s", domain.ErrInvalidTransactionState, l.ID)
	}
	l.StockSnapshot = decimal.NewNullDecimal(item.Quantity())
	l.ItemName = item.DisplayName()
	l.UnitCost = item.UnitCost()
	if l.FromWaste {
		l.LineCost = decimal.Zero
	} else {
		l.LineCost = l.UnitCost.Mul(l.Quantity)
	}
	return nil
}
