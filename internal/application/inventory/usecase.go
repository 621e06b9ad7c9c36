package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
	"github.com/jhoicas/garment-ledger/pkg/logger"
	"github.com/jhoicas/garment-ledger/pkg/metrics"
	"github.com/jhoicas/garment-ledger/pkg/telemetry"
)

// Operaciones del motor (etiquetas de métricas y logs).
const (
	OpApply  = "apply"
	OpRevert = "revert"
)

// ConsumptionEngine aplica y revierte transacciones de consumo sobre ítems de distinto tipo:
// bloquea filas en orden (kind, id) con SELECT FOR UPDATE, valida todo antes de mutar,
// registra un movimiento por línea y sella la cabecera. Todo dentro de una sola transacción de BD.
type ConsumptionEngine struct {
	txRunner TxRunner
	notifier LowStockNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewConsumptionEngine construye el motor. notifier puede ser nil.
func NewConsumptionEngine(txRunner TxRunner, notifier LowStockNotifier, log *logger.Logger) *ConsumptionEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &ConsumptionEngine{
		txRunner: txRunner,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (e *ConsumptionEngine) WithClock(now func() time.Time) *ConsumptionEngine {
	e.now = now
	return e
}

// Now hora del motor, compartida con los casos de uso que lo envuelven.
func (e *ConsumptionEngine) Now() time.Time { return e.now().UTC() }

// Outcome resultado de Apply/Revert dentro de la transacción de BD.
type Outcome struct {
	Transaction *entity.ConsumptionTransaction
	Items       map[entity.Reference]entity.StockBearing // ítems bloqueados
	Mutated     []entity.StockBearing                    // ítems cuya cantidad cambió, orden (kind, id)
	Movements   []*entity.StockMovement
}

// Apply aplica la transacción id en su propia transacción de BD. kind vacío acepta cualquier flujo.
func (e *ConsumptionEngine) Apply(ctx context.Context, kind entity.TransactionKind, id string) (*Outcome, error) {
	start := time.Now()
	var out *Outcome
	err := e.txRunner.Run(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
	) error {
		o, err := e.ApplyInTx(ctx, stock, movRepo, txRepo, kind, id)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		e.RecordFailure(OpApply, kind, id, err)
		return nil, err
	}
	e.AfterCommit(ctx, OpApply, out, time.Since(start))
	return out, nil
}

// Revert revierte la transacción id en su propia transacción de BD.
func (e *ConsumptionEngine) Revert(ctx context.Context, kind entity.TransactionKind, id string) (*Outcome, error) {
	start := time.Now()
	var out *Outcome
	err := e.txRunner.Run(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
	) error {
		o, err := e.RevertInTx(ctx, stock, movRepo, txRepo, kind, id)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		e.RecordFailure(OpRevert, kind, id, err)
		return nil, err
	}
	e.AfterCommit(ctx, OpRevert, out, time.Since(start))
	return out, nil
}

// ApplyInTx ejecuta Apply usando los repositorios proporcionados (misma transacción del caller).
// Los flujos de manufactura y estampado lo invocan antes de sus pasos propios.
func (e *ConsumptionEngine) ApplyInTx(
	ctx context.Context,
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
	kind entity.TransactionKind,
	id string,
) (_ *Outcome, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.apply")
	defer func() { endSpan(span, err) }()

	// Bloquea la cabecera para serializar Apply/Revert concurrentes de la misma transacción
	txn, err := lockTransaction(ctx, txRepo, kind, id)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("ledger.transaction_id", txn.ID), attribute.String("ledger.kind", string(txn.Kind)))
	if err := txn.EnsureDraft(); err != nil {
		return nil, err
	}
	if len(txn.Lines) == 0 {
		return nil, fmt.Errorf("%w: transaction %s has no lines", domain.ErrInvalidInput, txn.ID)
	}

	// 1-2. Resolver y bloquear todas las filas antes de mutar nada
	items, err := lockItems(ctx, stock, txn.References())
	if err != nil {
		return nil, err
	}

	// 3. Validación: cantidad pedida agregada por ítem contra el stock actual
	requested := make(map[entity.Reference]decimal.Decimal, len(items))
	order := make([]entity.Reference, 0, len(items))
	for _, l := range txn.Lines {
		if !l.Deducts() {
			continue
		}
		if _, ok := requested[l.Ref]; !ok {
			order = append(order, l.Ref)
		}
		requested[l.Ref] = requested[l.Ref].Add(l.Quantity)
	}
	entity.SortReferences(order)
	for _, ref := range order {
		item := items[ref]
		if item.Quantity().LessThan(requested[ref]) {
			return nil, &domain.InsufficientStockError{
				Entity:    item.DisplayName(),
				Requested: requested[ref],
				Available: item.Quantity(),
			}
		}
	}

	// 4-5. Mutación: snapshot para todas las líneas, Reduce y movimiento por cada línea que descuenta
	now := e.Now()
	reason := entity.ApplyReason(txn.Kind, txn.Label)
	out := &Outcome{Transaction: txn, Items: items}
	for _, l := range txn.Lines {
		item := items[l.Ref]
		if err := l.RecordSnapshot(item); err != nil {
			return nil, err
		}
		if !l.Deducts() {
			continue
		}
		if _, err := item.Reduce(l.Quantity); err != nil {
			return nil, err
		}
		out.Movements = append(out.Movements, &entity.StockMovement{
			Ref:           l.Ref,
			Delta:         l.Quantity.Neg(),
			Reason:        reason,
			TransactionID: txn.ID,
			CreatedAt:     now,
		})
	}
	out.Mutated = mutatedItems(items, order)

	if err := persist(ctx, stock, movRepo, out); err != nil {
		return nil, err
	}
	if err := txRepo.SaveSnapshots(ctx, txn.Lines); err != nil {
		return nil, err
	}

	// 6. Sellar la cabecera
	if err := txn.MarkApplied(now); err != nil {
		return nil, err
	}
	if err := txRepo.MarkApplied(ctx, txn.ID, now); err != nil {
		return nil, err
	}
	return out, nil
}

// RevertInTx restituye cada línea que descontó (las de desperdicio se omiten) y sella revertedAt.
func (e *ConsumptionEngine) RevertInTx(
	ctx context.Context,
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
	kind entity.TransactionKind,
	id string,
) (_ *Outcome, err error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.revert")
	defer func() { endSpan(span, err) }()

	txn, err := lockTransaction(ctx, txRepo, kind, id)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("ledger.transaction_id", txn.ID), attribute.String("ledger.kind", string(txn.Kind)))
	if err := txn.EnsureApplied(); err != nil {
		return nil, err
	}

	refs := make([]entity.Reference, 0, len(txn.Lines))
	seen := make(map[entity.Reference]bool, len(txn.Lines))
	for _, l := range txn.Lines {
		if l.Deducts() && !seen[l.Ref] {
			seen[l.Ref] = true
			refs = append(refs, l.Ref)
		}
	}
	entity.SortReferences(refs)

	items, err := lockItems(ctx, stock, refs)
	if err != nil {
		return nil, err
	}

	now := e.Now()
	reason := entity.RevertReason(txn.Kind, txn.Label)
	out := &Outcome{Transaction: txn, Items: items}
	for _, l := range txn.Lines {
		if !l.Deducts() {
			continue
		}
		if _, err := items[l.Ref].Increase(l.Quantity); err != nil {
			return nil, err
		}
		out.Movements = append(out.Movements, &entity.StockMovement{
			Ref:           l.Ref,
			Delta:         l.Quantity,
			Reason:        reason,
			TransactionID: txn.ID,
			CreatedAt:     now,
		})
	}
	out.Mutated = mutatedItems(items, refs)

	if err := persist(ctx, stock, movRepo, out); err != nil {
		return nil, err
	}
	if err := txn.MarkReverted(now); err != nil {
		return nil, err
	}
	if err := txRepo.MarkReverted(ctx, txn.ID, now); err != nil {
		return nil, err
	}
	return out, nil
}

// AfterCommit registra métricas y log, y notifica stock bajo. Llamar solo tras Commit.
func (e *ConsumptionEngine) AfterCommit(ctx context.Context, op string, out *Outcome, elapsed time.Duration) {
	if out == nil || out.Transaction == nil {
		return
	}
	kind := string(out.Transaction.Kind)
	switch op {
	case OpApply:
		metrics.TransactionsAppliedTotal.WithLabelValues(kind).Inc()
		metrics.ApplyLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	case OpRevert:
		metrics.TransactionsRevertedTotal.WithLabelValues(kind).Inc()
	}
	for _, m := range out.Movements {
		metrics.MovementsRecordedTotal.WithLabelValues(string(m.Ref.Kind)).Inc()
	}

	e.log.Info().
		Str("op", op).
		Str("transaction_id", out.Transaction.ID).
		Str("kind", kind).
		Int("lines", len(out.Transaction.Lines)).
		Int("movements", len(out.Movements)).
		Dur("elapsed", elapsed).
		Msg("transacción de consumo confirmada")

	if e.notifier != nil && len(out.Mutated) > 0 {
		e.notifier.Notify(ctx, out.Mutated)
	}
}

// RecordFailure registra métricas y log de una operación abortada (todo se revirtió).
func (e *ConsumptionEngine) RecordFailure(op string, kind entity.TransactionKind, id string, err error) {
	reason := FailureReason(err)
	metrics.TransactionsFailedTotal.WithLabelValues(string(kind), reason).Inc()
	e.log.Warn().
		Err(err).
		Str("op", op).
		Str("transaction_id", id).
		Str("kind", string(kind)).
		Str("reason", reason).
		Msg("transacción de consumo abortada")
}

// FailureReason etiqueta corta del error para métricas.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidTransactionState):
		return "invalid_state"
	case errors.Is(err, domain.ErrEntityNotFound), errors.Is(err, domain.ErrUnknownEntityKind):
		return "bad_reference"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "internal"
}

// lockTransaction bloquea la cabecera; una transacción de otro flujo se trata como inexistente.
func lockTransaction(ctx context.Context, txRepo repository.ConsumptionRepository, kind entity.TransactionKind, id string) (*entity.ConsumptionTransaction, error) {
	txn, err := txRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != "" && txn.Kind != kind {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
	}
	return txn, nil
}

// lockItems bloquea por tipo, en orden (kind, id), y resuelve cada referencia dentro del bloqueo.
func lockItems(ctx context.Context, registry repository.StockRegistry, refs []entity.Reference) (map[entity.Reference]entity.StockBearing, error) {
	items := make(map[entity.Reference]entity.StockBearing, len(refs))
	sorted := append([]entity.Reference(nil), refs...)
	entity.SortReferences(sorted)

	for i := 0; i < len(sorted); {
		kind := sorted[i].Kind
		var ids []int64
		for ; i < len(sorted) && sorted[i].Kind == kind; i++ {
			ids = append(ids, sorted[i].ID)
		}
		repo, err := registry.For(kind)
		if err != nil {
			return nil, err
		}
		rows, err := repo.LockForUpdate(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			item, ok := rows[id]
			if !ok || item == nil {
				return nil, &domain.EntityNotFoundError{Kind: string(kind), ID: id}
			}
			items[entity.Ref(kind, id)] = item
		}
	}
	return items, nil
}

func mutatedItems(items map[entity.Reference]entity.StockBearing, refs []entity.Reference) []entity.StockBearing {
	out := make([]entity.StockBearing, 0, len(refs))
	for _, ref := range refs {
		out = append(out, items[ref])
	}
	return out
}

// persist guarda una vez cada ítem mutado y luego los movimientos.
func persist(ctx context.Context, registry repository.StockRegistry, movRepo repository.StockMovementRepository, out *Outcome) error {
	for _, item := range out.Mutated {
		repo, err := registry.For(item.Ref().Kind)
		if err != nil {
			return err
		}
		if err := repo.SaveQuantity(ctx, item); err != nil {
			return err
		}
	}
	for _, m := range out.Movements {
		if err := movRepo.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, FailureReason(err))
	}
	span.End()
}
