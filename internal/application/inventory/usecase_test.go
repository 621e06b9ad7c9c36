package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/infrastructure/memstore"
	"github.com/jhoicas/garment-ledger/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// recordingNotifier guarda los ítems recibidos tras cada commit.
type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]entity.StockBearing
}

func (n *recordingNotifier) Notify(_ context.Context, items []entity.StockBearing) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, items)
}

type engineFixture struct {
	store    *memstore.Store
	engine   *inventory.ConsumptionEngine
	notifier *recordingNotifier
	a, b     entity.Reference
}

// newEngineFixture: A = tela con 10 m a 5.00, B = accesorio con 2 u a 1.50.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	store := memstore.New()
	a := store.AddFabric(entity.Fabric{ItemName: "Dril", CostPerUnit: d("5")}, d("10"))
	b := store.AddAccessory(entity.Accessory{ItemName: "Cremallera", CostPerUnit: d("1.5")}, d("2"))
	n := &recordingNotifier{}
	return &engineFixture{
		store:    store,
		engine:   inventory.NewConsumptionEngine(store, n, logger.Nop()).WithClock(func() time.Time { return fixedNow }),
		notifier: n,
		a:        entity.Ref(entity.KindFabric, a),
		b:        entity.Ref(entity.KindAccessory, b),
	}
}

func lineReq(ref entity.Reference, qty string, waste bool) dto.ConsumptionLineRequest {
	return dto.ConsumptionLineRequest{EntityKind: string(ref.Kind), EntityID: ref.ID, Quantity: d(qty), FromWaste: waste}
}

// draft registra una transacción de salida en Draft y devuelve su id.
func (f *engineFixture) draft(t *testing.T, lines ...dto.ConsumptionLineRequest) string {
	t.Helper()
	txn, err := inventory.NewDraft(inventory.DraftInput{
		Kind:  entity.TransactionIssue,
		Label: "Corte 42",
		Lines: lines,
	}, fixedNow)
	require.NoError(t, err)
	require.NoError(t, f.store.Consumption().Create(context.Background(), txn))
	return txn.ID
}

func (f *engineFixture) qty(t *testing.T, ref entity.Reference) string {
	t.Helper()
	q, err := f.store.Quantity(ref)
	require.NoError(t, err)
	return q.String()
}

func TestApply_DeductsEveryLine(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t, lineReq(f.a, "4", false), lineReq(f.a, "3", false))

	out, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	require.NoError(t, err)

	assert.Equal(t, "3", f.qty(t, f.a))
	assert.Equal(t, entity.StatusApplied, out.Transaction.Status())

	moves := f.store.MovementsFor(f.a)
	require.Len(t, moves, 2)
	assert.Equal(t, "-4", moves[0].Delta.String())
	assert.Equal(t, "-3", moves[1].Delta.String())
	assert.Equal(t, "Issue - Corte 42", moves[0].Reason)
	assert.Equal(t, id, moves[0].TransactionID)

	// snapshot = cantidad observada antes de mutar cada línea
	txn, err := f.store.Consumption().Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, txn.Lines, 2)
	assert.Equal(t, "10", txn.Lines[0].StockSnapshot.Decimal.String())
	assert.Equal(t, "6", txn.Lines[1].StockSnapshot.Decimal.String())
	assert.Equal(t, "20", txn.Lines[0].LineCost.String())
	require.NotNil(t, txn.AppliedAt)
	assert.True(t, txn.AppliedAt.Equal(fixedNow))

	require.Len(t, f.notifier.calls, 1)
	require.Len(t, f.notifier.calls[0], 1)
	assert.Equal(t, f.a, f.notifier.calls[0][0].Ref())
}

func TestApply_InsufficientStockIsAtomic(t *testing.T) {
	f := newEngineFixture(t)
	first := f.draft(t, lineReq(f.a, "7", false))
	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, first)
	require.NoError(t, err)
	movesBefore := f.store.MovementCount()

	id := f.draft(t, lineReq(f.a, "3", false), lineReq(f.b, "999", false))
	_, err = f.engine.Apply(context.Background(), entity.TransactionIssue, id)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "Cremallera", ise.Entity)
	assert.Equal(t, "2", ise.Available.String())
	assert.Equal(t, "999", ise.Requested.String())

	assert.Equal(t, "3", f.qty(t, f.a), "A no cambia aunque su línea alcanzaba")
	assert.Equal(t, "2", f.qty(t, f.b))
	assert.Equal(t, movesBefore, f.store.MovementCount())

	txn, err := f.store.Consumption().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, txn.Status())
	assert.False(t, txn.Lines[0].StockSnapshot.Valid)
	assert.Len(t, f.notifier.calls, 1, "sin notificación si no hubo commit")
}

func TestApply_AggregatesQuantityPerItem(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t, lineReq(f.b, "1", false), lineReq(f.b, "1.5", false))

	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "2", f.qty(t, f.b))
}

func TestApply_WasteLinesDoNotMoveStock(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t, lineReq(f.a, "2", false), lineReq(f.b, "50", true), lineReq(f.b, "0", true))

	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	require.NoError(t, err)

	assert.Equal(t, "8", f.qty(t, f.a))
	assert.Equal(t, "2", f.qty(t, f.b))
	assert.Empty(t, f.store.MovementsFor(f.b))

	txn, err := f.store.Consumption().Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, txn.Lines[1].StockSnapshot.Valid, "la línea de desperdicio también guarda snapshot")
	assert.True(t, txn.Lines[1].LineCost.IsZero())
}

func TestApply_Twice(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t, lineReq(f.a, "1", false))

	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	require.NoError(t, err)
	_, err = f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionState)
	assert.Equal(t, "9", f.qty(t, f.a))
	assert.Equal(t, 1, f.store.MovementCount())
}

func TestApply_NoLines(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t)

	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_DanglingReference(t *testing.T) {
	f := newEngineFixture(t)
	ghost := entity.Ref(entity.KindPrinted, 404)
	id := f.draft(t, lineReq(f.a, "1", false), lineReq(ghost, "1", false))

	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)

	var nf *domain.EntityNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(404), nf.ID)
	assert.Equal(t, "10", f.qty(t, f.a))
}

func TestApply_StockFieldUnavailable(t *testing.T) {
	f := newEngineFixture(t)
	f.store.ClearQuantity(f.b)
	id := f.draft(t, lineReq(f.a, "1", false), lineReq(f.b, "1", false))

	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	assert.ErrorIs(t, err, domain.ErrStockFieldUnavailable)
	assert.Equal(t, "10", f.qty(t, f.a))
}

func TestApply_WrongKindIsNotFound(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t, lineReq(f.a, "1", false))

	_, err := f.engine.Apply(context.Background(), entity.TransactionManufacturing, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Apply(context.Background(), entity.TransactionIssue, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRevert_RestoresAndRecordsMovements(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t, lineReq(f.a, "4", false), lineReq(f.b, "2", false), lineReq(f.b, "9", true))

	_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	require.NoError(t, err)
	assert.Equal(t, "0", f.qty(t, f.b))

	out, err := f.engine.Revert(context.Background(), entity.TransactionIssue, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReverted, out.Transaction.Status())

	assert.Equal(t, "10", f.qty(t, f.a))
	assert.Equal(t, "2", f.qty(t, f.b))

	moves := f.store.MovementsFor(f.b)
	require.Len(t, moves, 2)
	assert.Equal(t, "-2", moves[0].Delta.String())
	assert.Equal(t, "2", moves[1].Delta.String())
	assert.Equal(t, "Revert - Issue - Corte 42", moves[1].Reason)

	_, err = f.engine.Revert(context.Background(), entity.TransactionIssue, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionState)
	_, err = f.engine.Apply(context.Background(), entity.TransactionIssue, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionState)
}

func TestRevert_Draft(t *testing.T) {
	f := newEngineFixture(t)
	id := f.draft(t, lineReq(f.a, "1", false))

	_, err := f.engine.Revert(context.Background(), entity.TransactionIssue, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionState)
}

func TestApply_ConcurrentCallersNeverOversell(t *testing.T) {
	f := newEngineFixture(t)
	const callers = 15

	ids := make([]string, callers)
	for i := range ids {
		ids[i] = f.draft(t, lineReq(f.a, "1", false))
	}

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 5, rejected)
	assert.Equal(t, "0", f.qty(t, f.a))
	assert.Len(t, f.store.MovementsFor(f.a), 10)
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.InsufficientStockError{}, "insufficient_stock"},
		{domain.ErrInvalidTransactionState, "invalid_state"},
		{&domain.EntityNotFoundError{Kind: "fabric", ID: 1}, "bad_reference"},
		{domain.ErrLockTimeout, "lock_timeout"},
		{domain.ErrInvalidQuantity, "invalid_input"},
		{domain.ErrNotFound, "not_found"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inventory.FailureReason(tt.err))
	}
}

func TestBuildLines_Validation(t *testing.T) {
	_, err := inventory.BuildLines([]dto.ConsumptionLineRequest{{EntityKind: "thread", EntityID: 1, Quantity: d("1")}}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrUnknownEntityKind)

	_, err = inventory.BuildLines([]dto.ConsumptionLineRequest{{EntityKind: "fabric", EntityID: 0, Quantity: d("1")}}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = inventory.BuildLines([]dto.ConsumptionLineRequest{{EntityKind: "fabric", EntityID: 1, Quantity: d("0")}}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	lines, err := inventory.BuildLines([]dto.ConsumptionLineRequest{{EntityKind: "Accessory", EntityID: 3, Quantity: d("2")}}, fixedNow)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.NotEmpty(t, lines[0].ID)
	assert.Equal(t, entity.Ref(entity.KindAccessory, 3), lines[0].Ref)
}

func TestNewDraft_RequiresLabel(t *testing.T) {
	_, err := inventory.NewDraft(inventory.DraftInput{Kind: entity.TransactionIssue, Label: "  "}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
