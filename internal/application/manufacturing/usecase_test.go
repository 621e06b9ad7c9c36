package manufacturing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/application/manufacturing"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/infrastructure/memstore"
	"github.com/jhoicas/garment-ledger/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store *memstore.Store
	uc    *manufacturing.ManufacturingUseCase
	c     entity.Reference
}

// newFixture: C = accesorio con 10 u a 50.00 y una regla activa de 10%.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	c := store.AddAccessory(entity.Accessory{ItemName: "Forro", CostPerUnit: d("50.00")}, d("10"))
	store.AddCostRule(entity.CostRule{Name: "Mano de obra", Kind: entity.CostRulePercentage, Value: d("10"), Active: true})
	store.AddCostRule(entity.CostRule{Name: "Bordado", Kind: entity.CostRuleFixed, Value: d("99"), Active: false})

	engine := inventory.NewConsumptionEngine(store, nil, logger.Nop())
	return &fixture{
		store: store,
		uc:    manufacturing.NewManufacturingUseCase(store, engine, store.Runs(), store.Consumption()),
		c:     entity.Ref(entity.KindAccessory, c),
	}
}

func (f *fixture) request(apply bool) dto.CreateManufacturingRunRequest {
	return dto.CreateManufacturingRunRequest{
		ProductName: "Chaqueta",
		ProductType: "Outerwear",
		Collection:  "Invierno",
		Color:       "Negro",
		Size:        "M",
		Lines: []dto.ConsumptionLineRequest{
			{EntityKind: string(f.c.Kind), EntityID: f.c.ID, Quantity: d("2")},
		},
		Apply: apply,
	}
}

func (f *fixture) qty(t *testing.T) string {
	t.Helper()
	q, err := f.store.Quantity(f.c)
	require.NoError(t, err)
	return q.String()
}

func TestCreateRun_ApplyComputesCostOverlay(t *testing.T) {
	f := newFixture(t)

	run, err := f.uc.CreateRun(context.Background(), "u-1", f.request(true))
	require.NoError(t, err)

	assert.Equal(t, string(entity.StatusApplied), run.Status)
	assert.Equal(t, "100.00", run.RawTotal.StringFixed(2))
	assert.Equal(t, "10.00", run.ComponentsAdded.StringFixed(2))
	assert.Equal(t, "110.00", run.TotalCost.StringFixed(2))
	require.Len(t, run.Contributions, 1)
	assert.Equal(t, "Mano de obra", run.Contributions[0].Rule)
	assert.Equal(t, "u-1", run.CreatedBy)
	assert.NotEmpty(t, run.SKU)
	assert.Equal(t, "8", f.qty(t))

	moves := f.store.MovementsFor(f.c)
	require.Len(t, moves, 1)
	assert.Equal(t, "Manufacturing - Finished Product creation - finished product: Chaqueta", moves[0].Reason)

	got, err := f.uc.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "110.00", got.TotalCost.StringFixed(2))
	assert.Len(t, got.Lines, 1)
}

func TestCreateRun_DraftThenApply(t *testing.T) {
	f := newFixture(t)

	run, err := f.uc.CreateRun(context.Background(), "", f.request(false))
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDraft), run.Status)
	assert.Equal(t, "10", f.qty(t))

	applied, err := f.uc.ApplyRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "110.00", applied.TotalCost.StringFixed(2))
	assert.Equal(t, "8", f.qty(t))

	_, err = f.uc.ApplyRun(context.Background(), run.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionState)
}

func TestApplyRun_CostRuleFailureRollsBackDeduction(t *testing.T) {
	f := newFixture(t)
	run, err := f.uc.CreateRun(context.Background(), "", f.request(false))
	require.NoError(t, err)

	f.store.FailCostRules(errors.New("tabla de reglas no disponible"))
	_, err = f.uc.ApplyRun(context.Background(), run.ID)
	require.Error(t, err)

	assert.Equal(t, "10", f.qty(t))
	assert.Empty(t, f.store.MovementsFor(f.c))
	got, err := f.uc.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDraft), got.Status)
	assert.True(t, got.TotalCost.IsZero())

	f.store.FailCostRules(nil)
	_, err = f.uc.ApplyRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "8", f.qty(t))
}

func TestCreateRun_ApplyFailureLeavesNoRun(t *testing.T) {
	f := newFixture(t)
	req := f.request(true)
	req.Lines[0].Quantity = d("11")

	_, err := f.uc.CreateRun(context.Background(), "", req)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "10", f.qty(t))

	// el SKU no quedó reservado
	again, err := f.uc.CreateRun(context.Background(), "", f.request(false))
	require.NoError(t, err)
	assert.NotContains(t, again.SKU, "-1")
}

func TestCreateRun_SKUIsUnique(t *testing.T) {
	f := newFixture(t)

	first, err := f.uc.CreateRun(context.Background(), "", f.request(false))
	require.NoError(t, err)
	second, err := f.uc.CreateRun(context.Background(), "", f.request(false))
	require.NoError(t, err)

	assert.Equal(t, first.SKU+"-1", second.SKU)
}

func TestRevertRun_KeepsCosting(t *testing.T) {
	f := newFixture(t)
	run, err := f.uc.CreateRun(context.Background(), "", f.request(true))
	require.NoError(t, err)

	reverted, err := f.uc.RevertRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusReverted), reverted.Status)
	assert.Equal(t, "110.00", reverted.TotalCost.StringFixed(2))
	assert.Equal(t, "10", f.qty(t))
}

func TestCreateRun_Validation(t *testing.T) {
	f := newFixture(t)
	req := f.request(false)
	req.ProductName = " "
	_, err := f.uc.CreateRun(context.Background(), "", req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
