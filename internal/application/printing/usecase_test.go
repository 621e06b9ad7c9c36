package printing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/application/printing"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/infrastructure/memstore"
	"github.com/jhoicas/garment-ledger/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*memstore.Store, *printing.PrintingUseCase, entity.Reference) {
	t.Helper()
	store := memstore.New()
	id := store.AddFabric(entity.Fabric{
		ItemName:    "Popelina",
		CostPerUnit: d("6.25"),
		Width:       d("1.5"),
		VendorID:    7,
	}, d("20"))
	engine := inventory.NewConsumptionEngine(store, nil, logger.Nop())
	return store, printing.NewPrintingUseCase(store, engine), entity.Ref(entity.KindFabric, id)
}

func TestProduce_InheritsFromFabric(t *testing.T) {
	store, uc, fabric := setup(t)

	resp, err := uc.Produce(context.Background(), "u-1", dto.CreatePrintedBatchRequest{
		FabricID:     fabric.ID,
		Product:      "Floral azul",
		QuantityUsed: d("5"),
	})
	require.NoError(t, err)

	assert.Equal(t, "6.25", resp.UnitCost.String())
	assert.Equal(t, int64(7), resp.VendorID)
	assert.Equal(t, "5", resp.Stock.String(), "stock inicial por defecto = cantidad usada")
	assert.Equal(t, "m", resp.Unit)
	assert.NotEmpty(t, resp.TransactionID)

	q, err := store.Quantity(fabric)
	require.NoError(t, err)
	assert.Equal(t, "15", q.String())

	batches := store.PrintedBatches()
	require.Len(t, batches, 1)
	assert.Equal(t, "1.5", batches[0].Width.String())

	moves := store.MovementsFor(fabric)
	require.Len(t, moves, 1)
	assert.Equal(t, "-5", moves[0].Delta.String())
	assert.Equal(t, "Printing - Printed fabric creation - product: Floral azul", moves[0].Reason)
	assert.Equal(t, resp.TransactionID, moves[0].TransactionID)
}

func TestProduce_ExplicitValuesWin(t *testing.T) {
	_, uc, fabric := setup(t)
	initial := d("4.5")

	resp, err := uc.Produce(context.Background(), "", dto.CreatePrintedBatchRequest{
		FabricID:     fabric.ID,
		Product:      "Geométrico",
		Unit:         "CM",
		QuantityUsed: d("3"),
		CostPerUnit:  d("9"),
		VendorID:     11,
		InitialStock: &initial,
	})
	require.NoError(t, err)
	assert.Equal(t, "9", resp.UnitCost.String())
	assert.Equal(t, int64(11), resp.VendorID)
	assert.Equal(t, "4.5", resp.Stock.String())
	assert.Equal(t, "cm", resp.Unit)
}

func TestProduce_InsufficientFabricCreatesNothing(t *testing.T) {
	store, uc, fabric := setup(t)

	_, err := uc.Produce(context.Background(), "", dto.CreatePrintedBatchRequest{
		FabricID:     fabric.ID,
		Product:      "Floral",
		QuantityUsed: d("20.01"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, store.PrintedBatches())
	assert.Zero(t, store.MovementCount())
}

func TestProduce_Validation(t *testing.T) {
	_, uc, fabric := setup(t)
	tests := []struct {
		name string
		req  dto.CreatePrintedBatchRequest
		want error
	}{
		{"sin producto", dto.CreatePrintedBatchRequest{FabricID: fabric.ID, QuantityUsed: d("1")}, domain.ErrInvalidInput},
		{"sin tela", dto.CreatePrintedBatchRequest{Product: "X", QuantityUsed: d("1")}, domain.ErrInvalidInput},
		{"cantidad cero", dto.CreatePrintedBatchRequest{FabricID: fabric.ID, Product: "X"}, domain.ErrInvalidQuantity},
		{"unidad", dto.CreatePrintedBatchRequest{FabricID: fabric.ID, Product: "X", QuantityUsed: d("1"), Unit: "yd"}, domain.ErrInvalidInput},
		{"tela inexistente", dto.CreatePrintedBatchRequest{FabricID: 99, Product: "X", QuantityUsed: d("1")}, domain.ErrEntityNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Produce(context.Background(), "", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProduce_InheritsDescriptiveAttributes(t *testing.T) {
	store := memstore.New()
	id := store.AddFabric(entity.Fabric{
		ItemName:    "Lino",
		BaseColor:   "azul",
		Type:        "Algodón",
		UseIn:       "Camisas",
		Quality:     "A",
		CostPerUnit: d("8"),
	}, d("10"))
	engine := inventory.NewConsumptionEngine(store, nil, logger.Nop())
	uc := printing.NewPrintingUseCase(store, engine)

	_, err := uc.Produce(context.Background(), "", dto.CreatePrintedBatchRequest{
		FabricID:     id,
		Product:      "Rayas",
		Quality:      "B",
		QuantityUsed: d("2"),
	})
	require.NoError(t, err)

	batches := store.PrintedBatches()
	require.Len(t, batches, 1)
	assert.Equal(t, "azul", batches[0].BaseColor)
	assert.Equal(t, "Algodón", batches[0].ProductType)
	assert.Equal(t, "Camisas", batches[0].UseIn)
	assert.Equal(t, "B", batches[0].Quality, "el valor explícito gana sobre la tela")
	assert.NotEmpty(t, batches[0].TransactionID)
}

func TestRevert_RestoresFabricAndRemovesBatch(t *testing.T) {
	store, uc, fabric := setup(t)
	ctx := context.Background()

	created, err := uc.Produce(ctx, "u-1", dto.CreatePrintedBatchRequest{
		FabricID:     fabric.ID,
		Product:      "Floral azul",
		QuantityUsed: d("5"),
	})
	require.NoError(t, err)

	resp, err := uc.Revert(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TransactionID, resp.ID)
	assert.NotNil(t, resp.RevertedAt)

	q, err := store.Quantity(fabric)
	require.NoError(t, err)
	assert.Equal(t, "20", q.String())
	assert.Empty(t, store.PrintedBatches())

	moves := store.MovementsFor(fabric)
	require.Len(t, moves, 2)
	var deltas []string
	for _, m := range moves {
		deltas = append(deltas, m.Delta.String())
		assert.Equal(t, created.TransactionID, m.TransactionID)
	}
	assert.ElementsMatch(t, []string{"-5", "5"}, deltas)

	txn, err := store.Consumption().Get(ctx, created.TransactionID)
	require.NoError(t, err)
	assert.NotNil(t, txn.RevertedAt)

	_, err = uc.Revert(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound, "el lote ya no existe")
}

func TestRevert_ConsumedBatchIsRejected(t *testing.T) {
	store, uc, fabric := setup(t)
	ctx := context.Background()

	created, err := uc.Produce(ctx, "", dto.CreatePrintedBatchRequest{
		FabricID:     fabric.ID,
		Product:      "Cuadros",
		QuantityUsed: d("5"),
	})
	require.NoError(t, err)

	// una salida de bodega consume parte del lote
	issue, err := inventory.NewDraft(inventory.DraftInput{
		Kind:  entity.TransactionIssue,
		Label: "Corte 7",
		Lines: []dto.ConsumptionLineRequest{{
			EntityKind: string(entity.KindPrinted),
			EntityID:   created.ID,
			Quantity:   d("1"),
		}},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Consumption().Create(ctx, issue))
	_, err = inventory.NewConsumptionEngine(store, nil, logger.Nop()).Apply(ctx, entity.TransactionIssue, issue.ID)
	require.NoError(t, err)

	_, err = uc.Revert(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionState)

	q, err := store.Quantity(fabric)
	require.NoError(t, err)
	assert.Equal(t, "15", q.String(), "la tela no se restituye")
	require.Len(t, store.PrintedBatches(), 1)

	txn, err := store.Consumption().Get(ctx, created.TransactionID)
	require.NoError(t, err)
	assert.Nil(t, txn.RevertedAt, "el rollback deja la transacción aplicada")
}

func TestRevert_InvalidID(t *testing.T) {
	_, uc, _ := setup(t)

	_, err := uc.Revert(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Revert(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)
}
