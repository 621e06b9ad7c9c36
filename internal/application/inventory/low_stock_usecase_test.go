package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/infrastructure/memstore"
	"github.com/jhoicas/garment-ledger/pkg/logger"
)

type fakePublisher struct {
	events []dto.LowStockEvent
	err    error
}

func (p *fakePublisher) PublishLowStock(_ context.Context, e dto.LowStockEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func TestLowStock_NotifyPublishesOnlyItemsBelowThreshold(t *testing.T) {
	store := memstore.New()
	low := store.AddFabric(entity.Fabric{ItemName: "Seda"}, d("10"))
	store.AddAccessory(entity.Accessory{ItemName: "Hilo"}, d("100"))
	pub := &fakePublisher{}
	uc := inventory.NewLowStockUseCase(store.Registry(), pub, d("5"), logger.Nop())
	engine := inventory.NewConsumptionEngine(store, uc, logger.Nop())

	txn, err := inventory.NewDraft(inventory.DraftInput{
		Kind:  entity.TransactionIssue,
		Label: "Muestra",
		Lines: []dto.ConsumptionLineRequest{
			{EntityKind: "fabric", EntityID: low, Quantity: d("6")},
			{EntityKind: "accessory", EntityID: 1, Quantity: d("1")},
		},
	}, fixedNow)
	require.NoError(t, err)
	require.NoError(t, store.Consumption().Create(context.Background(), txn))

	_, err = engine.Apply(context.Background(), entity.TransactionIssue, txn.ID)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.Equal(t, dto.EventTypeLowStock, e.EventType)
	assert.Equal(t, "fabric", e.EntityKind)
	assert.Equal(t, low, e.EntityID)
	assert.Equal(t, "Seda", e.ItemName)
	assert.Equal(t, "4", e.Quantity.String())
	assert.Equal(t, "5", e.Threshold.String())
}

func TestLowStock_PublishErrorDoesNotUndoLedger(t *testing.T) {
	store := memstore.New()
	id := store.AddFabric(entity.Fabric{ItemName: "Seda"}, d("3"))
	pub := &fakePublisher{err: errors.New("broker caído")}
	uc := inventory.NewLowStockUseCase(store.Registry(), pub, d("5"), logger.Nop())
	engine := inventory.NewConsumptionEngine(store, uc, logger.Nop())

	txn, err := inventory.NewDraft(inventory.DraftInput{
		Kind:  entity.TransactionIssue,
		Label: "Muestra",
		Lines: []dto.ConsumptionLineRequest{{EntityKind: "fabric", EntityID: id, Quantity: d("1")}},
	}, fixedNow)
	require.NoError(t, err)
	require.NoError(t, store.Consumption().Create(context.Background(), txn))

	_, err = engine.Apply(context.Background(), entity.TransactionIssue, txn.ID)
	require.NoError(t, err)

	q, err := store.Quantity(entity.Ref(entity.KindFabric, id))
	require.NoError(t, err)
	assert.Equal(t, "2", q.String())
}

func TestLowStock_ListOrdersByUrgency(t *testing.T) {
	store := memstore.New()
	store.AddFabric(entity.Fabric{ItemName: "Lino", CostPerUnit: d("4")}, d("8"))
	store.AddFabric(entity.Fabric{ItemName: "Dril"}, d("50"))
	store.AddAccessory(entity.Accessory{ItemName: "Botón", CostPerUnit: d("0.5")}, d("2"))
	store.AddPrinted(entity.PrintedBatch{Product: "Floral"}, d("8"))
	store.ClearQuantity(entity.Ref(entity.KindFabric, 2))

	uc := inventory.NewLowStockUseCase(store.Registry(), nil, d("10"), logger.Nop())
	items, err := uc.ListLowStock(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "Botón", items[0].ItemName)
	assert.Equal(t, 1, items[0].Priority)
	assert.Equal(t, "13", items[0].SuggestedOrderQty.String())
	assert.Equal(t, "6.5", items[0].EstimatedOrderCost.String())

	// empate en stock: desempata por kind y luego id
	assert.Equal(t, "fabric", items[1].EntityKind)
	assert.Equal(t, "printed", items[2].EntityKind)
	assert.Equal(t, "7", items[1].SuggestedOrderQty.String())
	assert.Equal(t, 3, items[2].Priority)
}

func TestLowStock_IsLow(t *testing.T) {
	uc := inventory.NewLowStockUseCase(nil, nil, d("5"), nil)
	assert.True(t, uc.IsLow(d("4.99")))
	assert.False(t, uc.IsLow(d("5")))
	assert.Equal(t, "5", uc.Threshold().String())
}
