package inventory_test

import (
	"context"
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
)

func TestMovements_ListFilters(t *testing.T) {
	f := newEngineFixture(t)
	first := f.draft(t, lineReq(f.a, "1", false), lineReq(f.b, "1", false))
	second := f.draft(t, lineReq(f.a, "2", false))
	for _, id := range []string{first, second} {
		_, err := f.engine.Apply(context.Background(), entity.TransactionIssue, id)
		require.NoError(t, err)
	}

	uc := inventory.NewMovementsUseCase(f.store.Movements())

	all, err := uc.List(context.Background(), dto.MovementListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, second, all[0].TransactionID, "más recientes primero")

	byItem, err := uc.List(context.Background(), dto.MovementListRequest{Kind: "fabric", EntityID: f.a.ID})
	require.NoError(t, err)
	assert.Len(t, byItem, 2)

	byTxn, err := uc.List(context.Background(), dto.MovementListRequest{TransactionID: first})
	require.NoError(t, err)
	assert.Len(t, byTxn, 2)

	page, err := uc.List(context.Background(), dto.MovementListRequest{PageRequest: dto.PageRequest{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = uc.List(context.Background(), dto.MovementListRequest{Kind: "thread"})
	assert.ErrorIs(t, err, domain.ErrUnknownEntityKind)
}

func TestMovements_ListWindowIsHalfOpen(t *testing.T) {
	store := memstore.New()
	repo := store.Movements()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(context.Background(), &entity.StockMovement{
			Ref:           entity.Ref(entity.KindFabric, 1),
			Delta:         decimal.NewFromInt(-1),
			Reason:        "Issue - Corte",
			TransactionID: "t-1",
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}))
	}
	uc := inventory.NewMovementsUseCase(repo)

	// [08:00, 10:00) incluye 08:00 y 09:00, excluye 10:00
	got, err := uc.List(context.Background(), dto.MovementListRequest{
		From: "2024-03-01T08:00:00Z",
		To:   "2024-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(time.Hour)))
	assert.True(t, got[1].CreatedAt.Equal(base))

	// otra zona horaria, mismo instante
	got, err = uc.List(context.Background(), dto.MovementListRequest{From: "2024-03-01T04:00:00-05:00"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	tests := []struct {
		name string
		req  dto.MovementListRequest
	}{
		{"from inválido", dto.MovementListRequest{From: "ayer"}},
		{"to sin zona", dto.MovementListRequest{To: "2024-03-01 10:00"}},
		{"ventana vacía", dto.MovementListRequest{From: "2024-03-01T10:00:00Z", To: "2024-03-01T10:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.List(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
