package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// StockRepository define el puerto de stock para un tipo concreto de ítem (fabric, accessory, printed).
// Usado dentro de transacciones; LockForUpdate bloquea las filas (SELECT ... FOR UPDATE).
type StockRepository interface {
	Kind() entity.EntityKind
	// LockForUpdate bloquea y carga los ids pedidos en orden ascendente. Los ids inexistentes
	// simplemente no aparecen en el mapa.
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]entity.StockBearing, error)
	// SaveQuantity persiste la cantidad actual del ítem (ya validada por Reduce/Increase).
	SaveQuantity(ctx context.Context, item entity.StockBearing) error
	GetByID(ctx context.Context, id int64) (entity.StockBearing, error)
	// ListBelow lista ítems con cantidad menor al umbral.
	ListBelow(ctx context.Context, threshold decimal.Decimal) ([]entity.StockBearing, error)
}

// StockRegistry mapea cada tipo de ítem a su repositorio.
type StockRegistry map[entity.EntityKind]StockRepository

// For resuelve el repositorio del tipo; ErrUnknownEntityKind si no está registrado.
func (r StockRegistry) For(kind entity.EntityKind) (StockRepository, error) {
	repo, ok := r[kind]
	if !ok || repo == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, kind)
	}
	return repo, nil
}

// PrintedBatchRepository persiste lotes estampados nuevos.
type PrintedBatchRepository interface {
	Create(ctx context.Context, batch *entity.PrintedBatch) error
	// Delete elimina un lote estampado (solo al revertir su producción).
	Delete(ctx context.Context, id int64) error
}
