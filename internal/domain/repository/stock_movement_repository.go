package repository

import (
	"context"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// StockMovementRepository define el puerto del historial de movimientos (solo inserción y consulta).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.StockMovement, error)
}
