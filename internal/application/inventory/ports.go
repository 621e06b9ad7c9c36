package inventory

import (
	"context"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de consumo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
	) error) error
}

// LowStockNotifier recibe los ítems mutados tras un commit exitoso.
type LowStockNotifier interface {
	Notify(ctx context.Context, items []entity.StockBearing)
}

// LowStockPublisher publica eventos de stock bajo (Kafka o log).
type LowStockPublisher interface {
	PublishLowStock(ctx context.Context, event dto.LowStockEvent) error
}
