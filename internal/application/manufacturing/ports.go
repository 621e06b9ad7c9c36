package manufacturing

import (
	"context"

	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

// TxRunner ejecuta una transacción con los repos del libro más los de producto terminado y reglas de costo.
type TxRunner interface {
	RunManufacturing(ctx context.Context, fn func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
		runRepo repository.ManufacturingRunRepository,
		ruleRepo repository.CostRuleRepository,
	) error) error
}
