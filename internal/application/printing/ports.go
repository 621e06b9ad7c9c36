package printing

import (
	"context"

	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

// TxRunner ejecuta una transacción con los repos del libro más el de lotes estampados.
type TxRunner interface {
	RunPrinting(ctx context.Context, fn func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
		printedRepo repository.PrintedBatchRepository,
	) error) error
}
