package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/application/manufacturing"
	"github.com/jhoicas/garment-ledger/internal/application/printing"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

// Ensure TxRunner implements los runners de cada flujo.
var (
	_ inventory.TxRunner     = (*TxRunner)(nil)
	_ manufacturing.TxRunner = (*TxRunner)(nil)
	_ printing.TxRunner      = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout <= 0 deja el valor del servidor.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStockRegistry(tx), NewStockMovementRepository(tx), NewConsumptionRepository(tx))
	})
}

// RunManufacturing inicia una transacción con repos del libro, runs de manufactura y reglas de costo.
func (r *TxRunner) RunManufacturing(ctx context.Context, fn func(
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
	runRepo repository.ManufacturingRunRepository,
	ruleRepo repository.CostRuleRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(
			NewStockRegistry(tx),
			NewStockMovementRepository(tx),
			NewConsumptionRepository(tx),
			NewManufacturingRunRepository(tx),
			NewCostRuleRepository(tx),
		)
	})
}

// RunPrinting inicia una transacción con repos del libro y de lotes estampados.
func (r *TxRunner) RunPrinting(ctx context.Context, fn func(
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
	printedRepo repository.PrintedBatchRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStockRegistry(tx), NewStockMovementRepository(tx), NewConsumptionRepository(tx), NewPrintedBatchRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock_timeout solo vale para esta transacción; al agotarse PostgreSQL devuelve 55P03
	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
