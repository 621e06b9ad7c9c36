package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

var _ repository.ManufacturingRunRepository = (*ManufacturingRunRepo)(nil)

// ManufacturingRunRepo datos de producto y costeo (manufacturing_runs + manufacturing_run_costs).
type ManufacturingRunRepo struct {
	q Querier
}

// NewManufacturingRunRepository construye el adaptador. Pasar pool o tx (Querier).
func NewManufacturingRunRepository(q Querier) *ManufacturingRunRepo {
	return &ManufacturingRunRepo{q: q}
}

// Create inserta el run. La cabecera de consumo debe existir (FK por id).
func (r *ManufacturingRunRepo) Create(ctx context.Context, run *entity.ManufacturingRun) error {
	query := `
		INSERT INTO manufacturing_runs (id, product_name, product_type, collection, color, size, sku,
			raw_total, components_added, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		run.ID(), run.ProductName, run.ProductType, run.Collection, run.Color, run.Size, run.SKU,
		run.RawTotal, run.ComponentsAdded, run.TotalCost,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, run.SKU)
		}
		return wrapErr("insert manufacturing run", err)
	}
	return nil
}

// Get carga el run con sus aportes de costo, sin la transacción.
func (r *ManufacturingRunRepo) Get(ctx context.Context, id string) (*entity.ManufacturingRun, error) {
	query := `
		SELECT id, product_name, product_type, collection, color, size, sku,
			raw_total, components_added, total_cost
		FROM manufacturing_runs WHERE id = $1`
	run := &entity.ManufacturingRun{}
	var runID string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&runID, &run.ProductName, &run.ProductType, &run.Collection, &run.Color, &run.Size, &run.SKU,
		&run.RawTotal, &run.ComponentsAdded, &run.TotalCost,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: manufacturing run %s", domain.ErrNotFound, id)
		}
		return nil, wrapErr("get manufacturing run", err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT rule_name, amount FROM manufacturing_run_costs WHERE run_id = $1 ORDER BY rule_name`, id)
	if err != nil {
		return nil, wrapErr("list run costs", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c entity.CostContribution
		if err := rows.Scan(&c.RuleName, &c.Amount); err != nil {
			return nil, wrapErr("scan run cost", err)
		}
		run.Contributions = append(run.Contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list run costs", err)
	}
	return run, nil
}

// SKUExists indica si el SKU ya fue asignado a otro run.
func (r *ManufacturingRunRepo) SKUExists(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM manufacturing_runs WHERE sku = $1)`, sku).Scan(&exists)
	if err != nil {
		return false, wrapErr("check sku", err)
	}
	return exists, nil
}

// SaveCosting reemplaza totales y aportes por regla.
func (r *ManufacturingRunRepo) SaveCosting(ctx context.Context, run *entity.ManufacturingRun) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE manufacturing_runs SET raw_total = $2, components_added = $3, total_cost = $4 WHERE id = $1`,
		run.ID(), run.RawTotal, run.ComponentsAdded, run.TotalCost)
	if err != nil {
		return wrapErr("save run costing", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: manufacturing run %s", domain.ErrNotFound, run.ID())
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM manufacturing_run_costs WHERE run_id = $1`, run.ID()); err != nil {
		return wrapErr("clear run costs", err)
	}
	for _, c := range run.Contributions {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO manufacturing_run_costs (run_id, rule_name, amount) VALUES ($1, $2, $3)`,
			run.ID(), c.RuleName, c.Amount); err != nil {
			return wrapErr("insert run cost", err)
		}
	}
	return nil
}
