package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

var _ repository.ConsumptionRepository = (*ConsumptionRepo)(nil)

// ConsumptionRepo persiste cabeceras (consumption_transactions) y líneas (consumption_lines).
type ConsumptionRepo struct {
	q Querier
}

// NewConsumptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConsumptionRepository(q Querier) *ConsumptionRepo {
	return &ConsumptionRepo{q: q}
}

const transactionColumns = `id, kind, label, order_no, notes, created_by, created_at, applied_at, reverted_at`

// Create inserta la cabecera y sus líneas.
func (r *ConsumptionRepo) Create(ctx context.Context, t *entity.ConsumptionTransaction) error {
	query := `
		INSERT INTO consumption_transactions (id, kind, label, order_no, notes, created_by, created_at, applied_at, reverted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		t.ID, string(t.Kind), t.Label, t.OrderNo, t.Notes, t.CreatedBy, t.CreatedAt, t.AppliedAt, t.RevertedAt,
	)
	if err != nil {
		return wrapErr("insert consumption transaction", err)
	}
	return r.AddLines(ctx, t.ID, t.Lines)
}

// AddLines inserta líneas nuevas; el orden de inserción (seq) es el orden de aplicación.
func (r *ConsumptionRepo) AddLines(ctx context.Context, txID string, lines []*entity.ConsumptionLine) error {
	query := `
		INSERT INTO consumption_lines (id, transaction_id, entity_kind, entity_id, quantity, from_waste, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range lines {
		if _, err := r.q.Exec(ctx, query,
			l.ID, txID, string(l.Ref.Kind), l.Ref.ID, l.Quantity, l.FromWaste, l.CreatedAt,
		); err != nil {
			return wrapErr("insert consumption line", err)
		}
	}
	return nil
}

// Get carga cabecera y líneas.
func (r *ConsumptionRepo) Get(ctx context.Context, id string) (*entity.ConsumptionTransaction, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la cabecera (FOR UPDATE) antes de cargar las líneas.
// Dos apply concurrentes de la misma transacción quedan serializados aquí.
func (r *ConsumptionRepo) GetForUpdate(ctx context.Context, id string) (*entity.ConsumptionTransaction, error) {
	return r.get(ctx, id, true)
}

func (r *ConsumptionRepo) get(ctx context.Context, id string, lock bool) (*entity.ConsumptionTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM consumption_transactions WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var t entity.ConsumptionTransaction
	var kind string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &kind, &t.Label, &t.OrderNo, &t.Notes, &t.CreatedBy, &t.CreatedAt, &t.AppliedAt, &t.RevertedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
		}
		return nil, wrapErr("get consumption transaction", err)
	}
	t.Kind = entity.TransactionKind(kind)

	lines, err := r.lines(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Lines = lines
	return &t, nil
}

func (r *ConsumptionRepo) lines(ctx context.Context, txID string) ([]*entity.ConsumptionLine, error) {
	query := `
		SELECT id, transaction_id, entity_kind, entity_id, COALESCE(item_name, ''), quantity, from_waste,
			stock_snapshot, COALESCE(unit_cost, 0), COALESCE(line_cost, 0), created_at
		FROM consumption_lines
		WHERE transaction_id = $1
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, txID)
	if err != nil {
		return nil, wrapErr("list consumption lines", err)
	}
	defer rows.Close()

	var out []*entity.ConsumptionLine
	for rows.Next() {
		var l entity.ConsumptionLine
		var kind string
		if err := rows.Scan(
			&l.ID, &l.TransactionID, &kind, &l.Ref.ID, &l.ItemName, &l.Quantity, &l.FromWaste,
			&l.StockSnapshot, &l.UnitCost, &l.LineCost, &l.CreatedAt,
		); err != nil {
			return nil, wrapErr("scan consumption line", err)
		}
		l.Ref.Kind = entity.EntityKind(kind)
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list consumption lines", err)
	}
	return out, nil
}

// SaveSnapshots escribe snapshot y costos. El WHERE stock_snapshot IS NULL garantiza escritura única.
func (r *ConsumptionRepo) SaveSnapshots(ctx context.Context, lines []*entity.ConsumptionLine) error {
	query := `
		UPDATE consumption_lines
		SET stock_snapshot = $2, item_name = $3, unit_cost = $4, line_cost = $5
		WHERE id = $1 AND stock_snapshot IS NULL`
	for _, l := range lines {
		tag, err := r.q.Exec(ctx, query, l.ID, l.StockSnapshot, l.ItemName, l.UnitCost, l.LineCost)
		if err != nil {
			return wrapErr("save line snapshot", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: snapshot already recorded for line %s", domain.ErrInvalidTransactionState, l.ID)
		}
	}
	return nil
}

// MarkApplied sella applied_at. Solo afecta cabeceras en Draft.
func (r *ConsumptionRepo) MarkApplied(ctx context.Context, id string, at time.Time) error {
	return r.stamp(ctx, id,
		`UPDATE consumption_transactions SET applied_at = $2 WHERE id = $1 AND applied_at IS NULL AND reverted_at IS NULL`, at)
}

// MarkReverted sella reverted_at. Solo afecta cabeceras aplicadas.
func (r *ConsumptionRepo) MarkReverted(ctx context.Context, id string, at time.Time) error {
	return r.stamp(ctx, id,
		`UPDATE consumption_transactions SET reverted_at = $2 WHERE id = $1 AND applied_at IS NOT NULL AND reverted_at IS NULL`, at)
}

func (r *ConsumptionRepo) stamp(ctx context.Context, id, query string, at time.Time) error {
	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return wrapErr("update transaction state", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s", domain.ErrInvalidTransactionState, id)
	}
	return nil
}
