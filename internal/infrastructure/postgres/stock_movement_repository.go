package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

var pg = goqu.Dialect("postgres")

const defaultMovementLimit = 50

// StockMovementRepo historial de movimientos (append-only; la tabla rechaza UPDATE/DELETE vía trigger).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta un movimiento. Si no trae ID se genera uno.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query, args, err := pg.Insert("stock_movements").Prepared(true).Rows(goqu.Record{
		"id":             m.ID,
		"entity_kind":    string(m.Ref.Kind),
		"entity_id":      m.Ref.ID,
		"delta":          m.Delta,
		"reason":         m.Reason,
		"transaction_id": m.TransactionID,
		"created_at":     m.CreatedAt,
	}).ToSQL()
	if err != nil {
		return wrapErr("build insert movement", err)
	}
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapErr("insert movement", err)
	}
	return nil
}

// List consulta el historial con filtros opcionales, del más reciente al más antiguo.
func (r *StockMovementRepo) List(ctx context.Context, f entity.MovementFilter) ([]*entity.StockMovement, error) {
	ds := pg.From("stock_movements").Prepared(true).
		Select("id", "entity_kind", "entity_id", "delta", "reason", "transaction_id", "created_at")

	if f.Kind != "" {
		ds = ds.Where(goqu.C("entity_kind").Eq(string(f.Kind)))
	}
	if f.EntityID > 0 {
		ds = ds.Where(goqu.C("entity_id").Eq(f.EntityID))
	}
	if f.TransactionID != "" {
		ds = ds.Where(goqu.C("transaction_id").Eq(f.TransactionID))
	}
	if f.From != nil {
		ds = ds.Where(goqu.C("created_at").Gte(*f.From))
	}
	if f.To != nil {
		ds = ds.Where(goqu.C("created_at").Lt(*f.To))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	ds = ds.Order(goqu.C("created_at").Desc(), goqu.C("seq").Desc()).Limit(uint(limit))
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, wrapErr("build list movements", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list movements", err)
	}
	defer rows.Close()

	var out []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var kind string
		if err := rows.Scan(&m.ID, &kind, &m.Ref.ID, &m.Delta, &m.Reason, &m.TransactionID, &m.CreatedAt); err != nil {
			return nil, wrapErr("scan movement", err)
		}
		m.Ref.Kind = entity.EntityKind(kind)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list movements", err)
	}
	return out, nil
}
