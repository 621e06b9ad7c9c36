package postgres

import (
	"context"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

var _ repository.CostRuleRepository = (*CostRuleRepo)(nil)

// CostRuleRepo lectura de cost_components.
type CostRuleRepo struct {
	q Querier
}

// NewCostRuleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCostRuleRepository(q Querier) *CostRuleRepo {
	return &CostRuleRepo{q: q}
}

// ListActive reglas activas ordenadas por nombre.
func (r *CostRuleRepo) ListActive(ctx context.Context) ([]*entity.CostRule, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, name, kind, value, active FROM cost_components WHERE active ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("list cost rules", err)
	}
	defer rows.Close()

	var out []*entity.CostRule
	for rows.Next() {
		var c entity.CostRule
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &kind, &c.Value, &c.Active); err != nil {
			return nil, wrapErr("scan cost rule", err)
		}
		c.Kind = entity.CostRuleKind(kind)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list cost rules", err)
	}
	return out, nil
}
