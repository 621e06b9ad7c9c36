package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

func newRegistry(acc accessor) repository.StockRegistry {
	return repository.StockRegistry{
		entity.KindFabric:    &stockRepo{kind: entity.KindFabric, acc: acc},
		entity.KindAccessory: &stockRepo{kind: entity.KindAccessory, acc: acc},
		entity.KindPrinted:   &stockRepo{kind: entity.KindPrinted, acc: acc},
	}
}

// ── Stock ───────────────────────────────────────────────────────────────────

type stockRepo struct {
	kind entity.EntityKind
	acc  accessor
}

func (r *stockRepo) Kind() entity.EntityKind { return r.kind }

func (r *stockRepo) LockForUpdate(_ context.Context, ids []int64) (map[int64]entity.StockBearing, error) {
	out := make(map[int64]entity.StockBearing, len(ids))
	err := r.acc(func(st *state) error {
		for _, id := range ids {
			item, ok, err := r.load(st, id)
			if err != nil {
				return err
			}
			if ok {
				out[id] = item
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stockRepo) GetByID(_ context.Context, id int64) (entity.StockBearing, error) {
	var item entity.StockBearing
	err := r.acc(func(st *state) error {
		it, ok, err := r.load(st, id)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.EntityNotFoundError{Kind: string(r.kind), ID: id}
		}
		item = it
		return nil
	})
	return item, err
}

func (r *stockRepo) SaveQuantity(_ context.Context, item entity.StockBearing) error {
	id := item.Ref().ID
	qty := decimal.NewNullDecimal(item.Quantity())
	return r.acc(func(st *state) error {
		switch r.kind {
		case entity.KindFabric:
			row, ok := st.fabrics[id]
			if !ok {
				return &domain.EntityNotFoundError{Kind: string(r.kind), ID: id}
			}
			row.qty = qty
			st.fabrics[id] = row
		case entity.KindAccessory:
			row, ok := st.accessories[id]
			if !ok {
				return &domain.EntityNotFoundError{Kind: string(r.kind), ID: id}
			}
			row.qty = qty
			st.accessories[id] = row
		case entity.KindPrinted:
			row, ok := st.printed[id]
			if !ok {
				return &domain.EntityNotFoundError{Kind: string(r.kind), ID: id}
			}
			row.qty = qty
			st.printed[id] = row
		}
		return nil
	})
}

func (r *stockRepo) ListBelow(_ context.Context, threshold decimal.Decimal) ([]entity.StockBearing, error) {
	var out []entity.StockBearing
	err := r.acc(func(st *state) error {
		var ids []int64
		switch r.kind {
		case entity.KindFabric:
			ids = sortedIDs(st.fabrics)
		case entity.KindAccessory:
			ids = sortedIDs(st.accessories)
		case entity.KindPrinted:
			ids = sortedIDs(st.printed)
		}
		for _, id := range ids {
			item, ok, err := r.load(st, id)
			if err != nil || !ok {
				continue // filas sin cantidad legible no participan en la alerta
			}
			if item.Quantity().LessThan(threshold) {
				out = append(out, item)
			}
		}
		return nil
	})
	return out, err
}

func (r *stockRepo) load(st *state, id int64) (entity.StockBearing, bool, error) {
	unavailable := func() error {
		return fmt.Errorf("%w: %s #%d", domain.ErrStockFieldUnavailable, r.kind, id)
	}
	switch r.kind {
	case entity.KindFabric:
		row, ok := st.fabrics[id]
		if !ok {
			return nil, false, nil
		}
		if !row.qty.Valid {
			return nil, false, unavailable()
		}
		f, err := entity.NewFabric(row.attrs, row.qty.Decimal)
		return f, err == nil, err
	case entity.KindAccessory:
		row, ok := st.accessories[id]
		if !ok {
			return nil, false, nil
		}
		if !row.qty.Valid {
			return nil, false, unavailable()
		}
		a, err := entity.NewAccessory(row.attrs, row.qty.Decimal)
		return a, err == nil, err
	case entity.KindPrinted:
		row, ok := st.printed[id]
		if !ok {
			return nil, false, nil
		}
		if !row.qty.Valid {
			return nil, false, unavailable()
		}
		attrs := row.attrs
		if fabric, ok := st.fabrics[attrs.FabricID]; ok {
			attrs.FabricCost = fabric.attrs.CostPerUnit
		}
		p, err := entity.NewPrintedBatch(attrs, row.qty.Decimal)
		return p, err == nil, err
	}
	return nil, false, fmt.Errorf("%w: %q", domain.ErrUnknownEntityKind, r.kind)
}

// ── Lotes estampados ────────────────────────────────────────────────────────

type printedBatchRepo struct {
	acc accessor
}

func (r *printedBatchRepo) Create(_ context.Context, b *entity.PrintedBatch) error {
	return r.acc(func(st *state) error {
		if b.ID == 0 {
			b.ID = nextID(st.printed)
		}
		if _, exists := st.printed[b.ID]; exists {
			return domain.ErrDuplicate
		}
		st.printed[b.ID] = printedRow{attrs: *b, qty: decimal.NewNullDecimal(b.Quantity())}
		return nil
	})
}

func (r *printedBatchRepo) Delete(_ context.Context, id int64) error {
	return r.acc(func(st *state) error {
		if _, ok := st.printed[id]; !ok {
			return &domain.EntityNotFoundError{Kind: string(entity.KindPrinted), ID: id}
		}
		delete(st.printed, id)
		return nil
	})
}

// ── Movimientos ─────────────────────────────────────────────────────────────

type movementRepo struct {
	acc accessor
}

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return r.acc(func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *movementRepo) List(_ context.Context, f entity.MovementFilter) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.acc(func(st *state) error {
		// más recientes primero
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.Kind != "" && m.Ref.Kind != f.Kind {
				continue
			}
			if f.EntityID != 0 && m.Ref.ID != f.EntityID {
				continue
			}
			if f.TransactionID != "" && m.TransactionID != f.TransactionID {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !m.CreatedAt.Before(*f.To) {
				continue
			}
			mm := m
			out = append(out, &mm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if f.Offset >= len(out) {
		return []*entity.StockMovement{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ── Transacciones de consumo ────────────────────────────────────────────────

type consumptionRepo struct {
	acc accessor
}

func (r *consumptionRepo) Create(_ context.Context, t *entity.ConsumptionTransaction) error {
	return r.acc(func(st *state) error {
		if _, exists := st.transactions[t.ID]; exists {
			return fmt.Errorf("%w: transaction %s", domain.ErrDuplicate, t.ID)
		}
		header := *t
		header.Lines = nil
		row := txRow{header: header}
		for _, l := range t.Lines {
			row.lines = append(row.lines, *l)
		}
		st.transactions[t.ID] = row
		return nil
	})
}

func (r *consumptionRepo) AddLines(_ context.Context, txID string, lines []*entity.ConsumptionLine) error {
	return r.acc(func(st *state) error {
		row, ok := st.transactions[txID]
		if !ok {
			return domain.ErrNotFound
		}
		for _, l := range lines {
			row.lines = append(row.lines, *l)
		}
		st.transactions[txID] = row
		return nil
	})
}

func (r *consumptionRepo) Get(_ context.Context, id string) (*entity.ConsumptionTransaction, error) {
	var out *entity.ConsumptionTransaction
	err := r.acc(func(st *state) error {
		row, ok := st.transactions[id]
		if !ok {
			return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
		}
		t := row.header
		for _, l := range row.lines {
			line := l
			t.Lines = append(t.Lines, &line)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *consumptionRepo) GetForUpdate(ctx context.Context, id string) (*entity.ConsumptionTransaction, error) {
	return r.Get(ctx, id)
}

func (r *consumptionRepo) SaveSnapshots(_ context.Context, lines []*entity.ConsumptionLine) error {
	return r.acc(func(st *state) error {
		for _, l := range lines {
			row, ok := st.transactions[l.TransactionID]
			if !ok {
				return domain.ErrNotFound
			}
			found := false
			for i := range row.lines {
				if row.lines[i].ID != l.ID {
					continue
				}
				if row.lines[i].StockSnapshot.Valid {
					return fmt.Errorf("%w: snapshot already recorded for line %s", domain.ErrInvalidTransactionState, l.ID)
				}
				row.lines[i].StockSnapshot = l.StockSnapshot
				row.lines[i].ItemName = l.ItemName
				row.lines[i].UnitCost = l.UnitCost
				row.lines[i].LineCost = l.LineCost
				found = true
			}
			if !found {
				return fmt.Errorf("%w: line %s", domain.ErrNotFound, l.ID)
			}
			st.transactions[l.TransactionID] = row
		}
		return nil
	})
}

func (r *consumptionRepo) MarkApplied(_ context.Context, id string, at time.Time) error {
	return r.acc(func(st *state) error {
		row, ok := st.transactions[id]
		if !ok {
			return domain.ErrNotFound
		}
		if row.header.AppliedAt != nil {
			return domain.ErrInvalidTransactionState
		}
		row.header.AppliedAt = &at
		st.transactions[id] = row
		return nil
	})
}

func (r *consumptionRepo) MarkReverted(_ context.Context, id string, at time.Time) error {
	return r.acc(func(st *state) error {
		row, ok := st.transactions[id]
		if !ok {
			return domain.ErrNotFound
		}
		if row.header.AppliedAt == nil || row.header.RevertedAt != nil {
			return domain.ErrInvalidTransactionState
		}
		row.header.RevertedAt = &at
		st.transactions[id] = row
		return nil
	})
}

// ── Runs de manufactura y reglas de costo ───────────────────────────────────

type runRepo struct {
	acc accessor
}

func (r *runRepo) Create(_ context.Context, run *entity.ManufacturingRun) error {
	return r.acc(func(st *state) error {
		id := run.ID()
		if _, exists := st.runs[id]; exists {
			return domain.ErrDuplicate
		}
		for _, other := range st.runs {
			if run.SKU != "" && other.SKU == run.SKU {
				return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, run.SKU)
			}
		}
		row := *run
		row.Transaction = &entity.ConsumptionTransaction{ID: id}
		st.runs[id] = row
		return nil
	})
}

func (r *runRepo) Get(_ context.Context, id string) (*entity.ManufacturingRun, error) {
	var out *entity.ManufacturingRun
	err := r.acc(func(st *state) error {
		row, ok := st.runs[id]
		if !ok {
			return fmt.Errorf("%w: manufacturing run %s", domain.ErrNotFound, id)
		}
		row.Contributions = append([]entity.CostContribution(nil), row.Contributions...)
		row.Transaction = nil
		out = &row
		return nil
	})
	return out, err
}

func (r *runRepo) SKUExists(_ context.Context, sku string) (bool, error) {
	exists := false
	err := r.acc(func(st *state) error {
		for _, run := range st.runs {
			if run.SKU == sku {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r *runRepo) SaveCosting(_ context.Context, run *entity.ManufacturingRun) error {
	return r.acc(func(st *state) error {
		id := run.ID()
		row, ok := st.runs[id]
		if !ok {
			return domain.ErrNotFound
		}
		row.RawTotal = run.RawTotal
		row.ComponentsAdded = run.ComponentsAdded
		row.TotalCost = run.TotalCost
		row.Contributions = append([]entity.CostContribution(nil), run.Contributions...)
		st.runs[id] = row
		return nil
	})
}

type costRuleRepo struct {
	acc  accessor
	fail error
}

func (r *costRuleRepo) ListActive(_ context.Context) ([]*entity.CostRule, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	var out []*entity.CostRule
	err := r.acc(func(st *state) error {
		for _, rule := range st.rules {
			if rule.Active {
				rr := rule
				out = append(out, &rr)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}
