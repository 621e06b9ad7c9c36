// Package memstore implementa los puertos de persistencia en memoria con semántica transaccional:
// cada Run trabaja sobre una copia del estado y solo la publica si fn no falla. Un mutex global
// serializa las transacciones (equivale a bloquear todas las filas). Se usa en tests y demos.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

type fabricRow struct {
	attrs entity.Fabric
	qty   decimal.NullDecimal
}

type accessoryRow struct {
	attrs entity.Accessory
	qty   decimal.NullDecimal
}

type printedRow struct {
	attrs entity.PrintedBatch
	qty   decimal.NullDecimal
}

type txRow struct {
	header entity.ConsumptionTransaction // Lines siempre nil
	lines  []entity.ConsumptionLine
}

type state struct {
	fabrics      map[int64]fabricRow
	accessories  map[int64]accessoryRow
	printed      map[int64]printedRow
	transactions map[string]txRow
	movements    []entity.StockMovement
	runs         map[string]entity.ManufacturingRun
	rules        []entity.CostRule
}

func newState() state {
	return state{
		fabrics:      map[int64]fabricRow{},
		accessories:  map[int64]accessoryRow{},
		printed:      map[int64]printedRow{},
		transactions: map[string]txRow{},
		runs:         map[string]entity.ManufacturingRun{},
	}
}

func (s state) clone() *state {
	c := newState()
	for k, v := range s.fabrics {
		c.fabrics[k] = v
	}
	for k, v := range s.accessories {
		c.accessories[k] = v
	}
	for k, v := range s.printed {
		c.printed[k] = v
	}
	for k, v := range s.transactions {
		v.lines = append([]entity.ConsumptionLine(nil), v.lines...)
		c.transactions[k] = v
	}
	for k, v := range s.runs {
		v.Contributions = append([]entity.CostContribution(nil), v.Contributions...)
		c.runs[k] = v
	}
	c.movements = append([]entity.StockMovement(nil), s.movements...)
	c.rules = append([]entity.CostRule(nil), s.rules...)
	return &c
}

// accessor da acceso al estado: la copia de trabajo dentro de Run, o el estado confirmado fuera.
type accessor func(fn func(st *state) error) error

// Store es el almacén en memoria.
type Store struct {
	mu            sync.Mutex
	state         state
	costRulesFail error
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{state: newState()}
}

// committed accede al estado confirmado (autocommit, fuera de transacción).
func (s *Store) committed(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// Run ejecuta fn sobre una copia del estado; la publica solo si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
) error) error {
	return s.run(ctx, func(acc accessor) error {
		return fn(newRegistry(acc), &movementRepo{acc: acc}, &consumptionRepo{acc: acc})
	})
}

// RunManufacturing igual que Run, con repos de runs y reglas de costo.
func (s *Store) RunManufacturing(ctx context.Context, fn func(
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
	runRepo repository.ManufacturingRunRepository,
	ruleRepo repository.CostRuleRepository,
) error) error {
	return s.run(ctx, func(acc accessor) error {
		return fn(newRegistry(acc), &movementRepo{acc: acc}, &consumptionRepo{acc: acc},
			&runRepo{acc: acc}, &costRuleRepo{acc: acc, fail: s.costRulesFail})
	})
}

// RunPrinting igual que Run, con el repo de lotes estampados.
func (s *Store) RunPrinting(ctx context.Context, fn func(
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
	printedRepo repository.PrintedBatchRepository,
) error) error {
	return s.run(ctx, func(acc accessor) error {
		return fn(newRegistry(acc), &movementRepo{acc: acc}, &consumptionRepo{acc: acc}, &printedBatchRepo{acc: acc})
	})
}

func (s *Store) run(ctx context.Context, fn func(acc accessor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	acc := func(f func(st *state) error) error { return f(work) }
	if err := fn(acc); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.state = *work
	return nil
}

// ── Repos fuera de transacción ─────────────────────────────────────────────

// Registry repos de stock sobre el estado confirmado.
func (s *Store) Registry() repository.StockRegistry { return newRegistry(s.committed) }

// Movements repo del historial sobre el estado confirmado.
func (s *Store) Movements() repository.StockMovementRepository {
	return &movementRepo{acc: s.committed}
}

// Consumption repo de transacciones sobre el estado confirmado.
func (s *Store) Consumption() repository.ConsumptionRepository {
	return &consumptionRepo{acc: s.committed}
}

// Runs repo de runs de manufactura sobre el estado confirmado.
func (s *Store) Runs() repository.ManufacturingRunRepository { return &runRepo{acc: s.committed} }

// ── Semillas e inspección (tests) ──────────────────────────────────────────

// AddFabric registra una tela con stock qty y devuelve su id.
func (s *Store) AddFabric(f entity.Fabric, qty decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == 0 {
		f.ID = nextID(s.state.fabrics)
	}
	s.state.fabrics[f.ID] = fabricRow{attrs: f, qty: decimal.NewNullDecimal(qty)}
	return f.ID
}

// AddAccessory registra un accesorio con stock qty y devuelve su id.
func (s *Store) AddAccessory(a entity.Accessory, qty decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = nextID(s.state.accessories)
	}
	s.state.accessories[a.ID] = accessoryRow{attrs: a, qty: decimal.NewNullDecimal(qty)}
	return a.ID
}

// AddPrinted registra un lote estampado con stock qty y devuelve su id.
func (s *Store) AddPrinted(p entity.PrintedBatch, qty decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = nextID(s.state.printed)
	}
	s.state.printed[p.ID] = printedRow{attrs: p, qty: decimal.NewNullDecimal(qty)}
	return p.ID
}

// AddCostRule registra una regla de costo.
func (s *Store) AddCostRule(r entity.CostRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = int64(len(s.state.rules) + 1)
	}
	s.state.rules = append(s.state.rules, r)
}

// FailCostRules hace que ListActive devuelva err (nil para restaurar).
func (s *Store) FailCostRules(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costRulesFail = err
}

// ClearQuantity deja la cantidad del ítem en NULL (fila legada sin stock legible).
func (s *Store) ClearQuantity(ref entity.Reference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ref.Kind {
	case entity.KindFabric:
		r := s.state.fabrics[ref.ID]
		r.qty = decimal.NullDecimal{}
		s.state.fabrics[ref.ID] = r
	case entity.KindAccessory:
		r := s.state.accessories[ref.ID]
		r.qty = decimal.NullDecimal{}
		s.state.accessories[ref.ID] = r
	case entity.KindPrinted:
		r := s.state.printed[ref.ID]
		r.qty = decimal.NullDecimal{}
		s.state.printed[ref.ID] = r
	}
}

// Quantity cantidad confirmada del ítem.
func (s *Store) Quantity(ref entity.Reference) (decimal.Decimal, error) {
	item, err := s.Registry()[ref.Kind].GetByID(context.Background(), ref.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return item.Quantity(), nil
}

// MovementsFor movimientos confirmados de un ítem, en orden de inserción.
func (s *Store) MovementsFor(ref entity.Reference) []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.StockMovement
	for _, m := range s.state.movements {
		if m.Ref == ref {
			out = append(out, m)
		}
	}
	return out
}

// MovementCount total de movimientos confirmados.
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.movements)
}

// PrintedBatches lotes estampados confirmados, ordenados por id.
func (s *Store) PrintedBatches() []entity.PrintedBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := sortedIDs(s.state.printed)
	out := make([]entity.PrintedBatch, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.state.printed[id].attrs)
	}
	return out
}

func nextID[V any](m map[int64]V) int64 {
	var max int64
	for id := range m {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
