package repository

import (
	"context"
	"time"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// ConsumptionRepository persiste cabeceras y líneas de transacciones de consumo.
type ConsumptionRepository interface {
	// Create inserta cabecera y líneas.
	Create(ctx context.Context, tx *entity.ConsumptionTransaction) error
	AddLines(ctx context.Context, txID string, lines []*entity.ConsumptionLine) error
	// Get carga cabecera y líneas; domain.ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*entity.ConsumptionTransaction, error)
	// GetForUpdate igual que Get pero bloqueando la cabecera.
	GetForUpdate(ctx context.Context, id string) (*entity.ConsumptionTransaction, error)
	// SaveSnapshots persiste snapshot, nombre y costos de las líneas aplicadas.
	SaveSnapshots(ctx context.Context, lines []*entity.ConsumptionLine) error
	MarkApplied(ctx context.Context, id string, at time.Time) error
	MarkReverted(ctx context.Context, id string, at time.Time) error
}

// ManufacturingRunRepository persiste los datos de producto y costeo de un run.
type ManufacturingRunRepository interface {
	Create(ctx context.Context, run *entity.ManufacturingRun) error
	// Get carga el run sin su transacción; domain.ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*entity.ManufacturingRun, error)
	SKUExists(ctx context.Context, sku string) (bool, error)
	SaveCosting(ctx context.Context, run *entity.ManufacturingRun) error
}

// CostRuleRepository expone las reglas de costo (colaborador externo).
type CostRuleRepository interface {
	// ListActive devuelve las reglas activas ordenadas por nombre.
	ListActive(ctx context.Context) ([]*entity.CostRule, error)
}
