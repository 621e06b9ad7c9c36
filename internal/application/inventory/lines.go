package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// BuildLines convierte las líneas recibidas en líneas de consumo validadas (kind conocido, id > 0,
// cantidad > 0 salvo desperdicio). Asigna IDs nuevos.
func BuildLines(reqs []dto.ConsumptionLineRequest, now time.Time) ([]*entity.ConsumptionLine, error) {
	lines := make([]*entity.ConsumptionLine, 0, len(reqs))
	for i, r := range reqs {
		kind, err := entity.ParseEntityKind(r.EntityKind)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if r.EntityID <= 0 {
			return nil, fmt.Errorf("line %d: %w: entity_id", i+1, domain.ErrInvalidInput)
		}
		line, err := entity.NewConsumptionLine(entity.Ref(kind, r.EntityID), r.Quantity, r.FromWaste)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		line.ID = uuid.New().String()
		line.CreatedAt = now
		lines = append(lines, line)
	}
	return lines, nil
}

// DraftInput datos de cabecera de una transacción nueva.
type DraftInput struct {
	Kind      entity.TransactionKind
	Label     string
	OrderNo   string
	Notes     string
	CreatedBy string
	Lines     []dto.ConsumptionLineRequest
}

// NewDraft construye una transacción en Draft con sus líneas.
func NewDraft(in DraftInput, now time.Time) (*entity.ConsumptionTransaction, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label", domain.ErrInvalidInput)
	}
	lines, err := BuildLines(in.Lines, now)
	if err != nil {
		return nil, err
	}
	txn := &entity.ConsumptionTransaction{
		ID:        uuid.New().String(),
		Kind:      in.Kind,
		Label:     label,
		OrderNo:   strings.TrimSpace(in.OrderNo),
		Notes:     in.Notes,
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
	}
	if err := txn.AddLines(lines...); err != nil {
		return nil, err
	}
	return txn, nil
}
