package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

// MovementsUseCase consulta el historial de movimientos de stock.
type MovementsUseCase struct {
	movRepo repository.StockMovementRepository
}

// NewMovementsUseCase construye el caso de uso.
func NewMovementsUseCase(movRepo repository.StockMovementRepository) *MovementsUseCase {
	return &MovementsUseCase{movRepo: movRepo}
}

// List filtra por ítem (kind + id), transacción y ventana [from, to); paginado.
func (uc *MovementsUseCase) List(ctx context.Context, req dto.MovementListRequest) ([]dto.MovementResponse, error) {
	req.DefaultPage()
	filter := entity.MovementFilter{
		EntityID:      req.EntityID,
		TransactionID: strings.TrimSpace(req.TransactionID),
		Limit:         req.Limit,
		Offset:        req.Offset,
	}
	if req.Kind != "" {
		kind, err := entity.ParseEntityKind(req.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = kind
	}
	var err error
	if filter.From, err = parseInstant("from", req.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseInstant("to", req.To); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, fmt.Errorf("%w: from must be before to", domain.ErrInvalidInput)
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	movs, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.NewMovementResponse(m))
	}
	return out, nil
}

func parseInstant(name, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrInvalidInput, name)
	}
	t = t.UTC()
	return &t, nil
}
