package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
	"github.com/jhoicas/garment-ledger/pkg/logger"
	"github.com/jhoicas/garment-ledger/pkg/metrics"
)

var _ LowStockNotifier = (*LowStockUseCase)(nil)

// LowStockUseCase detecta ítems bajo el umbral: emite eventos tras cada commit del libro
// y arma la lista de reposición consultada por la API.
type LowStockUseCase struct {
	stock     repository.StockRegistry
	publisher LowStockPublisher
	threshold decimal.Decimal
	log       *logger.Logger
	now       func() time.Time
}

// NewLowStockUseCase construye el caso de uso. stock debe estar atado al pool (fuera de transacciones).
func NewLowStockUseCase(
	stock repository.StockRegistry,
	publisher LowStockPublisher,
	threshold decimal.Decimal,
	log *logger.Logger,
) *LowStockUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LowStockUseCase{
		stock:     stock,
		publisher: publisher,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// Threshold umbral configurado.
func (uc *LowStockUseCase) Threshold() decimal.Decimal { return uc.threshold }

// IsLow indica si la cantidad está por debajo del umbral.
func (uc *LowStockUseCase) IsLow(qty decimal.Decimal) bool {
	return qty.LessThan(uc.threshold)
}

// Notify publica un evento por cada ítem bajo el umbral. Los errores de publicación solo se registran:
// el libro ya confirmó y no se revierte por una alerta.
func (uc *LowStockUseCase) Notify(ctx context.Context, items []entity.StockBearing) {
	if uc.publisher == nil {
		return
	}
	for _, item := range items {
		if !uc.IsLow(item.Quantity()) {
			continue
		}
		ref := item.Ref()
		event := dto.LowStockEvent{
			EventType:  dto.EventTypeLowStock,
			EntityKind: string(ref.Kind),
			EntityID:   ref.ID,
			ItemName:   item.DisplayName(),
			Quantity:   item.Quantity(),
			Threshold:  uc.threshold,
			Timestamp:  uc.now().UTC(),
		}
		if err := uc.publisher.PublishLowStock(ctx, event); err != nil {
			uc.log.Error().Err(err).Str("entity", ref.String()).Msg("no se pudo publicar alerta de stock bajo")
			continue
		}
		metrics.LowStockEventsTotal.WithLabelValues(string(ref.Kind)).Inc()
	}
}

// ListLowStock devuelve los ítems bajo el umbral de todos los tipos con la cantidad sugerida de pedido.
// Orden: mayor déficit relativo primero; prioridad 1 = más urgente.
func (uc *LowStockUseCase) ListLowStock(ctx context.Context) ([]dto.LowStockItemDTO, error) {
	idealStock := uc.threshold.Mul(decimal.NewFromFloat(1.5))

	out := make([]dto.LowStockItemDTO, 0)
	for _, kind := range entity.Kinds {
		repo, err := uc.stock.For(kind)
		if err != nil {
			return nil, err
		}
		items, err := repo.ListBelow(ctx, uc.threshold)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			suggested := idealStock.Sub(item.Quantity())
			if suggested.IsNegative() {
				suggested = decimal.Zero
			}
			out = append(out, dto.LowStockItemDTO{
				EntityKind:         string(kind),
				EntityID:           item.Ref().ID,
				ItemName:           item.DisplayName(),
				CurrentStock:       item.Quantity(),
				Threshold:          uc.threshold,
				SuggestedOrderQty:  suggested,
				UnitCost:           item.UnitCost(),
				EstimatedOrderCost: suggested.Mul(item.UnitCost()).Round(2),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CurrentStock.Equal(b.CurrentStock) {
			return a.CurrentStock.LessThan(b.CurrentStock)
		}
		if a.EntityKind != b.EntityKind {
			return a.EntityKind < b.EntityKind
		}
		return a.EntityID < b.EntityID
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}
