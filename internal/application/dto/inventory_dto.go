package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// ConsumptionLineRequest línea {entity_kind, entity_id, quantity, from_waste}.
type ConsumptionLineRequest struct {
	EntityKind string          `json:"entity_kind"`
	EntityID   int64           `json:"entity_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	FromWaste  bool            `json:"from_waste"`
}

// CreateIssueRequest body para POST /api/issues. Apply=true crea y aplica en un paso.
type CreateIssueRequest struct {
	Label   string                   `json:"label"`
	OrderNo string                   `json:"order_no,omitempty"`
	Notes   string                   `json:"notes,omitempty"`
	Lines   []ConsumptionLineRequest `json:"lines"`
	Apply   bool                     `json:"apply,omitempty"`
}

// AddLinesRequest body para POST /api/issues/:id/lines.
type AddLinesRequest struct {
	Lines []ConsumptionLineRequest `json:"lines"`
}

// ConsumptionLineResponse línea en respuestas.
type ConsumptionLineResponse struct {
	ID            string           `json:"id"`
	EntityKind    string           `json:"entity_kind"`
	EntityID      int64            `json:"entity_id"`
	ItemName      string           `json:"item_name,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	FromWaste     bool             `json:"from_waste"`
	StockSnapshot *decimal.Decimal `json:"stock_snapshot,omitempty"`
	UnitCost      decimal.Decimal  `json:"unit_cost"`
	LineCost      decimal.Decimal  `json:"line_cost"`
}

// TransactionResponse cabecera + líneas de una transacción de consumo.
type TransactionResponse struct {
	ID         string                    `json:"id"`
	Kind       string                    `json:"kind"`
	Status     string                    `json:"status"`
	Label      string                    `json:"label"`
	OrderNo    string                    `json:"order_no,omitempty"`
	Notes      string                    `json:"notes,omitempty"`
	CreatedBy  string                    `json:"created_by,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
	AppliedAt  *time.Time                `json:"applied_at,omitempty"`
	RevertedAt *time.Time                `json:"reverted_at,omitempty"`
	TotalCost  decimal.Decimal           `json:"total_cost"`
	Lines      []ConsumptionLineResponse `json:"lines"`
}

// NewTransactionResponse mapea la entidad a la respuesta HTTP.
func NewTransactionResponse(t *entity.ConsumptionTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:         t.ID,
		Kind:       string(t.Kind),
		Status:     string(t.Status()),
		Label:      t.Label,
		OrderNo:    t.OrderNo,
		Notes:      t.Notes,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt,
		AppliedAt:  t.AppliedAt,
		RevertedAt: t.RevertedAt,
		TotalCost:  decimal.Zero,
		Lines:      make([]ConsumptionLineResponse, 0, len(t.Lines)),
	}
	for _, l := range t.Lines {
		line := ConsumptionLineResponse{
			ID:         l.ID,
			EntityKind: string(l.Ref.Kind),
			EntityID:   l.Ref.ID,
			ItemName:   l.ItemName,
			Quantity:   l.Quantity,
			FromWaste:  l.FromWaste,
			UnitCost:   l.UnitCost,
			LineCost:   l.LineCost,
		}
		if l.StockSnapshot.Valid {
			snap := l.StockSnapshot.Decimal
			line.StockSnapshot = &snap
		}
		resp.TotalCost = resp.TotalCost.Add(l.LineCost)
		resp.Lines = append(resp.Lines, line)
	}
	resp.TotalCost = resp.TotalCost.Round(2)
	return resp
}

// MovementListRequest query de GET /api/stock/movements.
type MovementListRequest struct {
	Kind          string `query:"kind"`
	EntityID      int64  `query:"id"`
	TransactionID string `query:"transaction_id"`
	From          string `query:"from"` // RFC3339, inclusivo
	To            string `query:"to"`   // RFC3339, exclusivo
	PageRequest
}

// MovementResponse entrada del historial de stock.
type MovementResponse struct {
	ID            string          `json:"id"`
	EntityKind    string          `json:"entity_kind"`
	EntityID      int64           `json:"entity_id"`
	Delta         decimal.Decimal `json:"delta"`
	Reason        string          `json:"reason"`
	TransactionID string          `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewMovementResponse mapea un movimiento.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		EntityKind:    string(m.Ref.Kind),
		EntityID:      m.Ref.ID,
		Delta:         m.Delta,
		Reason:        m.Reason,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt,
	}
}

// EventTypeLowStock tipo del evento publicado en Kafka.
const EventTypeLowStock = "inventory.low_stock"

// LowStockEvent evento emitido cuando un ítem queda bajo el umbral tras un commit.
type LowStockEvent struct {
	EventType  string          `json:"event_type"`
	EntityKind string          `json:"entity_kind"`
	EntityID   int64           `json:"entity_id"`
	ItemName   string          `json:"item_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Threshold  decimal.Decimal `json:"threshold"`
	Timestamp  time.Time       `json:"timestamp"`
}

// LowStockItemDTO ítem bajo el umbral con la cantidad sugerida de reposición.
type LowStockItemDTO struct {
	EntityKind         string          `json:"entity_kind"`
	EntityID           int64           `json:"entity_id"`
	ItemName           string          `json:"item_name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	Threshold          decimal.Decimal `json:"threshold"`
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // Threshold*1.5 - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}
