package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/garment-ledger/internal/domain/entity"
)

// CreateManufacturingRunRequest body para POST /api/manufacturing-runs.
type CreateManufacturingRunRequest struct {
	ProductName string                   `json:"product_name"`
	ProductType string                   `json:"product_type,omitempty"`
	Collection  string                   `json:"collection,omitempty"`
	Color       string                   `json:"color,omitempty"`
	Size        string                   `json:"size,omitempty"`
	OrderNo     string                   `json:"order_no,omitempty"`
	Notes       string                   `json:"notes,omitempty"`
	Lines       []ConsumptionLineRequest `json:"lines"`
	Apply       bool                     `json:"apply,omitempty"`
}

// CostContributionDTO aporte de una regla de costo.
type CostContributionDTO struct {
	Rule   string          `json:"rule"`
	Amount decimal.Decimal `json:"amount"`
}

// ManufacturingRunResponse run con costeo.
type ManufacturingRunResponse struct {
	TransactionResponse
	ProductName     string                `json:"product_name"`
	ProductType     string                `json:"product_type,omitempty"`
	Collection      string                `json:"collection,omitempty"`
	Color           string                `json:"color,omitempty"`
	Size            string                `json:"size,omitempty"`
	SKU             string                `json:"sku"`
	RawTotal        decimal.Decimal       `json:"raw_total"`
	ComponentsAdded decimal.Decimal       `json:"components_added"`
	TotalCost       decimal.Decimal       `json:"total_manufacturing_cost"`
	Contributions   []CostContributionDTO `json:"contributions,omitempty"`
}

// NewManufacturingRunResponse mapea el run (con su transacción cargada).
func NewManufacturingRunResponse(run *entity.ManufacturingRun) ManufacturingRunResponse {
	resp := ManufacturingRunResponse{
		ProductName:     run.ProductName,
		ProductType:     run.ProductType,
		Collection:      run.Collection,
		Color:           run.Color,
		Size:            run.Size,
		SKU:             run.SKU,
		RawTotal:        run.RawTotal,
		ComponentsAdded: run.ComponentsAdded,
		TotalCost:       run.TotalCost,
	}
	if run.Transaction != nil {
		resp.TransactionResponse = NewTransactionResponse(run.Transaction)
	}
	for _, c := range run.Contributions {
		resp.Contributions = append(resp.Contributions, CostContributionDTO{Rule: c.RuleName, Amount: c.Amount})
	}
	return resp
}

// CreatePrintedBatchRequest body para POST /api/printed-batches.
// Los atributos vacíos se heredan de la tela; InitialStock por defecto = QuantityUsed.
type CreatePrintedBatchRequest struct {
	FabricID     int64            `json:"fabric_id"`
	Product      string           `json:"product"`
	BaseColor    string           `json:"base_color,omitempty"`
	ProductType  string           `json:"product_type,omitempty"`
	Width        decimal.Decimal  `json:"width"`
	UseIn        string           `json:"use_in,omitempty"`
	Quality      string           `json:"quality,omitempty"`
	Unit         string           `json:"unit,omitempty"`
	QuantityUsed decimal.Decimal  `json:"quantity_used"`
	CostPerUnit  decimal.Decimal  `json:"cost_per_unit"`
	Rate         decimal.Decimal  `json:"rate"`
	VendorID     int64            `json:"vendor_id,omitempty"`
	InitialStock *decimal.Decimal `json:"initial_stock,omitempty"`
}

// PrintedBatchResponse lote estampado creado y la transacción de consumo de tela.
type PrintedBatchResponse struct {
	ID            int64           `json:"id"`
	Product       string          `json:"product"`
	FabricID      int64           `json:"fabric_id"`
	Unit          string          `json:"unit"`
	Stock         decimal.Decimal `json:"stock"`
	QuantityUsed  decimal.Decimal `json:"quantity_used"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	VendorID      int64           `json:"vendor_id,omitempty"`
	TransactionID string          `json:"transaction_id"`
}

// NewPrintedBatchResponse mapea el lote.
func NewPrintedBatchResponse(b *entity.PrintedBatch, transactionID string) PrintedBatchResponse {
	return PrintedBatchResponse{
		ID:            b.ID,
		Product:       b.Product,
		FabricID:      b.FabricID,
		Unit:          b.Unit,
		Stock:         b.Quantity(),
		QuantityUsed:  b.QuantityUsed,
		UnitCost:      b.UnitCost(),
		VendorID:      b.VendorID,
		TransactionID: transactionID,
	}
}
