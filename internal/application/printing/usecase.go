package printing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

// Unidades admitidas para tela estampada.
var validUnits = map[string]bool{"m": true, "cm": true, "ft": true}

// PrintingUseCase produce lotes de tela estampada. El consumo de la tela origen es una línea
// de consumo explícita, aplicada en la misma transacción que inserta el lote.
type PrintingUseCase struct {
	txRunner TxRunner
	engine   *inventory.ConsumptionEngine
}

// NewPrintingUseCase construye el caso de uso.
func NewPrintingUseCase(txRunner TxRunner, engine *inventory.ConsumptionEngine) *PrintingUseCase {
	return &PrintingUseCase{txRunner: txRunner, engine: engine}
}

// Produce descuenta QuantityUsed de la tela y crea el lote estampado.
// Los atributos vacíos (color base, tipo, uso, calidad, ancho, costo por unidad y proveedor)
// se heredan de la tela; el stock inicial por defecto es QuantityUsed.
func (uc *PrintingUseCase) Produce(ctx context.Context, userID string, req dto.CreatePrintedBatchRequest) (*dto.PrintedBatchResponse, error) {
	start := time.Now()
	if err := validate(&req); err != nil {
		return nil, err
	}

	txn, err := inventory.NewDraft(inventory.DraftInput{
		Kind:      entity.TransactionPrinting,
		Label:     req.Product,
		CreatedBy: userID,
		Lines: []dto.ConsumptionLineRequest{{
			EntityKind: string(entity.KindFabric),
			EntityID:   req.FabricID,
			Quantity:   req.QuantityUsed,
		}},
	}, uc.engine.Now())
	if err != nil {
		return nil, err
	}

	var (
		out   *inventory.Outcome
		batch *entity.PrintedBatch
	)
	err = uc.txRunner.RunPrinting(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
		printedRepo repository.PrintedBatchRepository,
	) error {
		if err := txRepo.Create(ctx, txn); err != nil {
			return err
		}
		o, err := uc.engine.ApplyInTx(ctx, stock, movRepo, txRepo, entity.TransactionPrinting, txn.ID)
		if err != nil {
			return err
		}
		fabric, ok := o.Items[entity.Ref(entity.KindFabric, req.FabricID)].(*entity.Fabric)
		if !ok {
			return &domain.EntityNotFoundError{Kind: string(entity.KindFabric), ID: req.FabricID}
		}

		b, err := newBatch(req, fabric, uc.engine.Now())
		if err != nil {
			return err
		}
		b.TransactionID = txn.ID
		if err := printedRepo.Create(ctx, b); err != nil {
			return err
		}
		out, batch = o, b
		return nil
	})
	if err != nil {
		uc.engine.RecordFailure(inventory.OpApply, entity.TransactionPrinting, txn.ID, err)
		return nil, err
	}
	uc.engine.AfterCommit(ctx, inventory.OpApply, out, time.Since(start))
	resp := dto.NewPrintedBatchResponse(batch, txn.ID)
	return &resp, nil
}

// Revert deshace la producción de un lote estampado: revierte su transacción de consumo
// (la tela origen recupera QuantityUsed) y elimina el lote. Un lote que ya se consumió
// en otra transacción no se puede revertir.
func (uc *PrintingUseCase) Revert(ctx context.Context, batchID int64) (*dto.TransactionResponse, error) {
	start := time.Now()
	if batchID <= 0 {
		return nil, fmt.Errorf("%w: printed batch id", domain.ErrInvalidInput)
	}

	var (
		out   *inventory.Outcome
		txnID string
	)
	err := uc.txRunner.RunPrinting(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
		printedRepo repository.PrintedBatchRepository,
	) error {
		repo, err := stock.For(entity.KindPrinted)
		if err != nil {
			return err
		}
		item, err := repo.GetByID(ctx, batchID)
		if err != nil {
			return err
		}
		batch, ok := item.(*entity.PrintedBatch)
		if !ok || batch.TransactionID == "" {
			return fmt.Errorf("%w: printed batch %d has no consumption transaction", domain.ErrInvalidTransactionState, batchID)
		}
		txnID = batch.TransactionID

		// orden de bloqueo: cabecera y tela (dentro del motor), luego el lote
		o, err := uc.engine.RevertInTx(ctx, stock, movRepo, txRepo, entity.TransactionPrinting, txnID)
		if err != nil {
			return err
		}
		if _, err := repo.LockForUpdate(ctx, []int64{batchID}); err != nil {
			return err
		}
		used, err := movRepo.List(ctx, entity.MovementFilter{Kind: entity.KindPrinted, EntityID: batchID, Limit: 1})
		if err != nil {
			return err
		}
		if len(used) > 0 {
			return fmt.Errorf("%w: printed batch %d already has stock movements", domain.ErrInvalidTransactionState, batchID)
		}
		if err := printedRepo.Delete(ctx, batchID); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		uc.engine.RecordFailure(inventory.OpRevert, entity.TransactionPrinting, txnID, err)
		return nil, err
	}
	uc.engine.AfterCommit(ctx, inventory.OpRevert, out, time.Since(start))
	resp := dto.NewTransactionResponse(out.Transaction)
	return &resp, nil
}

func validate(req *dto.CreatePrintedBatchRequest) error {
	req.Product = strings.TrimSpace(req.Product)
	if req.Product == "" {
		return fmt.Errorf("%w: product", domain.ErrInvalidInput)
	}
	if req.FabricID <= 0 {
		return fmt.Errorf("%w: fabric_id", domain.ErrInvalidInput)
	}
	if !req.QuantityUsed.IsPositive() {
		return fmt.Errorf("%w: quantity_used must be greater than zero", domain.ErrInvalidQuantity)
	}
	if req.CostPerUnit.IsNegative() || req.Rate.IsNegative() {
		return fmt.Errorf("%w: cost_per_unit/rate cannot be negative", domain.ErrInvalidInput)
	}
	if req.InitialStock != nil && req.InitialStock.IsNegative() {
		return fmt.Errorf("%w: initial_stock", domain.ErrInvalidQuantity)
	}
	req.Unit = strings.ToLower(strings.TrimSpace(req.Unit))
	if req.Unit == "" {
		req.Unit = "m"
	}
	if !validUnits[req.Unit] {
		return fmt.Errorf("%w: unit %q", domain.ErrInvalidInput, req.Unit)
	}
	return nil
}

func newBatch(req dto.CreatePrintedBatchRequest, fabric *entity.Fabric, now time.Time) (*entity.PrintedBatch, error) {
	costPerUnit := req.CostPerUnit
	if costPerUnit.IsZero() {
		costPerUnit = fabric.CostPerUnit
	}
	vendorID := req.VendorID
	if vendorID == 0 {
		vendorID = fabric.VendorID
	}
	initial := req.QuantityUsed
	if req.InitialStock != nil {
		initial = *req.InitialStock
	}
	width := req.Width
	if width.IsZero() {
		width = fabric.Width
	}
	return entity.NewPrintedBatch(entity.PrintedBatch{
		Product:      req.Product,
		FabricID:     fabric.ID,
		BaseColor:    orDefault(req.BaseColor, fabric.BaseColor),
		ProductType:  orDefault(req.ProductType, fabric.Type),
		Width:        width,
		UseIn:        orDefault(req.UseIn, fabric.UseIn),
		Quality:      orDefault(req.Quality, fabric.Quality),
		Unit:         req.Unit,
		QuantityUsed: req.QuantityUsed,
		CostPerUnit:  costPerUnit,
		Rate:         req.Rate,
		FabricCost:   fabric.CostPerUnit,
		VendorID:     vendorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, initial)
}


func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
