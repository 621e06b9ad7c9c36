package manufacturing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	costing "github.com/jhoicas/garment-ledger/internal/domain/inventory"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
	"github.com/jhoicas/garment-ledger/pkg/sku"
)

// ManufacturingUseCase ensambla productos terminados: consume materiales con el motor del libro y
// calcula el costo total con las reglas de costo, todo en una sola transacción de BD.
type ManufacturingUseCase struct {
	txRunner TxRunner
	engine   *inventory.ConsumptionEngine
	runRepo  repository.ManufacturingRunRepository
	txRepo   repository.ConsumptionRepository
}

// NewManufacturingUseCase construye el caso de uso. runRepo/txRepo se usan para lecturas.
func NewManufacturingUseCase(
	txRunner TxRunner,
	engine *inventory.ConsumptionEngine,
	runRepo repository.ManufacturingRunRepository,
	txRepo repository.ConsumptionRepository,
) *ManufacturingUseCase {
	return &ManufacturingUseCase{
		txRunner: txRunner,
		engine:   engine,
		runRepo:  runRepo,
		txRepo:   txRepo,
	}
}

// CreateRun registra un run en Draft con SKU único. Con req.Apply=true lo aplica en la misma transacción.
func (uc *ManufacturingUseCase) CreateRun(ctx context.Context, userID string, req dto.CreateManufacturingRunRequest) (*dto.ManufacturingRunResponse, error) {
	start := time.Now()
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return nil, fmt.Errorf("%w: product_name", domain.ErrInvalidInput)
	}
	txn, err := inventory.NewDraft(inventory.DraftInput{
		Kind:      entity.TransactionManufacturing,
		Label:     name,
		OrderNo:   req.OrderNo,
		Notes:     req.Notes,
		CreatedBy: userID,
		Lines:     req.Lines,
	}, uc.engine.Now())
	if err != nil {
		return nil, err
	}
	run := &entity.ManufacturingRun{
		Transaction: txn,
		ProductName: name,
		ProductType: strings.TrimSpace(req.ProductType),
		Collection:  strings.TrimSpace(req.Collection),
		Color:       strings.TrimSpace(req.Color),
		Size:        strings.TrimSpace(req.Size),
	}

	var out *inventory.Outcome
	err = uc.txRunner.RunManufacturing(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
		runRepo repository.ManufacturingRunRepository,
		ruleRepo repository.CostRuleRepository,
	) error {
		base := sku.Base(sku.Parts{
			ProductType: run.ProductType,
			Collection:  run.Collection,
			Name:        run.ProductName,
			Color:       run.Color,
			Size:        run.Size,
		})
		code, err := sku.Unique(base, func(c string) (bool, error) { return runRepo.SKUExists(ctx, c) })
		if err != nil {
			return err
		}
		run.SKU = code

		if err := txRepo.Create(ctx, txn); err != nil {
			return err
		}
		if err := runRepo.Create(ctx, run); err != nil {
			return err
		}
		if !req.Apply {
			return nil
		}
		o, applied, err := uc.applyInTx(ctx, stock, movRepo, txRepo, runRepo, ruleRepo, txn.ID)
		if err != nil {
			return err
		}
		out, run = o, applied
		return nil
	})
	if err != nil {
		if req.Apply {
			uc.engine.RecordFailure(inventory.OpApply, entity.TransactionManufacturing, txn.ID, err)
		}
		return nil, err
	}
	if out != nil {
		uc.engine.AfterCommit(ctx, inventory.OpApply, out, time.Since(start))
	}
	resp := dto.NewManufacturingRunResponse(run)
	return &resp, nil
}

// ApplyRun descuenta los materiales y persiste el costeo. Un fallo de las reglas de costo revierte
// también las deducciones.
func (uc *ManufacturingUseCase) ApplyRun(ctx context.Context, id string) (*dto.ManufacturingRunResponse, error) {
	start := time.Now()
	var (
		out *inventory.Outcome
		run *entity.ManufacturingRun
	)
	err := uc.txRunner.RunManufacturing(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
		runRepo repository.ManufacturingRunRepository,
		ruleRepo repository.CostRuleRepository,
	) error {
		o, r, err := uc.applyInTx(ctx, stock, movRepo, txRepo, runRepo, ruleRepo, id)
		if err != nil {
			return err
		}
		out, run = o, r
		return nil
	})
	if err != nil {
		uc.engine.RecordFailure(inventory.OpApply, entity.TransactionManufacturing, id, err)
		return nil, err
	}
	uc.engine.AfterCommit(ctx, inventory.OpApply, out, time.Since(start))
	resp := dto.NewManufacturingRunResponse(run)
	return &resp, nil
}

// RevertRun restituye los materiales del run. El costeo calculado se conserva como histórico.
func (uc *ManufacturingUseCase) RevertRun(ctx context.Context, id string) (*dto.ManufacturingRunResponse, error) {
	start := time.Now()
	var (
		out *inventory.Outcome
		run *entity.ManufacturingRun
	)
	err := uc.txRunner.RunManufacturing(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
		runRepo repository.ManufacturingRunRepository,
		_ repository.CostRuleRepository,
	) error {
		o, err := uc.engine.RevertInTx(ctx, stock, movRepo, txRepo, entity.TransactionManufacturing, id)
		if err != nil {
			return err
		}
		r, err := runRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		r.Transaction = o.Transaction
		out, run = o, r
		return nil
	})
	if err != nil {
		uc.engine.RecordFailure(inventory.OpRevert, entity.TransactionManufacturing, id, err)
		return nil, err
	}
	uc.engine.AfterCommit(ctx, inventory.OpRevert, out, time.Since(start))
	resp := dto.NewManufacturingRunResponse(run)
	return &resp, nil
}

// Get devuelve el run con sus líneas y costeo.
func (uc *ManufacturingUseCase) Get(ctx context.Context, id string) (*dto.ManufacturingRunResponse, error) {
	run, err := uc.runRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	txn, err := uc.txRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Transaction = txn
	resp := dto.NewManufacturingRunResponse(run)
	return &resp, nil
}

// applyInTx: Apply del motor + costo bruto + reglas de costo activas (ordenadas por nombre) + persistencia del total.
func (uc *ManufacturingUseCase) applyInTx(
	ctx context.Context,
	stock repository.StockRegistry,
	movRepo repository.StockMovementRepository,
	txRepo repository.ConsumptionRepository,
	runRepo repository.ManufacturingRunRepository,
	ruleRepo repository.CostRuleRepository,
	id string,
) (*inventory.Outcome, *entity.ManufacturingRun, error) {
	out, err := uc.engine.ApplyInTx(ctx, stock, movRepo, txRepo, entity.TransactionManufacturing, id)
	if err != nil {
		return nil, nil, err
	}
	run, err := runRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rules, err := ruleRepo.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar reglas de costo: %w", err)
	}

	c := costing.ApplyCostRules(costing.RawTotal(out.Transaction.Lines), rules)
	run.Transaction = out.Transaction
	run.RawTotal = c.RawTotal
	run.ComponentsAdded = c.Added
	run.TotalCost = c.Total
	run.Contributions = c.Contributions
	if err := runRepo.SaveCosting(ctx, run); err != nil {
		return nil, nil, err
	}
	return out, run, nil
}
