package issue

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/internal/domain"
	"github.com/jhoicas/garment-ledger/internal/domain/entity"
	"github.com/jhoicas/garment-ledger/internal/domain/repository"
)

// IssueUseCase gestiona salidas de material ad-hoc: borrador, líneas, aplicación y reversión.
type IssueUseCase struct {
	txRunner inventory.TxRunner
	engine   *inventory.ConsumptionEngine
	txRepo   repository.ConsumptionRepository
	slips    SlipRenderer
}

// NewIssueUseCase construye el caso de uso. txRepo se usa para lecturas fuera de transacción.
func NewIssueUseCase(
	txRunner inventory.TxRunner,
	engine *inventory.ConsumptionEngine,
	txRepo repository.ConsumptionRepository,
	slips SlipRenderer,
) *IssueUseCase {
	return &IssueUseCase{
		txRunner: txRunner,
		engine:   engine,
		txRepo:   txRepo,
		slips:    slips,
	}
}

// Create registra una salida en Draft. Con req.Apply=true se crea y aplica en la misma transacción de BD:
// si la aplicación falla no queda ni el borrador.
func (uc *IssueUseCase) Create(ctx context.Context, userID string, req dto.CreateIssueRequest) (*dto.TransactionResponse, error) {
	start := time.Now()
	txn, err := inventory.NewDraft(inventory.DraftInput{
		Kind:      entity.TransactionIssue,
		Label:     req.Label,
		OrderNo:   req.OrderNo,
		Notes:     req.Notes,
		CreatedBy: userID,
		Lines:     req.Lines,
	}, uc.engine.Now())
	if err != nil {
		return nil, err
	}

	var out *inventory.Outcome
	err = uc.txRunner.Run(ctx, func(
		stock repository.StockRegistry,
		movRepo repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
	) error {
		if err := txRepo.Create(ctx, txn); err != nil {
			return err
		}
		if !req.Apply {
			return nil
		}
		o, err := uc.engine.ApplyInTx(ctx, stock, movRepo, txRepo, entity.TransactionIssue, txn.ID)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		if req.Apply {
			uc.engine.RecordFailure(inventory.OpApply, entity.TransactionIssue, txn.ID, err)
		}
		return nil, err
	}
	if out != nil {
		uc.engine.AfterCommit(ctx, inventory.OpApply, out, time.Since(start))
		txn = out.Transaction
	}
	resp := dto.NewTransactionResponse(txn)
	return &resp, nil
}

// AddLines agrega líneas a una salida en Draft.
func (uc *IssueUseCase) AddLines(ctx context.Context, id string, req dto.AddLinesRequest) (*dto.TransactionResponse, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: lines", domain.ErrInvalidInput)
	}
	lines, err := inventory.BuildLines(req.Lines, uc.engine.Now())
	if err != nil {
		return nil, err
	}

	var txn *entity.ConsumptionTransaction
	err = uc.txRunner.Run(ctx, func(
		_ repository.StockRegistry,
		_ repository.StockMovementRepository,
		txRepo repository.ConsumptionRepository,
	) error {
		t, err := txRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t.Kind != entity.TransactionIssue {
			return domain.ErrNotFound
		}
		if err := t.AddLines(lines...); err != nil {
			return err
		}
		if err := txRepo.AddLines(ctx, t.ID, lines); err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewTransactionResponse(txn)
	return &resp, nil
}

// Apply aplica la salida: descuenta todas las líneas o ninguna.
func (uc *IssueUseCase) Apply(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	out, err := uc.engine.Apply(ctx, entity.TransactionIssue, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewTransactionResponse(out.Transaction)
	return &resp, nil
}

// Revert restituye el stock de una salida aplicada.
func (uc *IssueUseCase) Revert(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	out, err := uc.engine.Revert(ctx, entity.TransactionIssue, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewTransactionResponse(out.Transaction)
	return &resp, nil
}

// Get devuelve la salida con sus líneas.
func (uc *IssueUseCase) Get(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	txn, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewTransactionResponse(txn)
	return &resp, nil
}

// Slip genera el comprobante PDF de la salida.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la salida no existe.
func (uc *IssueUseCase) Slip(ctx context.Context, id string) ([]byte, string, error) {
	if uc.slips == nil {
		return nil, "", fmt.Errorf("issue slip: generador no configurado")
	}
	txn, err := uc.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.slips.RenderIssueSlip(txn)
	if err != nil {
		return nil, "", fmt.Errorf("issue slip: %w", err)
	}
	return pdf, fmt.Sprintf("issue-%s.pdf", txn.ID), nil
}

func (uc *IssueUseCase) load(ctx context.Context, id string) (*entity.ConsumptionTransaction, error) {
	txn, err := uc.txRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.Kind != entity.TransactionIssue {
		return nil, domain.ErrNotFound
	}
	return txn, nil
}
