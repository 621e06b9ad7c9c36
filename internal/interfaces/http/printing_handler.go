package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/printing"
)

// PrintingHandler maneja la producción de tela estampada (protegido).
type PrintingHandler struct {
	uc *printing.PrintingUseCase
}

// NewPrintingHandler construye el handler.
func NewPrintingHandler(uc *printing.PrintingUseCase) *PrintingHandler {
	return &PrintingHandler{uc: uc}
}

// Create godoc
// @Summary      Producir lote estampado
// @Description  Consume quantity_used de la tela origen y crea el lote en la misma transacción.
// @Tags         printing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreatePrintedBatchRequest  true  "fabric_id, product, quantity_used..."
// @Success      201   {object}  dto.PrintedBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /printed-batches [post]
func (h *PrintingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePrintedBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Produce(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Revert godoc
// @Summary      Revertir lote estampado
// @Description  Revierte la transacción de consumo del lote (la tela recupera quantity_used) y elimina el lote.
// @Tags         printing
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID del lote"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /printed-batches/{id}/revert [post]
func (h *PrintingHandler) Revert(c *fiber.Ctx) error {
	// un id no numérico llega como 0 y el caso de uso lo rechaza con 400
	id, _ := c.ParamsInt("id")
	out, err := h.uc.Revert(c.UserContext(), int64(id))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
