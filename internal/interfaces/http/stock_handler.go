package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
)

// StockHandler consultas de stock: historial de movimientos y alertas de stock bajo (protegido).
type StockHandler struct {
	movements *inventory.MovementsUseCase
	lowStock  *inventory.LowStockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(movements *inventory.MovementsUseCase, lowStock *inventory.LowStockUseCase) *StockHandler {
	return &StockHandler{movements: movements, lowStock: lowStock}
}

// ListMovements godoc
// @Summary      Historial de movimientos de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        kind            query  string  false  "fabric | accessory | printed"
// @Param        id              query  int     false  "ID del ítem"
// @Param        transaction_id  query  string  false  "ID de la transacción"
// @Param        from            query  string  false  "desde (RFC3339, inclusivo)"
// @Param        to              query  string  false  "hasta (RFC3339, exclusivo)"
// @Param        limit           query  int     false  "máx. 100"
// @Param        offset          query  int     false  "desplazamiento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var in dto.MovementListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	list, err := h.movements.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(list),
		"movements": list,
	})
}

// ListLowStock godoc
// @Summary      Ítems bajo el umbral de stock
// @Description  Todos los tipos de ítem, ordenados por stock ascendente, con cantidad sugerida de reposición.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.LowStockItemDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /stock/low [get]
func (h *StockHandler) ListLowStock(c *fiber.Ctx) error {
	list, err := h.lowStock.ListLowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(list),
		"threshold": h.lowStock.Threshold(),
		"items":     list,
	})
}
