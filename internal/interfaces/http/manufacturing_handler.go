package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/manufacturing"
)

// ManufacturingHandler maneja los runs de manufactura de producto terminado (protegido).
type ManufacturingHandler struct {
	uc *manufacturing.ManufacturingUseCase
}

// NewManufacturingHandler construye el handler.
func NewManufacturingHandler(uc *manufacturing.ManufacturingUseCase) *ManufacturingHandler {
	return &ManufacturingHandler{uc: uc}
}

// Create godoc
// @Summary      Crear run de manufactura
// @Description  Genera el SKU del producto terminado. Con apply=true consume materiales y calcula el costo.
// @Tags         manufacturing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateManufacturingRunRequest  true  "producto + lines[]"
// @Success      201   {object}  dto.ManufacturingRunResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /manufacturing-runs [post]
func (h *ManufacturingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateManufacturingRunRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateRun(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Apply godoc
// @Summary      Aplicar run (consume materiales y calcula costo)
// @Tags         manufacturing
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del run"
// @Success      200  {object}  dto.ManufacturingRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Router       /manufacturing-runs/{id}/apply [post]
func (h *ManufacturingHandler) Apply(c *fiber.Ctx) error {
	out, err := h.uc.ApplyRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Revert godoc
// @Summary      Revertir run aplicado
// @Tags         manufacturing
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del run"
// @Success      200  {object}  dto.ManufacturingRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /manufacturing-runs/{id}/revert [post]
func (h *ManufacturingHandler) Revert(c *fiber.Ctx) error {
	out, err := h.uc.RevertRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener run con costeo
// @Tags         manufacturing
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del run"
// @Success      200  {object}  dto.ManufacturingRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /manufacturing-runs/{id} [get]
func (h *ManufacturingHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
