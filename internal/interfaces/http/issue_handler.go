package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/issue"
)

// IssueHandler maneja las salidas de material ad-hoc (protegido).
type IssueHandler struct {
	uc *issue.IssueUseCase
}

// NewIssueHandler construye el handler.
func NewIssueHandler(uc *issue.IssueUseCase) *IssueHandler {
	return &IssueHandler{uc: uc}
}

// Create godoc
// @Summary      Crear salida de material
// @Description  Crea la salida en borrador. Con apply=true la aplica en la misma transacción.
// @Tags         issues
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateIssueRequest  true  "label, order_no, notes, lines[], apply"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /issues [post]
func (h *IssueHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateIssueRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// AddLines godoc
// @Summary      Agregar líneas a una salida en borrador
// @Tags         issues
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID de la salida"
// @Param        body  body      dto.AddLinesRequest  true  "lines[]"
// @Success      200   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /issues/{id}/lines [post]
func (h *IssueHandler) AddLines(c *fiber.Ctx) error {
	var in dto.AddLinesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddLines(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Apply godoc
// @Summary      Aplicar salida (descuenta stock)
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la salida"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Router       /issues/{id}/apply [post]
func (h *IssueHandler) Apply(c *fiber.Ctx) error {
	out, err := h.uc.Apply(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Revert godoc
// @Summary      Revertir salida aplicada (restituye stock)
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la salida"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /issues/{id}/revert [post]
func (h *IssueHandler) Revert(c *fiber.Ctx) error {
	out, err := h.uc.Revert(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener salida con sus líneas
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la salida"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /issues/{id} [get]
func (h *IssueHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Slip godoc
// @Summary      Comprobante PDF de la salida
// @Tags         issues
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la salida"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /issues/{id}/slip.pdf [get]
func (h *IssueHandler) Slip(c *fiber.Ctx) error {
	pdf, filename, err := h.uc.Slip(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}
