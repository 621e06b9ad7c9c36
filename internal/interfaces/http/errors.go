package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/domain"
)

// writeError traduce errores de dominio a códigos HTTP y cuerpo dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.InsufficientStockResponse{
			ErrorResponse: dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()},
			Entity:        insufficient.Entity,
			Requested:     insufficient.Requested,
			Available:     insufficient.Available,
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrUnknownEntityKind):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrEntityNotFound):
		status, code = fiber.StatusNotFound, "ENTITY_NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidTransactionState):
		status, code = fiber.StatusConflict, "INVALID_STATE"
	case errors.Is(err, domain.ErrLockTimeout):
		status, code = fiber.StatusConflict, "LOCK_TIMEOUT"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrStockFieldUnavailable):
		status, code = fiber.StatusUnprocessableEntity, "STOCK_FIELD_UNAVAILABLE"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
