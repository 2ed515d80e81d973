package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/agrovet/planvacunal-api/internal/application/dto"
	"github.com/agrovet/planvacunal-api/internal/domain"
)

// respondError traduce los errores de negocio a códigos HTTP.
// Los errores tipados conservan su mensaje; los sentinel usan uno fijo.
func respondError(c *fiber.Ctx, err error) error {
	var insufficientStock *domain.InsufficientStockError
	var insufficientLots *domain.InsufficientLotCapacityError
	var invalidTransition *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidMovementType):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrLotNotFound),
		errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.As(err, &insufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.As(err, &insufficientLots),
		errors.Is(err, domain.ErrNoLotsAvailable),
		errors.Is(err, domain.ErrNoSingleLotSufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_LOTS", Message: err.Error()})
	case errors.As(err, &invalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrApplicationSuspended):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SUSPENDED", Message: err.Error()})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENCY", Message: "conflicto de concurrencia; reintentar"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
