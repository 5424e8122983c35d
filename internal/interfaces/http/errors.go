package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/repairshop-ledger/internal/application/dto"
	"github.com/jhoicas/repairshop-ledger/internal/domain"
)

// insufficientStockDetails valores intentados que acompañan un 409 INSUFFICIENT_STOCK.
type insufficientStockDetails struct {
	LocationID string `json:"location_id"`
	Item       string `json:"item"`
	Before     int    `json:"balance_before"`
	Delta      int    `json:"quantity_delta"`
	After      int    `json:"balance_after"`
}

// transitionDetails estado actual del documento que rechazó la acción.
type transitionDetails struct {
	Document string `json:"document"`
	ID       string `json:"id"`
	Status   string `json:"status"`
	Action   string `json:"action"`
}

// respondError traduce errores de dominio a HTTP. Los errores no clasificados se registran
// y se responden como 500 sin exponer el detalle interno.
func respondError(c *fiber.Ctx, err error) error {
	var (
		ve *domain.ValidationError
		se *domain.InsufficientStockError
		te *domain.TransitionError
	)
	switch {
	case errors.As(err, &ve):
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: ve.Error()}
		if ve.Field != "" {
			resp.Fields = map[string]string{ve.Field: ve.Message}
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.As(err, &se):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: se.Error(),
			Details: insufficientStockDetails{LocationID: se.LocationID, Item: se.Item, Before: se.Before, Delta: se.Delta, After: se.After},
		})
	case errors.As(err, &te):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: te.Error(),
			Details: transitionDetails{Document: te.Document, ID: te.ID, Status: te.Status, Action: te.Action},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
