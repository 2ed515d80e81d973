package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agrovet/planvacunal-api/internal/application/dto"
	"github.com/agrovet/planvacunal-api/internal/application/reservation"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// ReservationHandler maneja las transiciones de cotización y sus reservas.
type ReservationHandler struct {
	res   *reservation.UseCase
	stock *stock.UseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(resUC *reservation.UseCase, stockUC *stock.UseCase) *ReservationHandler {
	return &ReservationHandler{res: resUC, stock: stockUC}
}

// Transition godoc
// @Summary      Aplicar una transición de estado de cotización
// @Description  accepted reserva el total de cada línea del plan; rejected y
// @Description  deleted liberan todas las reservas activas de la cotización.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la cotización"
// @Param        body  body  dto.TransitionRequest  true  "from, to, lines, force_override"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/quotations/{id}/transition [post]
func (h *ReservationHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]entity.PlanLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, entity.PlanLine{
			ProductID:     l.ProductID,
			QuantityUnits: l.QuantityUnits,
			DosesPerUnit:  l.DosesPerUnit,
			WeekFrom:      l.WeekFrom,
			WeekTo:        l.WeekTo,
		})
	}
	res, err := h.res.HandleTransition(c.Context(), reservation.TransitionInput{
		QuotationID:   c.Params("id"),
		From:          entity.QuotationState(in.From),
		To:            entity.QuotationState(in.To),
		Lines:         lines,
		ForceOverride: in.ForceOverride,
		ActorID:       in.ActorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"quotation_id": res.QuotationID,
		"state":        res.State,
		"reserved":     len(res.Created),
		"released":     len(res.Released),
	})
}

// Release godoc
// @Summary      Liberar todas las reservas activas de una cotización
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la cotización"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/quotations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	released, err := h.res.ReleaseForQuotation(c.Context(), c.Params("id"), c.Query("actor_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"quotation_id": c.Params("id"), "released": len(released)})
}

// ListMovements godoc
// @Summary      Movimientos originados por una cotización
// @Tags         reservations
// @Produce      json
// @Param        id  path  string  true  "ID de la cotización"
// @Success      200  {object}  map[string]any
// @Router       /api/quotations/{id}/movements [get]
func (h *ReservationHandler) ListMovements(c *fiber.Ctx) error {
	movs, err := h.stock.ListQuotationMovements(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(movs), "movements": movs})
}
