package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agrovet/planvacunal-api/internal/application/dto"
	"github.com/agrovet/planvacunal-api/internal/application/schedule"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// CalendarHandler maneja la generación del calendario, el desdoblamiento y
// la reprogramación de aplicaciones.
type CalendarHandler struct {
	sched *schedule.UseCase
}

// NewCalendarHandler construye el handler.
func NewCalendarHandler(schedUC *schedule.UseCase) *CalendarHandler {
	return &CalendarHandler{sched: schedUC}
}

// Generate godoc
// @Summary      Generar el calendario semanal de una cotización aceptada
// @Tags         calendar
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la cotización"
// @Param        body  body  dto.GenerateCalendarRequest  true  "start_date, lines"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/quotations/{id}/calendar [post]
func (h *CalendarHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateCalendarRequest
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
	apps, err := h.sched.GenerateCalendar(c.Context(), schedule.GenerateInput{
		QuotationID: c.Params("id"),
		StartDate:   in.StartDate,
		Lines:       lines,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"total": len(apps), "applications": apps})
}

// Split godoc
// @Summary      Desdoblar una aplicación en sub-aplicaciones
// @Description  Las cantidades deben sumar exactamente lo requerido por el
// @Description  padre, que queda suspendido; los hijos toman su lugar.
// @Tags         calendar
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ID de la aplicación padre"
// @Param        body  body  dto.SplitRequest  true  "parts: fecha y cantidad de cada hijo"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/calendar/{id}/split [post]
func (h *CalendarHandler) Split(c *fiber.Ctx) error {
	var in dto.SplitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	parts := make([]schedule.SplitPart, 0, len(in.Parts))
	for _, p := range in.Parts {
		parts = append(parts, schedule.SplitPart{Date: p.Date, Quantity: p.Quantity})
	}
	children, err := h.sched.Split(c.Context(), c.Params("id"), parts)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"total": len(children), "children": children})
}

// Reschedule godoc
// @Summary      Reprogramar la fecha de una aplicación
// @Description  Revalida la asignación de lotes para la nueva fecha; si quedó
// @Description  inválida se reasigna en modo auto y el resultado se reporta.
// @Tags         calendar
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la aplicación"
// @Param        body  body  dto.RescheduleRequest  true  "date"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/calendar/{id}/reschedule [post]
func (h *CalendarHandler) Reschedule(c *fiber.Ctx) error {
	var in dto.RescheduleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.sched.Reschedule(c.Context(), c.Params("id"), in.Date)
	if err != nil {
		return respondError(c, err)
	}
	out := fiber.Map{"application": res.Application, "reassigned": res.Reassigned}
	if res.AllocError != nil {
		out["allocation_error"] = res.AllocError.Error()
	}
	return c.JSON(out)
}

// Suspend godoc
// @Summary      Suspender una aplicación pendiente
// @Tags         calendar
// @Produce      json
// @Param        id  path  string  true  "ID de la aplicación"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/calendar/{id}/suspend [post]
func (h *CalendarHandler) Suspend(c *fiber.Ctx) error {
	if err := h.sched.Suspend(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "aplicación suspendida"})
}

// Resume godoc
// @Summary      Reactivar una aplicación suspendida
// @Tags         calendar
// @Produce      json
// @Param        id  path  string  true  "ID de la aplicación"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/calendar/{id}/resume [post]
func (h *CalendarHandler) Resume(c *fiber.Ctx) error {
	if err := h.sched.Resume(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "aplicación reactivada"})
}
