package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/application/dto"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// AllocationHandler maneja la asignación de lotes, entregas e ingresos.
type AllocationHandler struct {
	alloc *allocation.UseCase
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(allocUC *allocation.UseCase) *AllocationHandler {
	return &AllocationHandler{alloc: allocUC}
}

// Allocate godoc
// @Summary      Asignar lote(s) a una aplicación de calendario
// @Description  Modos: single (un lote que cubra todo), multi (suma FEFO),
// @Description  auto (single con fallback a multi) y manual (selección del operador).
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la aplicación"
// @Param        body  body  dto.AllocateRequest  true  "mode, selection (manual)"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/calendar/{id}/allocate [post]
func (h *AllocationHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	manual := make([]entity.LotAssignment, 0, len(in.Selection))
	for _, s := range in.Selection {
		manual = append(manual, entity.LotAssignment{LotCode: s.LotCode, Quantity: s.Quantity})
	}
	res, err := h.alloc.Allocate(c.Context(), allocation.AllocateInput{
		CalendarAppID: c.Params("id"),
		Mode:          in.Mode,
		Manual:        manual,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"calendar_app_id": res.CalendarAppID,
		"assignments":     res.Assignments,
		"expiry_warning":  res.ExpiryWarning,
		"changed":         res.Changed,
	})
}

// ConfirmDelivery godoc
// @Summary      Confirmar la entrega (total o parcial) de una aplicación
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la aplicación"
// @Param        body  body  dto.DeliveryRequest  true  "quantity, actor_id"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/calendar/{id}/delivery [post]
func (h *AllocationHandler) ConfirmDelivery(c *fiber.Ctx) error {
	var in dto.DeliveryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.alloc.ConfirmDelivery(c.Context(), c.Params("id"), in.Quantity, in.ActorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"calendar_app_id": res.CalendarAppID,
		"delivered":       res.Delivered,
		"faltante":        res.Faltante,
		"state":           res.State,
	})
}

// RegisterLotIntake godoc
// @Summary      Registrar el ingreso de un lote recibido
// @Description  Crea el lote y el movimiento Inflow en la misma transacción.
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LotIntakeRequest  true  "product_id, code, expiry, quantity"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *AllocationHandler) RegisterLotIntake(c *fiber.Ctx) error {
	var in dto.LotIntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lot, err := h.alloc.RegisterLotIntake(c.Context(), allocation.IntakeInput{
		ProductID: in.ProductID,
		Code:      in.Code,
		Expiry:    in.Expiry,
		Quantity:  in.Quantity,
		Location:  in.Location,
		ActorID:   in.ActorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lot_id": lot.ID, "code": lot.Code})
}

// GetApplication godoc
// @Summary      Consultar una aplicación de calendario
// @Tags         allocation
// @Produce      json
// @Param        id  path  string  true  "ID de la aplicación"
// @Success      200  {object}  entity.CalendarApplication
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/calendar/{id} [get]
func (h *AllocationHandler) GetApplication(c *fiber.Ctx) error {
	app, err := h.alloc.GetApplication(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(app)
}
