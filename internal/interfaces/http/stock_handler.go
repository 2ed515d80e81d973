package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/agrovet/planvacunal-api/internal/application/dto"
	"github.com/agrovet/planvacunal-api/internal/application/reservation"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP de la cuenta de stock y el libro
// de movimientos.
type StockHandler struct {
	stock *stock.UseCase
	res   *reservation.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(stockUC *stock.UseCase, resUC *reservation.UseCase) *StockHandler {
	return &StockHandler{stock: stockUC, res: resUC}
}

// GetStock godoc
// @Summary      Foto de stock de un producto
// @Tags         stock
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	snap, err := h.stock.GetAvailableStock(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StockResponse{
		ProductID: snap.ProductID,
		Stock:     snap.Stock,
		Reserved:  snap.Reserved,
		Available: snap.Available,
		BelowMin:  snap.BelowMin,
	})
}

// RegisterMovement godoc
// @Summary      Registrar un movimiento de stock
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del producto"
// @Param        body  body  dto.MovementRequest  true  "type, quantity, reason"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [post]
func (h *StockHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.stock.RecordMovement(c.Context(), stock.MovementInput{
		ProductID:   c.Params("id"),
		Type:        entity.MovementType(in.Type),
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		QuotationID: in.QuotationID,
		LotCode:     in.LotCode,
		ActorID:     in.ActorID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"movement_id":  mov.ID,
		"stock_before": mov.StockBefore,
		"stock_after":  mov.StockAfter,
	})
}

// ListMovements godoc
// @Summary      Libro de movimientos de un producto
// @Tags         stock
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        from    query  string  false  "Fecha desde (RFC3339)"
// @Param        to      query  string  false  "Fecha hasta (RFC3339)"
// @Param        limit   query  int     false  "Máximo de filas (default 100)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido"})
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido"})
		}
		to = &t
	}
	movs, err := h.stock.ListMovements(c.Context(), c.Params("id"), from, to, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(movs), "movements": movs})
}

// RecomputeReserved godoc
// @Summary      Recalcular el reservado de un producto desde sus reservas activas
// @Tags         stock
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/recompute-reserved [post]
func (h *StockHandler) RecomputeReserved(c *fiber.Ctx) error {
	res, err := h.res.RecomputeReservedStock(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{
		ProductID: res.ProductID,
		Before:    res.Before,
		After:     res.After,
		Corrected: res.Corrected,
	})
}
