package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/application/reservation"
	"github.com/agrovet/planvacunal-api/internal/application/schedule"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC       *stock.UseCase
	ReservationUC *reservation.UseCase
	AllocationUC  *allocation.UseCase
	ScheduleUC    *schedule.UseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Cuenta de stock y libro de movimientos
	products := api.Group("/products")
	stockHandler := NewStockHandler(deps.StockUC, deps.ReservationUC)
	products.Get("/:id/stock", stockHandler.GetStock)
	products.Post("/:id/movements", stockHandler.RegisterMovement)
	products.Get("/:id/movements", stockHandler.ListMovements)
	products.Post("/:id/recompute-reserved", stockHandler.RecomputeReserved)

	// Transiciones de cotización y reservas
	quotations := api.Group("/quotations")
	reservationHandler := NewReservationHandler(deps.ReservationUC, deps.StockUC)
	quotations.Post("/:id/transition", reservationHandler.Transition)
	quotations.Post("/:id/release", reservationHandler.Release)
	quotations.Get("/:id/movements", reservationHandler.ListMovements)

	// Calendario del plan vacunal
	calendarHandler := NewCalendarHandler(deps.ScheduleUC)
	quotations.Post("/:id/calendar", calendarHandler.Generate)

	calendar := api.Group("/calendar")
	allocationHandler := NewAllocationHandler(deps.AllocationUC)
	calendar.Get("/:id", allocationHandler.GetApplication)
	calendar.Post("/:id/allocate", allocationHandler.Allocate)
	calendar.Post("/:id/delivery", allocationHandler.ConfirmDelivery)
	calendar.Post("/:id/split", calendarHandler.Split)
	calendar.Post("/:id/reschedule", calendarHandler.Reschedule)
	calendar.Post("/:id/suspend", calendarHandler.Suspend)
	calendar.Post("/:id/resume", calendarHandler.Resume)

	// Ingreso de lotes
	api.Post("/lots", allocationHandler.RegisterLotIntake)
}
