package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/application/schedule"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/infrastructure/memory"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

var start = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

type env struct {
	store *memory.Store
	uc    *schedule.UseCase
	alloc *allocation.UseCase
}

// newEnv arma el programador de calendario sobre la infraestructura en
// memoria con un producto sembrado.
func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	products := memory.NewProductRepository(store)
	require.NoError(t, products.Create(&entity.Product{
		ID:                   "P",
		Name:                 "Vacuna Rabia",
		Stock:                d("10000"),
		RequiresStockControl: true,
	}))
	txRunner := memory.NewTxRunner(store)
	stockUC := stock.NewUseCase(txRunner, products, memory.NewMovementRepository(store), logger.Nop())
	allocUC := allocation.NewUseCase(txRunner, memory.NewCalendarRepository(store), stockUC, logger.Nop())
	return &env{
		store: store,
		uc:    schedule.NewUseCase(txRunner, products, allocUC, logger.Nop()),
		alloc: allocUC,
	}
}

func (e *env) generate(t *testing.T, weekFrom, weekTo int) []*entity.CalendarApplication {
	t.Helper()
	apps, err := e.uc.GenerateCalendar(context.Background(), schedule.GenerateInput{
		QuotationID: "Q1",
		StartDate:   start,
		Lines: []entity.PlanLine{{
			ProductID:     "P",
			QuantityUnits: d("10"),
			DosesPerUnit:  d("50"),
			WeekFrom:      weekFrom,
			WeekTo:        weekTo,
		}},
	})
	require.NoError(t, err)
	return apps
}

func TestGenerateCalendar(t *testing.T) {
	e := newEnv(t)
	apps := e.generate(t, 1, 4)
	require.Len(t, apps, 4, "una aplicación por semana del rango")

	for i, app := range apps {
		assert.Equal(t, i+1, app.Week)
		assert.Equal(t, start.AddDate(0, 0, i*7), app.ScheduledDate, "fecha = inicio + (semana-1)*7 días")
		assert.Equal(t, "500", app.Required.String())
		assert.Equal(t, entity.ApplicationStatePending, app.State)
		assert.NotEmpty(t, app.ID)
	}

	// Persistidas y consultables por cotización
	stored, err := memory.NewCalendarRepository(e.store).ListByQuotation("Q1")
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestGenerateCalendarValidaciones(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.uc.GenerateCalendar(ctx, schedule.GenerateInput{QuotationID: "", StartDate: start})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.uc.GenerateCalendar(ctx, schedule.GenerateInput{
		QuotationID: "Q1",
		StartDate:   start,
		Lines: []entity.PlanLine{{
			ProductID:     "P",
			QuantityUnits: d("10"),
			DosesPerUnit:  d("50"),
			WeekFrom:      3,
			WeekTo:        1,
		}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.uc.GenerateCalendar(ctx, schedule.GenerateInput{
		QuotationID: "Q1",
		StartDate:   start,
		Lines: []entity.PlanLine{{
			ProductID:     "nadie",
			QuantityUnits: d("10"),
			DosesPerUnit:  d("50"),
			WeekFrom:      1,
			WeekTo:        1,
		}},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSplit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	parent := e.generate(t, 1, 1)[0]

	children, err := e.uc.Split(ctx, parent.ID, []schedule.SplitPart{
		{Date: start, Quantity: d("200")},
		{Date: start.AddDate(0, 0, 3), Quantity: d("300")},
	})
	require.NoError(t, err)
	require.Len(t, children, 2)

	// Los hijos quedan enlazados al padre con secuencia 1..N
	for i, child := range children {
		assert.Equal(t, parent.ID, child.ParentID)
		assert.Equal(t, i+1, child.Seq)
		assert.Equal(t, parent.Week, child.Week)
		assert.Equal(t, entity.ApplicationStatePending, child.State)
	}
	assert.Equal(t, "200", children[0].Required.String())
	assert.Equal(t, "300", children[1].Required.String())

	// El padre queda suspendido y sin asignación
	calendar := memory.NewCalendarRepository(e.store)
	stored, err := calendar.GetByID(parent.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStateSuspended, stored.State)
	assert.Empty(t, stored.Assignments)

	got, err := calendar.ListChildren(parent.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSplitValidaciones(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	parent := e.generate(t, 1, 1)[0]

	// Menos de dos partes
	_, err := e.uc.Split(ctx, parent.ID, []schedule.SplitPart{{Date: start, Quantity: d("500")}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// La suma debe igualar lo requerido por el padre
	_, err = e.uc.Split(ctx, parent.ID, []schedule.SplitPart{
		{Date: start, Quantity: d("200")},
		{Date: start, Quantity: d("200")},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Un hijo no puede volver a desdoblarse más allá de su padre inmediato;
	// primero desdoblar al padre y luego intentar sobre un hijo ya vale,
	// pero re-desdoblar al padre suspendido no.
	_, err = e.uc.Split(ctx, parent.ID, []schedule.SplitPart{
		{Date: start, Quantity: d("250")},
		{Date: start, Quantity: d("250")},
	})
	require.NoError(t, err)
	_, err = e.uc.Split(ctx, parent.ID, []schedule.SplitPart{
		{Date: start, Quantity: d("250")},
		{Date: start, Quantity: d("250")},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRescheduleRevalidaAsignacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.generate(t, 1, 1)[0]

	lots := memory.NewLotRepository(e.store)
	require.NoError(t, lots.Create(&entity.Lot{
		ProductID: "P",
		Code:      "CORTO",
		Expiry:    start.AddDate(0, 0, 10),
		Remaining: d("500"),
	}))
	require.NoError(t, lots.Create(&entity.Lot{
		ProductID: "P",
		Code:      "LARGO",
		Expiry:    start.AddDate(0, 0, 90),
		Remaining: d("500"),
	}))

	// FEFO elige el lote que vence primero
	res, err := e.alloc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: app.ID, Mode: allocation.ModeAuto})
	require.NoError(t, err)
	require.Equal(t, "CORTO", res.Assignments[0].LotCode)

	// Reprogramar más allá del vencimiento del lote corto dispara reasignación
	result, err := e.uc.Reschedule(ctx, app.ID, start.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.True(t, result.Reassigned)
	require.NoError(t, result.AllocError)

	stored, err := memory.NewCalendarRepository(e.store).GetByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, "LARGO", stored.Assignments[0].LotCode)
	assert.Equal(t, start.AddDate(0, 0, 30), stored.ScheduledDate)
}

func TestRescheduleSinAsignacionNoReasigna(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.generate(t, 1, 1)[0]

	result, err := e.uc.Reschedule(ctx, app.ID, start.AddDate(0, 0, 14))
	require.NoError(t, err)
	assert.False(t, result.Reassigned)
	assert.Equal(t, start.AddDate(0, 0, 14), result.Application.ScheduledDate)
}

func TestRescheduleFalloDeReasignacionNoRevierteFecha(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.generate(t, 1, 1)[0]

	// Único lote: vence antes de la nueva fecha
	require.NoError(t, memory.NewLotRepository(e.store).Create(&entity.Lot{
		ProductID: "P",
		Code:      "CORTO",
		Expiry:    start.AddDate(0, 0, 10),
		Remaining: d("500"),
	}))
	_, err := e.alloc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: app.ID, Mode: allocation.ModeAuto})
	require.NoError(t, err)

	newDate := start.AddDate(0, 0, 30)
	result, err := e.uc.Reschedule(ctx, app.ID, newDate)
	require.NoError(t, err)
	assert.Error(t, result.AllocError, "la asignación quedó inválida y no hay reemplazo")
	assert.Equal(t, newDate, result.Application.ScheduledDate, "la nueva fecha se conserva")
}

func TestSuspendYResume(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app := e.generate(t, 1, 1)[0]

	require.NoError(t, e.uc.Suspend(ctx, app.ID))
	calendar := memory.NewCalendarRepository(e.store)
	stored, err := calendar.GetByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStateSuspended, stored.State)

	// Reanudar sin entregas vuelve a pending
	require.NoError(t, e.uc.Resume(ctx, app.ID))
	stored, err = calendar.GetByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatePending, stored.State)

	// Reanudar algo no suspendido es conflicto
	assert.ErrorIs(t, e.uc.Resume(ctx, app.ID), domain.ErrConflict)

	// Con entregas parciales, reanudar vuelve a partial
	stored.Delivered = d("100")
	stored.State = entity.ApplicationStateSuspended
	require.NoError(t, calendar.Update(stored))
	require.NoError(t, e.uc.Resume(ctx, app.ID))
	stored, err = calendar.GetByID(app.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatePartial, stored.State)
}
