package allocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/infrastructure/memory"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

var today = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

type env struct {
	store *memory.Store
	uc    *allocation.UseCase
	stock *stock.UseCase
}

// newEnv arma el asignador de lotes sobre la infraestructura en memoria con
// un producto sembrado.
func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	products := memory.NewProductRepository(store)
	require.NoError(t, products.Create(&entity.Product{
		ID:                   "P",
		Name:                 "Vacuna Brucelosis",
		Stock:                d("1000"),
		RequiresStockControl: true,
	}))
	txRunner := memory.NewTxRunner(store)
	stockUC := stock.NewUseCase(txRunner, products, memory.NewMovementRepository(store), logger.Nop())
	uc := allocation.NewUseCase(txRunner, memory.NewCalendarRepository(store), stockUC, logger.Nop())
	return &env{store: store, uc: uc, stock: stockUC}
}

func (e *env) seedLot(t *testing.T, code, remaining string, expiryDays int) {
	t.Helper()
	require.NoError(t, memory.NewLotRepository(e.store).Create(&entity.Lot{
		ProductID: "P",
		Code:      code,
		Expiry:    today.AddDate(0, 0, expiryDays),
		Remaining: d(remaining),
	}))
}

func (e *env) seedApp(t *testing.T, id, required string, scheduledDays int) {
	t.Helper()
	require.NoError(t, memory.NewCalendarRepository(e.store).Create(&entity.CalendarApplication{
		ID:            id,
		QuotationID:   "Q1",
		ProductID:     "P",
		Week:          1,
		ScheduledDate: today.AddDate(0, 0, scheduledDays),
		Required:      d(required),
		Delivered:     decimal.Zero,
		State:         entity.ApplicationStatePending,
	}))
}

func TestEscenarioC_CapacidadInsuficiente(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// A(300) vence en 10 días, B(400) en 60; la aplicación es en 30 días
	e.seedLot(t, "A", "300", 10)
	e.seedLot(t, "B", "400", 60)
	e.seedApp(t, "app1", "500", 30)

	_, err := e.uc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: "app1", Mode: allocation.ModeSingle})
	require.ErrorIs(t, err, domain.ErrNoSingleLotSufficient)

	_, err = e.uc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: "app1", Mode: allocation.ModeMulti})
	var capErr *domain.InsufficientLotCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "100", capErr.Shortfall.String())
}

func TestAllocateAutoConFallback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedLot(t, "A", "300", 40)
	e.seedLot(t, "B", "400", 60)
	e.seedApp(t, "app1", "500", 30)

	// Ningún lote cubre 500 solo: auto cae a multi-lote FEFO
	res, err := e.uc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: "app1", Mode: allocation.ModeAuto})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.Len(t, res.Assignments, 2)
	assert.Equal(t, "A", res.Assignments[0].LotCode)
	assert.Equal(t, "300", res.Assignments[0].Quantity.String())
	assert.Equal(t, "B", res.Assignments[1].LotCode)
	assert.Equal(t, "200", res.Assignments[1].Quantity.String())

	// La asignación es tentativa: el restante de los lotes no se descontó
	lots, err := memory.NewLotRepository(e.store).ListUsable("P")
	require.NoError(t, err)
	assert.Equal(t, "300", lots[0].Remaining.String())
	assert.Equal(t, "400", lots[1].Remaining.String())

	// Una segunda pasada auto es no-op mientras la asignación siga válida
	res, err = e.uc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: "app1", Mode: allocation.ModeAuto})
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestAllocateManualConAdvertencia(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedLot(t, "A", "300", 10)
	e.seedLot(t, "B", "400", 60)
	e.seedApp(t, "app1", "500", 30)

	// El operador fuerza el lote que vence antes de la fecha programada
	res, err := e.uc.Allocate(ctx, allocation.AllocateInput{
		CalendarAppID: "app1",
		Mode:          allocation.ModeManual,
		Manual: []entity.LotAssignment{
			{LotCode: "A", Quantity: d("100")},
			{LotCode: "B", Quantity: d("400")},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.ExpiryWarning, "el lote vencido a la fecha advierte, no bloquea")
}

func TestConfirmDeliveryTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedLot(t, "A", "300", 40)
	e.seedLot(t, "B", "400", 60)
	e.seedApp(t, "app1", "500", 30)

	_, err := e.uc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: "app1", Mode: allocation.ModeAuto})
	require.NoError(t, err)

	res, err := e.uc.ConfirmDelivery(ctx, "app1", d("500"), "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStateDelivered, res.State)
	assert.Equal(t, "0", res.Faltante.String())
	require.Len(t, res.Movements, 2, "un Outflow por lote consumido")
	assert.Equal(t, "A", res.Movements[0].LotCode)
	assert.Equal(t, "B", res.Movements[1].LotCode)

	// El descuento de los lotes ocurrió recién en la entrega
	lotRepo := memory.NewLotRepository(e.store)
	a, err := lotRepo.GetByCode("P", "A")
	require.NoError(t, err)
	assert.Equal(t, "0", a.Remaining.String())
	b, err := lotRepo.GetByCode("P", "B")
	require.NoError(t, err)
	assert.Equal(t, "200", b.Remaining.String())

	// El stock físico bajó por los Outflow
	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "500", snap.Stock.String())
}

func TestConfirmDeliveryParcialYCompletarFaltante(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedLot(t, "B", "600", 60)
	e.seedApp(t, "app1", "500", 30)

	_, err := e.uc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: "app1", Mode: allocation.ModeSingle})
	require.NoError(t, err)

	// Entrega parcial: 300 de 500
	res, err := e.uc.ConfirmDelivery(ctx, "app1", d("300"), "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStatePartial, res.State)
	assert.Equal(t, "200", res.Faltante.String())

	// Completar el faltante
	res, err = e.uc.ConfirmDelivery(ctx, "app1", d("200"), "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ApplicationStateDelivered, res.State)
	assert.Equal(t, "0", res.Faltante.String())
	assert.Equal(t, "500", res.Delivered.String())

	// Entregar sobre una aplicación completa falla
	_, err = e.uc.ConfirmDelivery(ctx, "app1", d("1"), "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestConfirmDeliveryValidaciones(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedLot(t, "B", "600", 60)
	e.seedApp(t, "app1", "500", 30)

	// Más que el faltante
	_, err := e.uc.ConfirmDelivery(ctx, "app1", d("600"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Sin asignación vigente no hay de dónde entregar
	_, err = e.uc.ConfirmDelivery(ctx, "app1", d("100"), "")
	assert.ErrorIs(t, err, domain.ErrNoLotsAvailable)

	_, err = e.uc.ConfirmDelivery(ctx, "nadie", d("100"), "")
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

func TestAllocateSuspendida(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.seedLot(t, "B", "600", 60)
	require.NoError(t, memory.NewCalendarRepository(e.store).Create(&entity.CalendarApplication{
		ID:            "app1",
		QuotationID:   "Q1",
		ProductID:     "P",
		ScheduledDate: today,
		Required:      d("100"),
		State:         entity.ApplicationStateSuspended,
	}))

	_, err := e.uc.Allocate(ctx, allocation.AllocateInput{CalendarAppID: "app1", Mode: allocation.ModeAuto})
	assert.ErrorIs(t, err, domain.ErrApplicationSuspended)
	_, err = e.uc.ConfirmDelivery(ctx, "app1", d("100"), "")
	assert.ErrorIs(t, err, domain.ErrApplicationSuspended)
}

func TestRegisterLotIntake(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	lot, err := e.uc.RegisterLotIntake(ctx, allocation.IntakeInput{
		ProductID: "P",
		Code:      "L-2026-07",
		Expiry:    today.AddDate(0, 6, 0),
		Quantity:  d("250"),
		Location:  "cámara 2",
		ActorID:   "user-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lot.ID)

	// Lote e Inflow confirmados juntos
	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "1250", snap.Stock.String())
	movs, err := e.stock.ListMovements(ctx, "P", nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeInflow, movs[0].Type)
	assert.Equal(t, "L-2026-07", movs[0].LotCode)

	// El código duplicado revierte todo, incluido el Inflow
	_, err = e.uc.RegisterLotIntake(ctx, allocation.IntakeInput{
		ProductID: "P",
		Code:      "L-2026-07",
		Expiry:    today.AddDate(0, 6, 0),
		Quantity:  d("100"),
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	snap, err = e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "1250", snap.Stock.String())
}
