package reservation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovet/planvacunal-api/internal/application/reservation"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/infrastructure/memory"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

type env struct {
	store *memory.Store
	uc    *reservation.UseCase
	stock *stock.UseCase
}

// newEnv arma el administrador de reservas sobre la infraestructura en
// memoria y siembra el producto P con stock 1000 y reservado 0.
func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	products := memory.NewProductRepository(store)
	require.NoError(t, products.Create(&entity.Product{
		ID:                   "P",
		Name:                 "Vacuna Clostridial",
		Stock:                d("1000"),
		Reserved:             decimal.Zero,
		RequiresStockControl: true,
	}))
	txRunner := memory.NewTxRunner(store)
	stockUC := stock.NewUseCase(txRunner, products, memory.NewMovementRepository(store), logger.Nop())
	return &env{
		store: store,
		uc:    reservation.NewUseCase(txRunner, stockUC, logger.Nop()),
		stock: stockUC,
	}
}

// line arma una línea del plan que requiere units*doses dosis en una semana.
func line(productID, units, doses string) entity.PlanLine {
	return entity.PlanLine{
		ProductID:     productID,
		QuantityUnits: d(units),
		DosesPerUnit:  d(doses),
		WeekFrom:      1,
		WeekTo:        1,
	}
}

func accept(quotationID string, lines ...entity.PlanLine) reservation.TransitionInput {
	return reservation.TransitionInput{
		QuotationID: quotationID,
		From:        entity.QuotationStateSent,
		To:          entity.QuotationStateAccepted,
		Lines:       lines,
	}
}

func TestEscenarioA_AceptarYReservar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Q1 necesita 10x50=500
	res, err := e.uc.HandleTransition(ctx, accept("Q1", line("P", "10", "50")))
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "500", res.Created[0].Quantity.String())

	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "1000", snap.Stock.String(), "la reserva no toca el stock físico")
	assert.Equal(t, "500", snap.Reserved.String())
	assert.Equal(t, "500", snap.Available.String())

	// Q2 necesita 600 sobre P con disponible 500
	_, err = e.uc.HandleTransition(ctx, accept("Q2", line("P", "12", "50")))
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "500", stockErr.Available.String())
	assert.Equal(t, "600", stockErr.Required.String())

	// El fallo no dejó estado parcial
	snap, err = e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "500", snap.Reserved.String())
}

func TestEscenarioB_CancelacionIdempotente(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.uc.HandleTransition(ctx, accept("Q1", line("P", "10", "50")))
	require.NoError(t, err)

	del := reservation.TransitionInput{
		QuotationID: "Q1",
		From:        entity.QuotationStateAccepted,
		To:          entity.QuotationStateDeleted,
	}
	res, err := e.uc.HandleTransition(ctx, del)
	require.NoError(t, err)
	assert.Len(t, res.Released, 1)

	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "0", snap.Reserved.String())
	assert.Equal(t, "1000", snap.Available.String())

	// Una reentrega del mismo evento de borrado es un no-op: no hay reservas
	// activas que liberar y no se escribe ningún movimiento nuevo.
	ledgerBefore, err := e.stock.ListMovements(ctx, "P", nil, nil, 0, 0)
	require.NoError(t, err)

	redelivered := del
	redelivered.From = entity.QuotationStateDeleted
	res, err = e.uc.HandleTransition(ctx, redelivered)
	require.NoError(t, err, "la reentrega del borrado no debe fallar")
	assert.Empty(t, res.Released)

	ledgerAfter, err := e.stock.ListMovements(ctx, "P", nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, ledgerAfter, len(ledgerBefore), "la reentrega no agrega movimientos")

	released, err := e.uc.ReleaseForQuotation(ctx, "Q1", "")
	require.NoError(t, err)
	assert.Empty(t, released, "sin reservas activas la liberación es un no-op")

	snap, err = e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "0", snap.Reserved.String())
}

func TestEscenarioD_Reconciliacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.uc.HandleTransition(ctx, accept("Q1", line("P", "10", "50")))
	require.NoError(t, err)

	// Corromper el reservado a 999 con una reserva activa de 500
	_, err = e.stock.AdjustReserved(ctx, "P", d("499"))
	require.NoError(t, err)
	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	require.Equal(t, "999", snap.Reserved.String())

	res, err := e.uc.RecomputeReservedStock(ctx, "P")
	require.NoError(t, err)
	assert.True(t, res.Corrected)
	assert.Equal(t, "999", res.Before.String())
	assert.Equal(t, "500", res.After.String())

	snap, err = e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "500", snap.Reserved.String())

	// El movimiento correctivo queda auditado en el libro
	movs, err := e.stock.ListMovements(ctx, "P", nil, nil, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, movs)
	assert.Equal(t, entity.MovementTypeRelease, movs[0].Type)
	assert.Equal(t, "reconciliation", movs[0].Reason)
	assert.Equal(t, "499", movs[0].Quantity.String())

	// Sin deriva, la segunda pasada no corrige nada
	res, err = e.uc.RecomputeReservedStock(ctx, "P")
	require.NoError(t, err)
	assert.False(t, res.Corrected)
}

func TestReconcileAll(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.uc.HandleTransition(ctx, accept("Q1", line("P", "10", "50")))
	require.NoError(t, err)
	_, err = e.stock.AdjustReserved(ctx, "P", d("100"))
	require.NoError(t, err)

	results, err := e.uc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Corrected)
	assert.Equal(t, "500", results[0].After.String())
}

func TestForceOverrideBackorder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := accept("Q1", line("P", "30", "50")) // 1500 > 1000
	_, err := e.uc.HandleTransition(ctx, in)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	in.ForceOverride = true
	res, err := e.uc.HandleTransition(ctx, in)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)

	// El backorder deja el disponible negativo, nunca oculto
	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "1500", snap.Reserved.String())
	assert.Equal(t, "-500", snap.Available.String())
}

func TestTransicionInvalida(t *testing.T) {
	e := newEnv(t)
	_, err := e.uc.HandleTransition(context.Background(), reservation.TransitionInput{
		QuotationID: "Q1",
		From:        entity.QuotationStateInProgress,
		To:          entity.QuotationStateAccepted,
	})
	var transErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
}

func TestAceptacionRepetidaNoDuplicaReserva(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.uc.HandleTransition(ctx, accept("Q1", line("P", "10", "50")))
	require.NoError(t, err)

	// Corrección idempotente: re-aceptar con otra línea reemplaza la reserva
	in := accept("Q1", line("P", "8", "50"))
	in.From = entity.QuotationStateAccepted
	res, err := e.uc.HandleTransition(ctx, in)
	require.NoError(t, err)
	assert.Len(t, res.Released, 1)
	assert.Len(t, res.Created, 1)

	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "400", snap.Reserved.String(), "la reserva refleja solo la última aceptación")
}

func TestProductoSinControlDeStockSeOmite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	products := memory.NewProductRepository(e.store)
	require.NoError(t, products.Create(&entity.Product{
		ID:                   "libre",
		Name:                 "Jeringa descartable",
		Stock:                decimal.Zero,
		RequiresStockControl: false,
	}))

	res, err := e.uc.HandleTransition(ctx, accept("Q1",
		line("libre", "999", "10"),
		line("P", "10", "50"),
	))
	require.NoError(t, err)
	require.Len(t, res.Created, 1, "solo el producto con control de stock reserva")
	assert.Equal(t, "P", res.Created[0].ProductID)
}

func TestFalloParcialRevierteTodo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// La primera línea cabe (500), la segunda no (600 sobre 500 disponibles)
	_, err := e.uc.HandleTransition(ctx, accept("Q1",
		line("P", "10", "50"),
		line("P", "12", "50"),
	))
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	// Nada quedó aplicado: ni reservado ni movimientos ni estado de cotización
	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "0", snap.Reserved.String())
	movs, err := e.stock.ListQuotationMovements(ctx, "Q1")
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestLibroDeMovimientosPorCotizacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.uc.HandleTransition(ctx, accept("Q1", line("P", "10", "50")))
	require.NoError(t, err)
	_, err = e.uc.ReleaseForQuotation(ctx, "Q1", "user-1")
	require.NoError(t, err)

	movs, err := e.stock.ListQuotationMovements(ctx, "Q1")
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeReserve, movs[0].Type)
	assert.Equal(t, entity.MovementTypeRelease, movs[1].Type)
	assert.Equal(t, "user-1", movs[1].ActorID)
}

func TestAceptacionesConcurrentesSoloUnaGana(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Dos cotizaciones de 600 sobre 1000 disponibles: exactamente una entra
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, q := range []string{"Q1", "Q2"} {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			_, errs[i] = e.uc.HandleTransition(ctx, accept(q, line("P", "12", "50")))
		}(i, q)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			var stockErr *domain.InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	snap, err := e.stock.GetAvailableStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "600", snap.Reserved.String())
}
