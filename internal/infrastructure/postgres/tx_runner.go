package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	appalloc "github.com/agrovet/planvacunal-api/internal/application/allocation"
	appres "github.com/agrovet/planvacunal-api/internal/application/reservation"
	appsched "github.com/agrovet/planvacunal-api/internal/application/schedule"
	appstock "github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

// Ensure TxRunner implements los puertos de transacción de cada caso de uso.
var _ appstock.TxRunner = (*TxRunner)(nil)
var _ appres.TxRunner = (*TxRunner)(nil)
var _ appalloc.TxRunner = (*TxRunner)(nil)
var _ appsched.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Los fallos de serialización/deadlock se traducen a domain.ErrConcurrencyConflict
// para que los casos de uso reintenten la transición completa.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) inTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Run inicia una transacción con los repos de la cuenta de stock.
func (r *TxRunner) Run(ctx context.Context, fn func(
	products repository.ProductRepository,
	movements repository.MovementRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewProductRepository(q), NewMovementRepository(q))
	})
}

// RunReservation inicia una transacción con los repos del motor de reservas.
func (r *TxRunner) RunReservation(ctx context.Context, fn func(
	quotations repository.QuotationRepository,
	products repository.ProductRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewQuotationRepository(q), NewProductRepository(q), NewMovementRepository(q), NewReservationRepository(q))
	})
}

// RunAllocation inicia una transacción con los repos del motor de lotes.
func (r *TxRunner) RunAllocation(ctx context.Context, fn func(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	lots repository.LotRepository,
	calendar repository.CalendarRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewProductRepository(q), NewMovementRepository(q), NewLotRepository(q), NewCalendarRepository(q))
	})
}

// RunCalendar inicia una transacción con el repo de calendario.
func (r *TxRunner) RunCalendar(ctx context.Context, fn func(
	calendar repository.CalendarRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewCalendarRepository(q))
	})
}
