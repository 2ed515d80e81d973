package memory

import (
	"context"

	"github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/application/reservation"
	"github.com/agrovet/planvacunal-api/internal/application/schedule"
	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var (
	_ stock.TxRunner       = (*TxRunner)(nil)
	_ reservation.TxRunner = (*TxRunner)(nil)
	_ allocation.TxRunner  = (*TxRunner)(nil)
	_ schedule.TxRunner    = (*TxRunner)(nil)
)

// TxRunner ejecuta funciones transaccionales sobre el store en memoria.
// Serializa todas las transacciones con un mutex global y toma un snapshot
// profundo antes de ejecutar: si fn falla, restaura el estado previo,
// replicando el rollback de PostgreSQL.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store compartido.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

func (t *TxRunner) inTx(ctx context.Context, fn func() error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := t.s.snapshot()
	if err := fn(); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// Run implementa stock.TxRunner.
func (t *TxRunner) Run(ctx context.Context, fn func(
	products repository.ProductRepository,
	movements repository.MovementRepository,
) error) error {
	return t.inTx(ctx, func() error {
		return fn(NewProductRepository(t.s), NewMovementRepository(t.s))
	})
}

// RunReservation implementa reservation.TxRunner.
func (t *TxRunner) RunReservation(ctx context.Context, fn func(
	quotations repository.QuotationRepository,
	products repository.ProductRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
) error) error {
	return t.inTx(ctx, func() error {
		return fn(
			NewQuotationRepository(t.s),
			NewProductRepository(t.s),
			NewMovementRepository(t.s),
			NewReservationRepository(t.s),
		)
	})
}

// RunAllocation implementa allocation.TxRunner.
func (t *TxRunner) RunAllocation(ctx context.Context, fn func(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	lots repository.LotRepository,
	calendar repository.CalendarRepository,
) error) error {
	return t.inTx(ctx, func() error {
		return fn(
			NewProductRepository(t.s),
			NewMovementRepository(t.s),
			NewLotRepository(t.s),
			NewCalendarRepository(t.s),
		)
	})
}

// RunCalendar implementa schedule.TxRunner.
func (t *TxRunner) RunCalendar(ctx context.Context, fn func(
	calendar repository.CalendarRepository,
) error) error {
	return t.inTx(ctx, func() error {
		return fn(NewCalendarRepository(t.s))
	})
}
