package reservation

import (
	"context"

	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del motor de reservas atados a esa tx. La implementación
// PostgreSQL traduce fallos de serialización/deadlock a
// domain.ErrConcurrencyConflict para que el caso de uso reintente.
type TxRunner interface {
	RunReservation(ctx context.Context, fn func(
		quotations repository.QuotationRepository,
		products repository.ProductRepository,
		movements repository.MovementRepository,
		reservations repository.ReservationRepository,
	) error) error
}
