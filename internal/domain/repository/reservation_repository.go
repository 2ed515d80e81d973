package repository

import (
	"time"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia de reservas.
// Las reservas nunca se borran: MarkReleased conserva la fila como auditoría.
type ReservationRepository interface {
	Create(r *entity.Reservation) error
	ListActiveByQuotation(quotationID string) ([]*entity.Reservation, error)
	ListActiveByProduct(productID string) ([]*entity.Reservation, error)
	ListByQuotation(quotationID string) ([]*entity.Reservation, error)
	MarkReleased(id string, releasedAt time.Time) error
}
