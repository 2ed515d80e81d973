package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación en memoria de ReservationRepository.
// Las reservas liberadas se conservan como auditoría.
type ReservationRepo struct {
	s *Store
}

// NewReservationRepository construye el adaptador sobre el store compartido.
func NewReservationRepository(s *Store) *ReservationRepo {
	return &ReservationRepo{s: s}
}

// Create persiste una reserva; genera el ID si viene vacío.
func (r *ReservationRepo) Create(res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	r.s.reservations[res.ID] = cloneReservation(res)
	r.s.resOrder = append(r.s.resOrder, res.ID)
	return nil
}

func (r *ReservationRepo) list(match func(*entity.Reservation) bool) []*entity.Reservation {
	var out []*entity.Reservation
	for _, id := range r.s.resOrder {
		res, ok := r.s.reservations[id]
		if ok && match(res) {
			out = append(out, cloneReservation(res))
		}
	}
	return out
}

// ListActiveByQuotation devuelve las reservas activas de la cotización.
func (r *ReservationRepo) ListActiveByQuotation(quotationID string) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(res *entity.Reservation) bool {
		return res.QuotationID == quotationID && res.IsActive()
	}), nil
}

// ListActiveByProduct devuelve las reservas activas sobre el producto.
func (r *ReservationRepo) ListActiveByProduct(productID string) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(res *entity.Reservation) bool {
		return res.ProductID == productID && res.IsActive()
	}), nil
}

// ListByQuotation devuelve todas las reservas de la cotización, activas o no.
func (r *ReservationRepo) ListByQuotation(quotationID string) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(res *entity.Reservation) bool {
		return res.QuotationID == quotationID
	}), nil
}

// MarkReleased pasa la reserva a released conservando la fila.
func (r *ReservationRepo) MarkReleased(id string, releasedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return domain.ErrNotFound
	}
	res.State = entity.ReservationStateReleased
	res.ReleasedAt = &releasedAt
	return nil
}
