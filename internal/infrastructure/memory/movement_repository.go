package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación en memoria del libro de movimientos.
// Append-only: el slice solo crece, nunca se edita una entrada existente.
type MovementRepo struct {
	s *Store
}

// NewMovementRepository construye el adaptador sobre el store compartido.
func NewMovementRepository(s *Store) *MovementRepo {
	return &MovementRepo{s: s}
}

// Create agrega una entrada al libro.
func (r *MovementRepo) Create(m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	r.s.movements = append(r.s.movements, cloneMovement(m))
	return nil
}

// GetByID devuelve el movimiento o nil si no existe.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

// ListByProduct devuelve los movimientos del producto, más reciente primero,
// con filtro opcional de rango de fechas y paginación.
func (r *MovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []*entity.Movement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		matched = append(matched, m)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]*entity.Movement, len(matched))
	for i, m := range matched {
		out[i] = cloneMovement(m)
	}
	return out, nil
}

// ListByQuotation devuelve los movimientos originados por una cotización,
// en orden de inserción.
func (r *MovementRepo) ListByQuotation(quotationID string) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if m.QuotationID == quotationID {
			out = append(out, cloneMovement(m))
		}
	}
	return out, nil
}
