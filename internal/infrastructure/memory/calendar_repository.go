package memory

import (
	"sort"

	"github.com/google/uuid"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.CalendarRepository = (*CalendarRepo)(nil)

// CalendarRepo implementación en memoria de CalendarRepository.
type CalendarRepo struct {
	s *Store
}

// NewCalendarRepository construye el adaptador sobre el store compartido.
func NewCalendarRepository(s *Store) *CalendarRepo {
	return &CalendarRepo{s: s}
}

// Create persiste una aplicación; genera el ID si viene vacío.
func (r *CalendarRepo) Create(a *entity.CalendarApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if _, ok := r.s.calendar[a.ID]; ok {
		return domain.ErrConflict
	}
	r.s.calendar[a.ID] = cloneApplication(a)
	r.s.calOrder = append(r.s.calOrder, a.ID)
	return nil
}

// GetByID devuelve la aplicación o nil si no existe.
func (r *CalendarRepo) GetByID(id string) (*entity.CalendarApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.calendar[id]
	if !ok {
		return nil, nil
	}
	return cloneApplication(a), nil
}

// GetForUpdate equivale a GetByID: la transacción ya serializa.
func (r *CalendarRepo) GetForUpdate(id string) (*entity.CalendarApplication, error) {
	return r.GetByID(id)
}

// Update sobrescribe la aplicación completa.
func (r *CalendarRepo) Update(a *entity.CalendarApplication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.calendar[a.ID]; !ok {
		return domain.ErrApplicationNotFound
	}
	r.s.calendar[a.ID] = cloneApplication(a)
	return nil
}

// ListByQuotation devuelve las aplicaciones de la cotización ordenadas por
// semana, producto y secuencia de desdoblamiento.
func (r *CalendarRepo) ListByQuotation(quotationID string) ([]*entity.CalendarApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.CalendarApplication
	for _, id := range r.s.calOrder {
		a, ok := r.s.calendar[id]
		if ok && a.QuotationID == quotationID {
			out = append(out, cloneApplication(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// ListChildren devuelve los hijos de un desdoblamiento en orden de secuencia.
func (r *CalendarRepo) ListChildren(parentID string) ([]*entity.CalendarApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.CalendarApplication
	for _, id := range r.s.calOrder {
		a, ok := r.s.calendar[id]
		if ok && a.ParentID == parentID {
			out = append(out, cloneApplication(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
