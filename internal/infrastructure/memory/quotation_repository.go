package memory

import (
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.QuotationRepository = (*QuotationRepo)(nil)

// QuotationRepo implementación en memoria de QuotationRepository.
type QuotationRepo struct {
	s *Store
}

// NewQuotationRepository construye el adaptador sobre el store compartido.
func NewQuotationRepository(s *Store) *QuotationRepo {
	return &QuotationRepo{s: s}
}

// Lock no hace nada: el TxRunner en memoria ya serializa todas las
// transacciones con un mutex global, que subsume el candado por cotización.
func (r *QuotationRepo) Lock(quotationID string) error {
	return nil
}

// Get devuelve el último estado observado de la cotización, o nil.
func (r *QuotationRepo) Get(quotationID string) (*entity.Quotation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.quotations[quotationID]
	if !ok {
		return nil, nil
	}
	c := *q
	return &c, nil
}

// Upsert guarda el estado de la cotización.
func (r *QuotationRepo) Upsert(q *entity.Quotation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *q
	r.s.quotations[q.ID] = &c
	return nil
}
