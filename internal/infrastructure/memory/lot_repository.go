package memory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación en memoria de LotRepository.
type LotRepo struct {
	s *Store
}

// NewLotRepository construye el adaptador sobre el store compartido.
func NewLotRepository(s *Store) *LotRepo {
	return &LotRepo{s: s}
}

// Create persiste un lote. (product_id, code) es único.
func (r *LotRepo) Create(l *entity.Lot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.lots {
		if existing.ProductID == l.ProductID && existing.Code == l.Code {
			return fmt.Errorf("create lot %s: %w", l.Code, domain.ErrConflict)
		}
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	r.s.lots[l.ID] = cloneLot(l)
	r.s.lotOrder = append(r.s.lotOrder, l.ID)
	return nil
}

// GetByID devuelve el lote o nil si no existe.
func (r *LotRepo) GetByID(id string) (*entity.Lot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.lots[id]
	if !ok {
		return nil, nil
	}
	return cloneLot(l), nil
}

// GetByCode devuelve el lote por producto y código, o nil si no existe.
func (r *LotRepo) GetByCode(productID, code string) (*entity.Lot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.lots {
		if l.ProductID == productID && l.Code == code {
			return cloneLot(l), nil
		}
	}
	return nil, nil
}

// GetByCodeForUpdate equivale a GetByCode: la transacción ya serializa.
func (r *LotRepo) GetByCodeForUpdate(productID, code string) (*entity.Lot, error) {
	return r.GetByCode(productID, code)
}

// ListUsable devuelve los lotes del producto con restante > 0, ordenados por
// vencimiento ascendente y código como desempate.
func (r *LotRepo) ListUsable(productID string) ([]*entity.Lot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Lot
	for _, id := range r.s.lotOrder {
		l, ok := r.s.lots[id]
		if ok && l.ProductID == productID && l.Remaining.GreaterThan(decimal.Zero) {
			out = append(out, cloneLot(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Expiry.Equal(out[j].Expiry) {
			return out[i].Expiry.Before(out[j].Expiry)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

// UpdateRemaining escribe la cantidad restante del lote.
func (r *LotRepo) UpdateRemaining(id string, remaining decimal.Decimal, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lots[id]
	if !ok {
		return domain.ErrLotNotFound
	}
	l.Remaining = remaining
	l.UpdatedAt = updatedAt
	return nil
}
