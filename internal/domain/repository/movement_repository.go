package repository

import (
	"time"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del libro de movimientos.
// Es append-only: no existe actualización ni borrado de movimientos.
type MovementRepository interface {
	Create(m *entity.Movement) error
	GetByID(id string) (*entity.Movement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByQuotation(quotationID string) ([]*entity.Movement, error)
}
