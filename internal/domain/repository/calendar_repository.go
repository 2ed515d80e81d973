package repository

import (
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// CalendarRepository define el puerto de persistencia de aplicaciones
// de calendario, incluyendo los enlaces padre/hijo del desdoblamiento.
type CalendarRepository interface {
	Create(a *entity.CalendarApplication) error
	GetByID(id string) (*entity.CalendarApplication, error)
	// GetForUpdate bloquea la fila para asignación o entrega.
	GetForUpdate(id string) (*entity.CalendarApplication, error)
	Update(a *entity.CalendarApplication) error
	ListByQuotation(quotationID string) ([]*entity.CalendarApplication, error)
	ListChildren(parentID string) ([]*entity.CalendarApplication, error)
}
