package schedule

import (
	"context"

	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con el
// repositorio de calendario atado a esa tx. El desdoblamiento crea los hijos
// y suspende al padre de forma atómica.
type TxRunner interface {
	RunCalendar(ctx context.Context, fn func(
		calendar repository.CalendarRepository,
	) error) error
}
