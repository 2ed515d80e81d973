package allocation

import (
	"context"

	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del motor de lotes atados a esa tx. El descuento de
// Lot.Remaining y el movimiento Outflow de la entrega comparten transacción.
type TxRunner interface {
	RunAllocation(ctx context.Context, fn func(
		products repository.ProductRepository,
		movements repository.MovementRepository,
		lots repository.LotRepository,
		calendar repository.CalendarRepository,
	) error) error
}
