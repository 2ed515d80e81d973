package stock

import (
	"context"

	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el movimiento y la actualización
// de stock/reservado del producto se confirmen juntos o no se apliquen.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		products repository.ProductRepository,
		movements repository.MovementRepository,
	) error) error
}
