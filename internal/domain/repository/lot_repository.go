package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia de lotes físicos.
// Remaining se descuenta solo al confirmar entrega, con la fila bloqueada.
type LotRepository interface {
	Create(l *entity.Lot) error
	GetByID(id string) (*entity.Lot, error)
	GetByCode(productID, code string) (*entity.Lot, error)
	// GetByCodeForUpdate bloquea la fila del lote para el descuento de entrega.
	GetByCodeForUpdate(productID, code string) (*entity.Lot, error)
	// ListUsable devuelve los lotes del producto con restante > 0.
	ListUsable(productID string) ([]*entity.Lot, error)
	UpdateRemaining(id string, remaining decimal.Decimal, updatedAt time.Time) error
}
