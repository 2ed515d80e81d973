package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia de productos.
// Stock y Reserved se escriben solo desde los primitivos de la cuenta de
// stock, siempre dentro de una transacción.
type ProductRepository interface {
	Create(p *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(id string) (*entity.Product, error)
	UpdateStock(id string, stock decimal.Decimal, updatedAt time.Time) error
	UpdateReserved(id string, reserved decimal.Decimal, updatedAt time.Time) error
	ListStockControlled() ([]*entity.Product, error)
}
