package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

// UseCase es la cuenta de stock: los dos únicos primitivos que escriben
// Product.Stock y Product.Reserved, siempre con la fila bloqueada
// (SELECT FOR UPDATE) y el movimiento del libro en la misma transacción.
// Ningún otro camino de código escribe esos campos.
type UseCase struct {
	txRunner  TxRunner
	products  repository.ProductRepository
	movements repository.MovementRepository
	log       *logger.Logger
}

// NewUseCase construye la cuenta de stock.
func NewUseCase(txRunner TxRunner, products repository.ProductRepository, movements repository.MovementRepository, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, products: products, movements: movements, log: log}
}

// MovementInput entrada para registrar un movimiento del libro.
type MovementInput struct {
	ProductID   string
	Type        entity.MovementType
	Quantity    decimal.Decimal
	Reason      string
	QuotationID string
	LotCode     string
	ActorID     string
}

// AvailableStock es la foto de stock de un producto.
type AvailableStock struct {
	ProductID string
	Stock     decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
	BelowMin  bool
}

// RecordMovement registra un movimiento en su propia transacción.
// Inflow suma y Outflow resta stock físico; Reserve y Release no tocan el
// stock (la reserva se ajusta con AdjustReserved). El movimiento queda en el
// libro con stock antes/después y es inmutable.
func (uc *UseCase) RecordMovement(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	var mov *entity.Movement
	err := uc.txRunner.Run(ctx, func(products repository.ProductRepository, movements repository.MovementRepository) error {
		var err error
		mov, err = uc.RecordMovementInTx(products, movements, in, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// RecordMovementInTx registra un movimiento usando repositorios de una
// transacción abierta por el caller (misma disciplina que la versión propia).
func (uc *UseCase) RecordMovementInTx(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	in MovementInput,
	now time.Time,
) (*entity.Movement, error) {
	if !in.Type.IsValid() {
		return nil, domain.ErrInvalidMovementType
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	// Bloquea la fila del producto para leer el stock vigente
	p, err := products.GetForUpdate(in.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}

	before := p.Stock
	after := before
	switch in.Type {
	case entity.MovementTypeInflow:
		after = before.Add(in.Quantity)
	case entity.MovementTypeOutflow:
		if before.LessThan(in.Quantity) {
			return nil, &domain.InsufficientStockError{
				ProductID: in.ProductID,
				Available: before,
				Required:  in.Quantity,
			}
		}
		after = before.Sub(in.Quantity)
	}
	if in.Type.AffectsStock() {
		if err := products.UpdateStock(in.ProductID, after, now); err != nil {
			return nil, err
		}
	}

	mov := &entity.Movement{
		ProductID:   in.ProductID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		StockBefore: before,
		StockAfter:  after,
		Reason:      in.Reason,
		QuotationID: in.QuotationID,
		LotCode:     in.LotCode,
		ActorID:     in.ActorID,
		CreatedAt:   now,
	}
	if err := movements.Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// AdjustReserved suma delta (positivo o negativo) a Product.Reserved en su
// propia transacción. Al liberar, el reservado tiene piso en cero: se tolera
// la deriva en vez de dejar un reservado negativo.
func (uc *UseCase) AdjustReserved(ctx context.Context, productID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var newReserved decimal.Decimal
	err := uc.txRunner.Run(ctx, func(products repository.ProductRepository, _ repository.MovementRepository) error {
		var err error
		newReserved, err = uc.AdjustReservedInTx(products, productID, delta, time.Now())
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newReserved, nil
}

// AdjustReservedInTx versión para componer dentro de la transacción del caller.
func (uc *UseCase) AdjustReservedInTx(
	products repository.ProductRepository,
	productID string,
	delta decimal.Decimal,
	now time.Time,
) (decimal.Decimal, error) {
	p, err := products.GetForUpdate(productID)
	if err != nil {
		return decimal.Zero, err
	}
	if p == nil {
		return decimal.Zero, domain.ErrProductNotFound
	}
	newReserved := p.Reserved.Add(delta)
	if newReserved.IsNegative() {
		uc.log.Warn().
			Str("product_id", productID).
			Str("reserved", p.Reserved.String()).
			Str("delta", delta.String()).
			Msg("liberación mayor al reservado vigente; se aplica piso en cero")
		newReserved = decimal.Zero
	}
	if err := products.UpdateReserved(productID, newReserved, now); err != nil {
		return decimal.Zero, err
	}
	return newReserved, nil
}

// ListMovements devuelve el libro de un producto, más reciente primero,
// con filtro opcional de fechas y paginación.
func (uc *UseCase) ListMovements(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	p, err := uc.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return uc.movements.ListByProduct(productID, from, to, limit, offset)
}

// ListQuotationMovements devuelve los movimientos originados por una cotización.
func (uc *UseCase) ListQuotationMovements(ctx context.Context, quotationID string) ([]*entity.Movement, error) {
	return uc.movements.ListByQuotation(quotationID)
}

// GetAvailableStock devuelve stock, reservado y disponible de un producto.
func (uc *UseCase) GetAvailableStock(ctx context.Context, productID string) (*AvailableStock, error) {
	p, err := uc.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return &AvailableStock{
		ProductID: p.ID,
		Stock:     p.Stock,
		Reserved:  p.Reserved,
		Available: p.Available(),
		BelowMin:  p.BelowMin(),
	}, nil
}
