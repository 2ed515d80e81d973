package reservation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

// Motivo del movimiento correctivo de la reconciliación.
const reasonReconciliation = "reconciliation"

// RecomputeReservedStock suma las reservas activas del producto y, si el
// agregado difiere de Product.Reserved, lo sobrescribe y deja un movimiento
// correctivo en el libro. La deriva no es un error: es una acción correctiva
// auditada con antes/después.
func (uc *UseCase) RecomputeReservedStock(ctx context.Context, productID string) (*ReconcileResult, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	result := &ReconcileResult{ProductID: productID}

	err := uc.txRunner.RunReservation(ctx, func(
		_ repository.QuotationRepository,
		products repository.ProductRepository,
		movements repository.MovementRepository,
		reservations repository.ReservationRepository,
	) error {
		now := time.Now()
		p, err := products.GetForUpdate(productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProductNotFound
		}

		active, err := reservations.ListActiveByProduct(productID)
		if err != nil {
			return err
		}
		expected := decimal.Zero
		for _, res := range active {
			expected = expected.Add(res.Quantity)
		}

		result.Before = p.Reserved
		result.After = expected
		if p.Reserved.Equal(expected) {
			return nil
		}
		result.Corrected = true

		if err := products.UpdateReserved(productID, expected, now); err != nil {
			return err
		}

		// El movimiento correctivo deja la deriva auditada en el libro
		diff := expected.Sub(p.Reserved)
		movType := entity.MovementTypeReserve
		if diff.IsNegative() {
			movType = entity.MovementTypeRelease
			diff = diff.Neg()
		}
		if _, err := uc.stock.RecordMovementInTx(products, movements, stock.MovementInput{
			ProductID: productID,
			Type:      movType,
			Quantity:  diff,
			Reason:    reasonReconciliation,
		}, now); err != nil {
			return err
		}

		uc.log.Warn().
			Str("product_id", productID).
			Str("before", result.Before.String()).
			Str("after", result.After.String()).
			Msg("reservado corregido por reconciliación")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileAll recalcula el reservado de todos los productos con control de
// stock. Lo dispara el job periódico; es seguro correrlo en paralelo con la
// mutación normal porque nunca toca reservas individuales.
func (uc *UseCase) ReconcileAll(ctx context.Context) ([]*ReconcileResult, error) {
	var productIDs []string
	err := uc.txRunner.RunReservation(ctx, func(
		_ repository.QuotationRepository,
		products repository.ProductRepository,
		_ repository.MovementRepository,
		_ repository.ReservationRepository,
	) error {
		list, err := products.ListStockControlled()
		if err != nil {
			return err
		}
		for _, p := range list {
			productIDs = append(productIDs, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var results []*ReconcileResult
	for _, id := range productIDs {
		r, err := uc.RecomputeReservedStock(ctx, id)
		if err != nil {
			uc.log.Error().Err(err).Str("product_id", id).Msg("reconciliación de producto falló")
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
