package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/plan"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

// Reintentos ante conflicto de concurrencia antes de rendirse.
const maxTxRetries = 3

// Motivos registrados en el libro de movimientos.
const (
	reasonAccept  = "reserva por aceptación de cotización"
	reasonRelease = "liberación por cancelación de cotización"
)

// UseCase es el administrador de reservas: reacciona a transiciones de estado
// de cotización creando o liberando reservas, con escritor único por
// cotización (advisory lock) y todo el cambio en una sola transacción.
type UseCase struct {
	txRunner TxRunner
	stock    *stock.UseCase
	log      *logger.Logger
}

// NewUseCase construye el administrador de reservas.
func NewUseCase(txRunner TxRunner, stockUC *stock.UseCase, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, stock: stockUC, log: log}
}

// TransitionInput es la transición de estado observada de una cotización.
type TransitionInput struct {
	QuotationID   string
	From          entity.QuotationState
	To            entity.QuotationState
	Lines         []entity.PlanLine
	ForceOverride bool
	ActorID       string
}

// TransitionResult resume el efecto de una transición.
type TransitionResult struct {
	QuotationID string
	State       entity.QuotationState
	Created     []*entity.Reservation
	Released    []*entity.Reservation
}

// ReconcileResult es el resultado de recalcular el reservado de un producto.
type ReconcileResult struct {
	ProductID string
	Before    decimal.Decimal
	After     decimal.Decimal
	Corrected bool
}

// HandleTransition procesa una transición de cotización. Al entrar en
// accepted primero libera reservas activas preexistentes (corrección
// idempotente) y luego reserva el total de cada línea; al entrar en
// rejected/deleted libera todo. Reintenta la transición completa ante
// conflicto de concurrencia, con tope acotado.
func (uc *UseCase) HandleTransition(ctx context.Context, in TransitionInput) (*TransitionResult, error) {
	if in.QuotationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.From.CanTransitionTo(in.To) {
		return nil, &domain.InvalidTransitionError{From: string(in.From), To: string(in.To)}
	}

	var result *TransitionResult
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		result, err = uc.runTransition(ctx, in)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			return result, err
		}
		uc.log.Warn().
			Str("quotation_id", in.QuotationID).
			Int("attempt", attempt).
			Msg("conflicto de concurrencia en transición; reintentando")
	}
	return nil, err
}

func (uc *UseCase) runTransition(ctx context.Context, in TransitionInput) (*TransitionResult, error) {
	result := &TransitionResult{QuotationID: in.QuotationID, State: in.To}
	now := time.Now()

	err := uc.txRunner.RunReservation(ctx, func(
		quotations repository.QuotationRepository,
		products repository.ProductRepository,
		movements repository.MovementRepository,
		reservations repository.ReservationRepository,
	) error {
		// Escritor único por cotización: crear y liberar nunca corren en paralelo
		if err := quotations.Lock(in.QuotationID); err != nil {
			return err
		}

		// Validar también contra el último estado persistido, si existe
		stored, err := quotations.Get(in.QuotationID)
		if err != nil {
			return err
		}
		if stored != nil && !stored.State.CanTransitionTo(in.To) {
			return &domain.InvalidTransitionError{From: string(stored.State), To: string(in.To)}
		}

		switch {
		case in.To == entity.QuotationStateAccepted:
			released, err := uc.releaseAllInTx(products, movements, reservations, in.QuotationID, in.ActorID, now)
			if err != nil {
				return err
			}
			result.Released = released
			created, err := uc.reserveLinesInTx(products, movements, reservations, in, now)
			if err != nil {
				return err
			}
			result.Created = created
		case in.To.IsCancellation():
			released, err := uc.releaseAllInTx(products, movements, reservations, in.QuotationID, in.ActorID, now)
			if err != nil {
				return err
			}
			result.Released = released
		}

		return quotations.Upsert(&entity.Quotation{ID: in.QuotationID, State: in.To, UpdatedAt: now})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reserveLinesInTx reserva el requerimiento total de cada línea con control de
// stock: disponible = stock - reservado, comparado y escrito con la fila del
// producto bloqueada dentro de la misma transacción.
func (uc *UseCase) reserveLinesInTx(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
	in TransitionInput,
	now time.Time,
) ([]*entity.Reservation, error) {
	var created []*entity.Reservation
	for _, line := range in.Lines {
		p, err := products.GetForUpdate(line.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrProductNotFound
		}
		if !p.RequiresStockControl {
			continue
		}

		required, err := plan.TotalDoses(line)
		if err != nil {
			return nil, err
		}

		available := p.Available()
		if available.LessThan(required) {
			if !in.ForceOverride {
				return nil, &domain.InsufficientStockError{
					ProductID: p.ID,
					Available: available,
					Required:  required,
				}
			}
			// Backorder: la reserva forzada puede dejar el disponible negativo.
			// Se registra para monitoreo, nunca se oculta.
			uc.log.Warn().
				Str("quotation_id", in.QuotationID).
				Str("product_id", p.ID).
				Str("available", available.String()).
				Str("required", required.String()).
				Msg("reserva forzada con stock insuficiente (backorder)")
		}

		res := &entity.Reservation{
			ProductID:   p.ID,
			QuotationID: in.QuotationID,
			Quantity:    required,
			State:       entity.ReservationStateActive,
			CreatedAt:   now,
		}
		if err := reservations.Create(res); err != nil {
			return nil, err
		}
		if _, err := uc.stock.AdjustReservedInTx(products, p.ID, required, now); err != nil {
			return nil, err
		}
		if _, err := uc.stock.RecordMovementInTx(products, movements, stock.MovementInput{
			ProductID:   p.ID,
			Type:        entity.MovementTypeReserve,
			Quantity:    required,
			Reason:      reasonAccept,
			QuotationID: in.QuotationID,
			ActorID:     in.ActorID,
		}, now); err != nil {
			return nil, err
		}

		if available.Sub(required).LessThan(p.MinStock) {
			uc.log.Warn().
				Str("product_id", p.ID).
				Str("min_stock", p.MinStock.String()).
				Msg("el disponible quedó bajo el stock mínimo tras la reserva")
		}
		created = append(created, res)
	}
	return created, nil
}

// releaseAllInTx libera todas las reservas activas de la cotización.
// Las ya liberadas no aparecen en el listado y se omiten sin error.
func (uc *UseCase) releaseAllInTx(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	reservations repository.ReservationRepository,
	quotationID, actorID string,
	now time.Time,
) ([]*entity.Reservation, error) {
	active, err := reservations.ListActiveByQuotation(quotationID)
	if err != nil {
		return nil, err
	}
	var released []*entity.Reservation
	for _, res := range active {
		if err := reservations.MarkReleased(res.ID, now); err != nil {
			return nil, err
		}
		if _, err := uc.stock.AdjustReservedInTx(products, res.ProductID, res.Quantity.Neg(), now); err != nil {
			return nil, err
		}
		if _, err := uc.stock.RecordMovementInTx(products, movements, stock.MovementInput{
			ProductID:   res.ProductID,
			Type:        entity.MovementTypeRelease,
			Quantity:    res.Quantity,
			Reason:      reasonRelease,
			QuotationID: quotationID,
			ActorID:     actorID,
		}, now); err != nil {
			return nil, err
		}
		releasedAt := now
		res.State = entity.ReservationStateReleased
		res.ReleasedAt = &releasedAt
		released = append(released, res)
	}
	return released, nil
}

// ReleaseForQuotation libera todas las reservas activas de una cotización.
// Idempotente: una segunda llamada libera cero reservas y no cambia estado.
func (uc *UseCase) ReleaseForQuotation(ctx context.Context, quotationID, actorID string) ([]*entity.Reservation, error) {
	if quotationID == "" {
		return nil, domain.ErrInvalidInput
	}
	var released []*entity.Reservation
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = uc.txRunner.RunReservation(ctx, func(
			quotations repository.QuotationRepository,
			products repository.ProductRepository,
			movements repository.MovementRepository,
			reservations repository.ReservationRepository,
		) error {
			if err := quotations.Lock(quotationID); err != nil {
				return err
			}
			var inner error
			released, inner = uc.releaseAllInTx(products, movements, reservations, quotationID, actorID, time.Now())
			return inner
		})
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return released, nil
}
