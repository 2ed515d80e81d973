package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/application/stock"
	"github.com/agrovet/planvacunal-api/internal/domain"
	fefo "github.com/agrovet/planvacunal-api/internal/domain/allocation"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

// Modos de asignación de lotes.
const (
	ModeSingle = "single" // un solo lote que cubra todo
	ModeMulti  = "multi"  // suma de lotes en orden FEFO
	ModeAuto   = "auto"   // single con fallback a multi; no-op si la vigente sigue válida
	ModeManual = "manual" // selección explícita del operador
)

// Motivos registrados en el libro de movimientos.
const (
	reasonDelivery = "entrega de aplicación de calendario"
	reasonIntake   = "ingreso de lote"
)

// UseCase asigna lotes concretos a las aplicaciones del calendario y
// confirma entregas. La asignación es tentativa (sin descuento); el
// Remaining del lote se descuenta recién al confirmar la entrega, junto
// con el movimiento Outflow, en la misma transacción.
type UseCase struct {
	txRunner TxRunner
	calendar repository.CalendarRepository
	stock    *stock.UseCase
	log      *logger.Logger
}

// NewUseCase construye el asignador de lotes.
func NewUseCase(txRunner TxRunner, calendar repository.CalendarRepository, stockUC *stock.UseCase, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, calendar: calendar, stock: stockUC, log: log}
}

// AllocateInput entrada para asignar lote(s) a una aplicación.
type AllocateInput struct {
	CalendarAppID string
	Mode          string
	Manual        []entity.LotAssignment // solo para ModeManual
}

// AllocateResult resume la asignación resultante.
type AllocateResult struct {
	CalendarAppID string
	Assignments   []entity.LotAssignment
	ExpiryWarning bool
	Changed       bool // false cuando la asignación vigente seguía válida (auto)
}

// DeliveryResult resume una entrega confirmada.
type DeliveryResult struct {
	CalendarAppID string
	Delivered     decimal.Decimal
	Faltante      decimal.Decimal
	State         string
	Movements     []*entity.Movement
}

// Allocate asigna lote(s) al faltante de la aplicación según el modo.
// Tras una entrega parcial, la reasignación cubre solo required - delivered:
// los lotes ya consumidos por la porción entregada quedan intactos en el libro.
func (uc *UseCase) Allocate(ctx context.Context, in AllocateInput) (*AllocateResult, error) {
	result := &AllocateResult{CalendarAppID: in.CalendarAppID}

	err := uc.txRunner.RunAllocation(ctx, func(
		_ repository.ProductRepository,
		_ repository.MovementRepository,
		lots repository.LotRepository,
		calendar repository.CalendarRepository,
	) error {
		app, err := calendar.GetForUpdate(in.CalendarAppID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrApplicationNotFound
		}
		if app.State == entity.ApplicationStateSuspended {
			return domain.ErrApplicationSuspended
		}
		required := app.Faltante()
		if required.LessThanOrEqual(decimal.Zero) {
			return domain.ErrConflict
		}

		usable, err := lots.ListUsable(app.ProductID)
		if err != nil {
			return err
		}

		var assignments []entity.LotAssignment
		warning := false
		switch in.Mode {
		case ModeSingle:
			assignments, err = fefo.SingleLot(usable, required, app.ScheduledDate)
		case ModeMulti:
			assignments, err = fefo.MultiLot(usable, required, app.ScheduledDate)
		case ModeAuto:
			// No-op si la asignación vigente sigue siendo válida para la fecha
			if fefo.Valid(usable, app.Assignments, required, app.ScheduledDate) {
				result.Assignments = app.Assignments
				result.ExpiryWarning = app.ExpiryWarning
				return nil
			}
			assignments, err = fefo.SingleLot(usable, required, app.ScheduledDate)
			if errors.Is(err, domain.ErrNoSingleLotSufficient) {
				assignments, err = fefo.MultiLot(usable, required, app.ScheduledDate)
			}
		case ModeManual:
			// El chequeo cantidad-vs-restante sigue siendo duro; el vencimiento
			// anterior a la fecha pasa a advertencia explícita, nunca silenciosa.
			warning, err = fefo.Manual(usable, in.Manual, required, app.ScheduledDate)
			assignments = in.Manual
		default:
			return domain.ErrInvalidInput
		}
		if err != nil {
			return err
		}

		app.Assignments = assignments
		app.ExpiryWarning = warning
		app.UpdatedAt = time.Now()
		if err := calendar.Update(app); err != nil {
			return err
		}

		if warning {
			uc.log.Warn().
				Str("calendar_app_id", app.ID).
				Str("product_id", app.ProductID).
				Msg("asignación manual con lote vencido a la fecha programada")
		}

		result.Assignments = assignments
		result.ExpiryWarning = warning
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmDelivery confirma la entrega de una cantidad contra la asignación
// vigente: descuenta Remaining de cada lote consumido (fila bloqueada) y
// registra un Outflow por lote, todo en una transacción. Una entrega menor a
// lo requerido deja la aplicación en partial con su faltante pendiente.
func (uc *UseCase) ConfirmDelivery(ctx context.Context, calendarAppID string, quantity decimal.Decimal, actorID string) (*DeliveryResult, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	result := &DeliveryResult{CalendarAppID: calendarAppID}

	err := uc.txRunner.RunAllocation(ctx, func(
		products repository.ProductRepository,
		movements repository.MovementRepository,
		lots repository.LotRepository,
		calendar repository.CalendarRepository,
	) error {
		now := time.Now()
		app, err := calendar.GetForUpdate(calendarAppID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrApplicationNotFound
		}
		if app.State == entity.ApplicationStateSuspended {
			return domain.ErrApplicationSuspended
		}
		if quantity.GreaterThan(app.Faltante()) {
			return domain.ErrInvalidQuantity
		}
		if quantity.GreaterThan(app.AssignedTotal()) {
			return domain.ErrNoLotsAvailable
		}

		// Consume la asignación en orden, descontando cada lote con su fila bloqueada
		pending := quantity
		var remainingAssignments []entity.LotAssignment
		for _, asg := range app.Assignments {
			if pending.LessThanOrEqual(decimal.Zero) {
				remainingAssignments = append(remainingAssignments, asg)
				continue
			}
			take := asg.Quantity
			if take.GreaterThan(pending) {
				take = pending
			}

			lot, err := lots.GetByCodeForUpdate(app.ProductID, asg.LotCode)
			if err != nil {
				return err
			}
			if lot == nil {
				return domain.ErrLotNotFound
			}
			if lot.Remaining.LessThan(take) {
				return &domain.InsufficientLotCapacityError{
					ProductID: app.ProductID,
					Required:  take,
					Capacity:  lot.Remaining,
					Shortfall: take.Sub(lot.Remaining),
				}
			}
			if err := lots.UpdateRemaining(lot.ID, lot.Remaining.Sub(take), now); err != nil {
				return err
			}

			mov, err := uc.recordOutflowInTx(products, movements, app, lot.Code, take, actorID, now)
			if err != nil {
				return err
			}
			result.Movements = append(result.Movements, mov)

			if asg.Quantity.GreaterThan(take) {
				remainingAssignments = append(remainingAssignments, entity.LotAssignment{
					LotCode:  asg.LotCode,
					Quantity: asg.Quantity.Sub(take),
				})
			}
			pending = pending.Sub(take)
		}

		app.Delivered = app.Delivered.Add(quantity)
		app.Assignments = remainingAssignments
		if app.Faltante().IsZero() {
			app.State = entity.ApplicationStateDelivered
		} else {
			app.State = entity.ApplicationStatePartial
		}
		app.UpdatedAt = now
		if err := calendar.Update(app); err != nil {
			return err
		}

		result.Delivered = app.Delivered
		result.Faltante = app.Faltante()
		result.State = app.State
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordOutflowInTx registra la salida física de la entrega vía la cuenta de stock.
func (uc *UseCase) recordOutflowInTx(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	app *entity.CalendarApplication,
	lotCode string,
	quantity decimal.Decimal,
	actorID string,
	now time.Time,
) (*entity.Movement, error) {
	return uc.stock.RecordMovementInTx(products, movements, stock.MovementInput{
		ProductID:   app.ProductID,
		Type:        entity.MovementTypeOutflow,
		Quantity:    quantity,
		Reason:      reasonDelivery,
		QuotationID: app.QuotationID,
		LotCode:     lotCode,
		ActorID:     actorID,
	}, now)
}

// IntakeInput entrada para registrar el ingreso de un lote recibido.
type IntakeInput struct {
	ProductID string
	Code      string
	Expiry    time.Time
	Quantity  decimal.Decimal
	Location  string
	ActorID   string
}

// RegisterLotIntake crea el lote y registra el Inflow físico en la misma
// transacción: el lote recibido y el alta de stock se confirman juntos.
func (uc *UseCase) RegisterLotIntake(ctx context.Context, in IntakeInput) (*entity.Lot, error) {
	if in.ProductID == "" || in.Code == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	lot := &entity.Lot{
		ProductID: in.ProductID,
		Code:      in.Code,
		Expiry:    in.Expiry,
		Remaining: in.Quantity,
		Location:  in.Location,
	}
	err := uc.txRunner.RunAllocation(ctx, func(
		products repository.ProductRepository,
		movements repository.MovementRepository,
		lots repository.LotRepository,
		_ repository.CalendarRepository,
	) error {
		now := time.Now()
		lot.CreatedAt = now
		lot.UpdatedAt = now
		if err := lots.Create(lot); err != nil {
			return err
		}
		_, err := uc.stock.RecordMovementInTx(products, movements, stock.MovementInput{
			ProductID: in.ProductID,
			Type:      entity.MovementTypeInflow,
			Quantity:  in.Quantity,
			Reason:    reasonIntake,
			LotCode:   in.Code,
			ActorID:   in.ActorID,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// GetApplication devuelve una aplicación del calendario (lectura fuera de tx).
func (uc *UseCase) GetApplication(ctx context.Context, id string) (*entity.CalendarApplication, error) {
	app, err := uc.calendar.GetByID(id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}
	return app, nil
}
