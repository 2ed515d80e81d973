package schedule

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	appalloc "github.com/agrovet/planvacunal-api/internal/application/allocation"
	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/plan"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
	"github.com/agrovet/planvacunal-api/pkg/logger"
)

// UseCase genera el calendario semanal del plan y maneja desdoblamientos,
// suspensiones y reprogramaciones. La reserva agregada de la línea no se ve
// afectada por ninguna de estas operaciones.
type UseCase struct {
	txRunner TxRunner
	products repository.ProductRepository
	alloc    *appalloc.UseCase
	log      *logger.Logger
}

// NewUseCase construye el programador de calendario.
func NewUseCase(txRunner TxRunner, products repository.ProductRepository, alloc *appalloc.UseCase, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, products: products, alloc: alloc, log: log}
}

// GenerateInput entrada para generar el calendario de una cotización aceptada.
type GenerateInput struct {
	QuotationID string
	StartDate   time.Time
	Lines       []entity.PlanLine
}

// GenerateCalendar crea una aplicación por (producto, semana) del rango de
// cada línea: fecha = inicio + (semana-1)*7 días, dosis de esa semana según
// el calculador.
func (uc *UseCase) GenerateCalendar(ctx context.Context, in GenerateInput) ([]*entity.CalendarApplication, error) {
	if in.QuotationID == "" || in.StartDate.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	var apps []*entity.CalendarApplication
	for _, line := range in.Lines {
		if line.WeekFrom <= 0 || line.WeekTo < line.WeekFrom {
			return nil, domain.ErrInvalidInput
		}
		required, err := plan.RequiredDoses(line.QuantityUnits, line.DosesPerUnit)
		if err != nil {
			return nil, err
		}
		p, err := uc.products.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrProductNotFound
		}
		for week := line.WeekFrom; week <= line.WeekTo; week++ {
			apps = append(apps, &entity.CalendarApplication{
				QuotationID:   in.QuotationID,
				ProductID:     line.ProductID,
				Week:          week,
				ScheduledDate: in.StartDate.AddDate(0, 0, (week-1)*7),
				Required:      required,
				Delivered:     decimal.Zero,
				State:         entity.ApplicationStatePending,
			})
		}
	}

	err := uc.txRunner.RunCalendar(ctx, func(calendar repository.CalendarRepository) error {
		now := time.Now()
		for _, app := range apps {
			app.CreatedAt = now
			app.UpdatedAt = now
			if err := calendar.Create(app); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// SplitPart es una porción de un desdoblamiento: fecha propia y cantidad.
type SplitPart struct {
	Date     time.Time
	Quantity decimal.Decimal
}

// Split desdobla una aplicación en N sub-aplicaciones enlazadas por padre y
// secuencia. Las cantidades deben sumar exactamente lo requerido por el padre,
// que queda suspendido: sus hijos toman su lugar en el plan.
func (uc *UseCase) Split(ctx context.Context, calendarAppID string, parts []SplitPart) ([]*entity.CalendarApplication, error) {
	if len(parts) < 2 {
		return nil, domain.ErrInvalidInput
	}
	var children []*entity.CalendarApplication

	err := uc.txRunner.RunCalendar(ctx, func(calendar repository.CalendarRepository) error {
		now := time.Now()
		parent, err := calendar.GetForUpdate(calendarAppID)
		if err != nil {
			return err
		}
		if parent == nil {
			return domain.ErrApplicationNotFound
		}
		if parent.State != entity.ApplicationStatePending || parent.ParentID != "" {
			return domain.ErrConflict
		}

		total := decimal.Zero
		for _, part := range parts {
			if part.Quantity.LessThanOrEqual(decimal.Zero) || part.Date.IsZero() {
				return domain.ErrInvalidQuantity
			}
			total = total.Add(part.Quantity)
		}
		if !total.Equal(parent.Required) {
			return domain.ErrInvalidQuantity
		}

		for i, part := range parts {
			child := &entity.CalendarApplication{
				QuotationID:   parent.QuotationID,
				ProductID:     parent.ProductID,
				Week:          parent.Week,
				ScheduledDate: part.Date,
				Required:      part.Quantity,
				Delivered:     decimal.Zero,
				State:         entity.ApplicationStatePending,
				ParentID:      parent.ID,
				Seq:           i + 1,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := calendar.Create(child); err != nil {
				return err
			}
			children = append(children, child)
		}

		parent.State = entity.ApplicationStateSuspended
		parent.Assignments = nil
		parent.UpdatedAt = now
		return calendar.Update(parent)
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// RescheduleResult resume una reprogramación y la reasignación disparada.
type RescheduleResult struct {
	Application *entity.CalendarApplication
	Reassigned  bool
	AllocError  error // la asignación vigente quedó inválida y no pudo reemplazarse
}

// Reschedule cambia la fecha programada y revalida la asignación de lotes:
// si la vigente quedó inválida para la nueva fecha se reasigna en modo auto.
// Un fallo de reasignación no revierte la nueva fecha; se reporta aparte.
func (uc *UseCase) Reschedule(ctx context.Context, calendarAppID string, newDate time.Time) (*RescheduleResult, error) {
	if newDate.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	var app *entity.CalendarApplication
	hadAssignments := false
	err := uc.txRunner.RunCalendar(ctx, func(calendar repository.CalendarRepository) error {
		var err error
		app, err = calendar.GetForUpdate(calendarAppID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrApplicationNotFound
		}
		if app.State == entity.ApplicationStateDelivered {
			return domain.ErrConflict
		}
		hadAssignments = len(app.Assignments) > 0
		app.ScheduledDate = newDate
		app.UpdatedAt = time.Now()
		return calendar.Update(app)
	})
	if err != nil {
		return nil, err
	}

	result := &RescheduleResult{Application: app}
	if hadAssignments && app.State != entity.ApplicationStateSuspended {
		allocResult, allocErr := uc.alloc.Allocate(ctx, appalloc.AllocateInput{
			CalendarAppID: calendarAppID,
			Mode:          appalloc.ModeAuto,
		})
		if allocErr != nil {
			uc.log.Warn().Err(allocErr).
				Str("calendar_app_id", calendarAppID).
				Msg("reasignación tras reprogramación falló")
			result.AllocError = allocErr
		} else {
			result.Reassigned = allocResult.Changed
		}
	}
	return result, nil
}

// Suspend marca la aplicación como suspendida; la asignación se excluye.
func (uc *UseCase) Suspend(ctx context.Context, calendarAppID string) error {
	return uc.setState(ctx, calendarAppID, entity.ApplicationStateSuspended)
}

// Resume reanuda una aplicación suspendida volviendo a pending o partial
// según lo ya entregado.
func (uc *UseCase) Resume(ctx context.Context, calendarAppID string) error {
	return uc.txRunner.RunCalendar(ctx, func(calendar repository.CalendarRepository) error {
		app, err := calendar.GetForUpdate(calendarAppID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrApplicationNotFound
		}
		if app.State != entity.ApplicationStateSuspended {
			return domain.ErrConflict
		}
		if app.Delivered.GreaterThan(decimal.Zero) {
			app.State = entity.ApplicationStatePartial
		} else {
			app.State = entity.ApplicationStatePending
		}
		app.UpdatedAt = time.Now()
		return calendar.Update(app)
	})
}

func (uc *UseCase) setState(ctx context.Context, calendarAppID, state string) error {
	return uc.txRunner.RunCalendar(ctx, func(calendar repository.CalendarRepository) error {
		app, err := calendar.GetForUpdate(calendarAppID)
		if err != nil {
			return err
		}
		if app == nil {
			return domain.ErrApplicationNotFound
		}
		if app.State == entity.ApplicationStateDelivered {
			return domain.ErrConflict
		}
		app.State = state
		app.UpdatedAt = time.Now()
		return calendar.Update(app)
	})
}
