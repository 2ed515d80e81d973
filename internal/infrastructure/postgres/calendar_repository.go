package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.CalendarRepository = (*CalendarRepo)(nil)

// CalendarRepo implementación de CalendarRepository sobre PostgreSQL.
// La asignación tentativa de lotes se guarda como JSONB.
type CalendarRepo struct {
	q Querier
}

// NewCalendarRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCalendarRepository(q Querier) *CalendarRepo {
	return &CalendarRepo{q: q}
}

const calendarColumns = `id, quotation_id, product_id, week, scheduled_date, required, delivered,
	assignments, expiry_warning, state, parent_id, seq, created_at, updated_at`

// Create persiste una aplicación de calendario.
func (r *CalendarRepo) Create(a *entity.CalendarApplication) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	assignments, err := json.Marshal(a.Assignments)
	if err != nil {
		return fmt.Errorf("marshal assignments: %w", err)
	}
	query := `
		INSERT INTO calendar_applications (` + calendarColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.q.Exec(context.Background(), query,
		a.ID, a.QuotationID, a.ProductID, a.Week, a.ScheduledDate, a.Required, a.Delivered,
		assignments, a.ExpiryWarning, a.State, nullable(a.ParentID), a.Seq, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create calendar application: %w", err)
	}
	return nil
}

// GetByID obtiene una aplicación por ID.
func (r *CalendarRepo) GetByID(id string) (*entity.CalendarApplication, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_applications WHERE id = $1`
	return scanApplication(r.q.QueryRow(context.Background(), query, id))
}

// GetForUpdate obtiene la aplicación y bloquea la fila (SELECT FOR UPDATE).
func (r *CalendarRepo) GetForUpdate(id string) (*entity.CalendarApplication, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_applications WHERE id = $1 FOR UPDATE`
	return scanApplication(r.q.QueryRow(context.Background(), query, id))
}

// Update escribe fecha, estado, entregado y asignación de la aplicación.
func (r *CalendarRepo) Update(a *entity.CalendarApplication) error {
	assignments, err := json.Marshal(a.Assignments)
	if err != nil {
		return fmt.Errorf("marshal assignments: %w", err)
	}
	query := `
		UPDATE calendar_applications
		SET scheduled_date = $2, required = $3, delivered = $4, assignments = $5,
			expiry_warning = $6, state = $7, updated_at = $8
		WHERE id = $1`
	_, err = r.q.Exec(context.Background(), query,
		a.ID, a.ScheduledDate, a.Required, a.Delivered, assignments,
		a.ExpiryWarning, a.State, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update calendar application: %w", err)
	}
	return nil
}

// ListByQuotation lista las aplicaciones de una cotización por semana y secuencia.
func (r *CalendarRepo) ListByQuotation(quotationID string) ([]*entity.CalendarApplication, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_applications
		WHERE quotation_id = $1 ORDER BY week, seq, product_id`
	return r.list(query, quotationID)
}

// ListChildren lista los hijos de un desdoblamiento por secuencia.
func (r *CalendarRepo) ListChildren(parentID string) ([]*entity.CalendarApplication, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_applications
		WHERE parent_id = $1 ORDER BY seq`
	return r.list(query, parentID)
}

func (r *CalendarRepo) list(query string, args ...any) ([]*entity.CalendarApplication, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar applications: %w", err)
	}
	defer rows.Close()
	var list []*entity.CalendarApplication
	for rows.Next() {
		a, err := scanApplicationRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanApplication(row pgx.Row) (*entity.CalendarApplication, error) {
	a, err := scanApplicationRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func scanApplicationRow(row pgx.Row) (*entity.CalendarApplication, error) {
	var a entity.CalendarApplication
	var assignments []byte
	var parentID *string
	err := row.Scan(&a.ID, &a.QuotationID, &a.ProductID, &a.Week, &a.ScheduledDate,
		&a.Required, &a.Delivered, &assignments, &a.ExpiryWarning, &a.State,
		&parentID, &a.Seq, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan calendar application: %w", err)
	}
	if len(assignments) > 0 {
		if err := json.Unmarshal(assignments, &a.Assignments); err != nil {
			return nil, fmt.Errorf("unmarshal assignments: %w", err)
		}
	}
	a.ParentID = deref(parentID)
	return &a, nil
}
