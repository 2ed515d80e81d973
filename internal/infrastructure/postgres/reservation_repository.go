package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL.
// Las filas nunca se borran: la liberación solo cambia estado y fecha.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, product_id, quotation_id, quantity, state, created_at, released_at`

// Create persiste una reserva activa.
func (r *ReservationRepo) Create(res *entity.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		res.ID, res.ProductID, res.QuotationID, res.Quantity, res.State, res.CreatedAt, res.ReleasedAt)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// ListActiveByQuotation lista las reservas activas de una cotización.
func (r *ReservationRepo) ListActiveByQuotation(quotationID string) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE quotation_id = $1 AND state = $2 ORDER BY created_at`
	return r.list(query, quotationID, entity.ReservationStateActive)
}

// ListActiveByProduct lista las reservas activas de un producto (reconciliación).
func (r *ReservationRepo) ListActiveByProduct(productID string) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE product_id = $1 AND state = $2 ORDER BY created_at`
	return r.list(query, productID, entity.ReservationStateActive)
}

// ListByQuotation lista todas las reservas de una cotización (auditoría).
func (r *ReservationRepo) ListByQuotation(quotationID string) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE quotation_id = $1 ORDER BY created_at`
	return r.list(query, quotationID)
}

// MarkReleased transiciona la reserva a released conservando la fila.
func (r *ReservationRepo) MarkReleased(id string, releasedAt time.Time) error {
	query := `UPDATE reservations SET state = $2, released_at = $3 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, entity.ReservationStateReleased, releasedAt)
	if err != nil {
		return fmt.Errorf("mark released: %w", err)
	}
	return nil
}

func (r *ReservationRepo) list(query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]*entity.Reservation, error) {
	var list []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(&res.ID, &res.ProductID, &res.QuotationID, &res.Quantity,
			&res.State, &res.CreatedAt, &res.ReleasedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}
