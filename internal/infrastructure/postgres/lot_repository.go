package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, product_id, code, expiry, remaining, location, created_at, updated_at`

// Create persiste un lote. (product_id, code) tiene constraint único.
func (r *LotRepo) Create(l *entity.Lot) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		l.ID, l.ProductID, l.Code, l.Expiry, l.Remaining, l.Location, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create lot %s: %w", l.Code, domain.ErrConflict)
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`
	return scanLot(r.q.QueryRow(context.Background(), query, id))
}

// GetByCode obtiene un lote por producto y código.
func (r *LotRepo) GetByCode(productID, code string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE product_id = $1 AND code = $2`
	return scanLot(r.q.QueryRow(context.Background(), query, productID, code))
}

// GetByCodeForUpdate obtiene el lote y bloquea la fila para el descuento de entrega.
func (r *LotRepo) GetByCodeForUpdate(productID, code string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE product_id = $1 AND code = $2 FOR UPDATE`
	return scanLot(r.q.QueryRow(context.Background(), query, productID, code))
}

// ListUsable lista los lotes del producto con restante positivo, por vencimiento.
func (r *LotRepo) ListUsable(productID string) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots
		WHERE product_id = $1 AND remaining > 0 ORDER BY expiry, code`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list usable lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		var l entity.Lot
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Code, &l.Expiry, &l.Remaining,
			&l.Location, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// UpdateRemaining escribe el nuevo restante tras una entrega confirmada.
func (r *LotRepo) UpdateRemaining(id string, remaining decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE lots SET remaining = $2, updated_at = $3 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, id, remaining, updatedAt)
	if err != nil {
		return fmt.Errorf("update remaining: %w", err)
	}
	return nil
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(&l.ID, &l.ProductID, &l.Code, &l.Expiry, &l.Remaining,
		&l.Location, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan lot: %w", err)
	}
	return &l, nil
}
