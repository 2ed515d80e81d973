package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agrovet/planvacunal-api/internal/domain/entity"
	"github.com/agrovet/planvacunal-api/internal/domain/repository"
)

var _ repository.QuotationRepository = (*QuotationRepo)(nil)

// QuotationRepo guarda el último estado observado de cada cotización y
// serializa sus transiciones con un advisory lock transaccional.
type QuotationRepo struct {
	q Querier
}

// NewQuotationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuotationRepository(q Querier) *QuotationRepo {
	return &QuotationRepo{q: q}
}

// Lock toma pg_advisory_xact_lock sobre el hash del ID: escritor único por
// cotización hasta el fin de la transacción. Solo tiene sentido dentro de una tx.
func (r *QuotationRepo) Lock(quotationID string) error {
	_, err := r.q.Exec(context.Background(),
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, quotationID)
	if err != nil {
		return fmt.Errorf("lock quotation: %w", err)
	}
	return nil
}

// Get obtiene el último estado observado de la cotización.
func (r *QuotationRepo) Get(quotationID string) (*entity.Quotation, error) {
	query := `SELECT id, state, updated_at FROM quotations WHERE id = $1`
	var q entity.Quotation
	var state string
	err := r.q.QueryRow(context.Background(), query, quotationID).Scan(&q.ID, &state, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	q.State = entity.QuotationState(state)
	return &q, nil
}

// Upsert registra el estado observado de la cotización.
func (r *QuotationRepo) Upsert(q *entity.Quotation) error {
	query := `
		INSERT INTO quotations (id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query, q.ID, string(q.State), q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert quotation: %w", err)
	}
	return nil
}
