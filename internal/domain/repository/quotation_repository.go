package repository

import (
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// QuotationRepository define el puerto para el último estado observado de
// cada cotización y la serialización de sus transiciones.
type QuotationRepository interface {
	// Lock toma el candado de escritor único de la cotización. En PostgreSQL
	// es un advisory lock transaccional: se suelta solo al terminar la tx.
	Lock(quotationID string) error
	Get(quotationID string) (*entity.Quotation, error)
	Upsert(q *entity.Quotation) error
}
