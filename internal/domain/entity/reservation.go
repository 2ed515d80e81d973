package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva.
const (
	ReservationStateActive   = "active"
	ReservationStateReleased = "released"
)

// Reservation es la retención lógica de stock para un par (cotización, producto).
// Agrega el requerimiento total de dosis de la línea del plan, no por semana.
// Nunca se borra: al cancelar pasa a released y queda como auditoría.
type Reservation struct {
	ID          string
	ProductID   string
	QuotationID string
	Quantity    decimal.Decimal
	State       string
	CreatedAt   time.Time
	ReleasedAt  *time.Time
}

// IsActive indica si la reserva sigue reteniendo stock.
func (r *Reservation) IsActive() bool {
	return r.State == ReservationStateActive
}
