package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot es una partida física de vacuna con su propio vencimiento y cantidad.
// Independiente de Reservation: la reserva retiene stock agregado, el lote
// respalda cada aplicación concreta. Remaining solo se descuenta al confirmar
// la entrega (vía movimiento Outflow), nunca al asignar.
type Lot struct {
	ID        string
	ProductID string
	Code      string
	Expiry    time.Time
	Remaining decimal.Decimal
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UsableAt indica si el lote puede asignarse automáticamente para una fecha:
// cantidad restante positiva y vencimiento estrictamente posterior a la fecha.
func (l *Lot) UsableAt(date time.Time) bool {
	return l.Remaining.GreaterThan(decimal.Zero) && l.Expiry.After(date)
}

// ExpiresBefore indica si el lote vence en o antes de la fecha dada.
func (l *Lot) ExpiresBefore(date time.Time) bool {
	return !l.Expiry.After(date)
}
