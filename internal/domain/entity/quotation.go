package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationState es el estado observado de una cotización de plan vacunal.
// El ciclo de vida vive en el sistema comercial; el motor solo reacciona a
// las transiciones y valida que pertenezcan al grafo permitido.
type QuotationState string

const (
	QuotationStateInProgress QuotationState = "in_progress"
	QuotationStateSent       QuotationState = "sent"
	QuotationStateAccepted   QuotationState = "accepted"
	QuotationStateRejected   QuotationState = "rejected"
	QuotationStateDeleted    QuotationState = "deleted"
)

// IsValid verifica que el estado pertenezca al conjunto conocido.
func (s QuotationState) IsValid() bool {
	switch s {
	case QuotationStateInProgress, QuotationStateSent, QuotationStateAccepted,
		QuotationStateRejected, QuotationStateDeleted:
		return true
	}
	return false
}

// IsCancellation indica si el estado libera reservas (rechazo o borrado).
func (s QuotationState) IsCancellation() bool {
	return s == QuotationStateRejected || s == QuotationStateDeleted
}

// CanTransitionTo valida el grafo de transiciones:
// in_progress -> sent -> accepted; rechazo/borrado alcanzable desde cualquier
// estado previo; accepted -> accepted y la repetición del mismo estado de
// cancelación se admiten como reentregas idempotentes.
func (s QuotationState) CanTransitionTo(to QuotationState) bool {
	if !s.IsValid() || !to.IsValid() {
		return false
	}
	if to.IsCancellation() {
		return !s.IsCancellation() || s == to
	}
	switch to {
	case QuotationStateSent:
		return s == QuotationStateInProgress
	case QuotationStateAccepted:
		return s == QuotationStateSent || s == QuotationStateAccepted
	}
	return false
}

// Quotation es la vista mínima que el motor persiste de una cotización:
// el último estado observado, para serializar transiciones y detectar
// eventos fuera de orden.
type Quotation struct {
	ID        string
	State     QuotationState
	UpdatedAt time.Time
}

// PlanLine es una línea del plan vacunal: un producto aplicado a una cantidad
// de animales, con dosis por animal por aplicación, en un rango de semanas.
type PlanLine struct {
	ProductID     string
	QuantityUnits decimal.Decimal // cantidad de animales
	DosesPerUnit  decimal.Decimal // dosis por animal por aplicación semanal
	WeekFrom      int
	WeekTo        int
}

// Weeks devuelve la cantidad de semanas que abarca la línea.
func (l PlanLine) Weeks() int {
	return l.WeekTo - l.WeekFrom + 1
}
