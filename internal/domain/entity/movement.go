package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType es el conjunto cerrado de tipos de movimiento del libro de stock.
// Inflow/Outflow afectan el stock físico; Reserve/Release solo la reserva lógica.
type MovementType string

const (
	MovementTypeInflow  MovementType = "INFLOW"
	MovementTypeOutflow MovementType = "OUTFLOW"
	MovementTypeReserve MovementType = "RESERVE"
	MovementTypeRelease MovementType = "RELEASE"
)

// IsValid verifica que el tipo pertenezca al conjunto cerrado.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeInflow, MovementTypeOutflow, MovementTypeReserve, MovementTypeRelease:
		return true
	}
	return false
}

// AffectsStock indica si el tipo modifica el stock físico del producto.
func (t MovementType) AffectsStock() bool {
	return t == MovementTypeInflow || t == MovementTypeOutflow
}

func (t MovementType) String() string { return string(t) }

// AllMovementTypes devuelve los tipos válidos.
func AllMovementTypes() []MovementType {
	return []MovementType{MovementTypeInflow, MovementTypeOutflow, MovementTypeReserve, MovementTypeRelease}
}

// Movement es una fila inmutable del libro de movimientos: cada evento que
// afecta stock o reserva queda registrado con el stock antes y después.
// Se escribe una sola vez; nunca se actualiza ni se borra.
type Movement struct {
	ID          string
	ProductID   string
	Type        MovementType
	Quantity    decimal.Decimal
	StockBefore decimal.Decimal
	StockAfter  decimal.Decimal
	Reason      string
	QuotationID string // opcional: cotización que originó el movimiento
	LotCode     string // opcional: lote entregado o ingresado
	ActorID     string // opcional: usuario que disparó la operación
	CreatedAt   time.Time
}
