package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una aplicación de calendario.
// Un padre desdoblado queda suspendido: sus hijos toman su lugar en el plan.
const (
	ApplicationStatePending   = "pending"
	ApplicationStatePartial   = "partial"
	ApplicationStateDelivered = "delivered"
	ApplicationStateSuspended = "suspended"
)

// LotAssignment es una porción de la asignación tentativa: lote y cantidad.
type LotAssignment struct {
	LotCode  string          `json:"lot_code"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CalendarApplication es una aplicación semanal programada del plan vacunal:
// qué producto, cuántas dosis, en qué fecha, y con qué lote(s) tentativos.
// ParentID y Seq enlazan los hijos de un desdoblamiento con su aplicación
// original; un hijo nunca referencia más allá de su padre inmediato.
type CalendarApplication struct {
	ID            string
	QuotationID   string
	ProductID     string
	Week          int
	ScheduledDate time.Time
	Required      decimal.Decimal
	Delivered     decimal.Decimal
	Assignments   []LotAssignment
	ExpiryWarning bool // asignación manual con lote vencido a la fecha
	State         string
	ParentID      string // vacío salvo hijos de desdoblamiento
	Seq           int    // índice de secuencia dentro del desdoblamiento
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Faltante devuelve la cantidad requerida aún no entregada.
func (a *CalendarApplication) Faltante() decimal.Decimal {
	f := a.Required.Sub(a.Delivered)
	if f.IsNegative() {
		return decimal.Zero
	}
	return f
}

// AssignedTotal suma las cantidades de la asignación tentativa vigente.
func (a *CalendarApplication) AssignedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, asg := range a.Assignments {
		total = total.Add(asg.Quantity)
	}
	return total
}
