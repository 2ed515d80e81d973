package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanLineDTO línea del plan vacunal en requests.
type PlanLineDTO struct {
	ProductID     string          `json:"product_id"`
	QuantityUnits decimal.Decimal `json:"quantity_units"`
	DosesPerUnit  decimal.Decimal `json:"doses_per_unit"`
	WeekFrom      int             `json:"week_from"`
	WeekTo        int             `json:"week_to"`
}

// TransitionRequest transición de estado de una cotización.
type TransitionRequest struct {
	From          string        `json:"from"`
	To            string        `json:"to"`
	Lines         []PlanLineDTO `json:"lines"`
	ForceOverride bool          `json:"force_override"`
	ActorID       string        `json:"actor_id"`
}

// MovementRequest registro directo de un movimiento de stock.
type MovementRequest struct {
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason"`
	QuotationID string          `json:"quotation_id"`
	LotCode     string          `json:"lot_code"`
	ActorID     string          `json:"actor_id"`
}

// LotSelectionDTO porción de una selección manual de lotes.
type LotSelectionDTO struct {
	LotCode  string          `json:"lot_code"`
	Quantity decimal.Decimal `json:"quantity"`
}

// AllocateRequest asignación de lote(s) a una aplicación de calendario.
type AllocateRequest struct {
	Mode      string            `json:"mode"` // single | multi | auto | manual
	Selection []LotSelectionDTO `json:"selection,omitempty"`
}

// DeliveryRequest confirmación de entrega de una aplicación.
type DeliveryRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	ActorID  string          `json:"actor_id"`
}

// LotIntakeRequest ingreso de un lote recibido.
type LotIntakeRequest struct {
	ProductID string          `json:"product_id"`
	Code      string          `json:"code"`
	Expiry    time.Time       `json:"expiry"`
	Quantity  decimal.Decimal `json:"quantity"`
	Location  string          `json:"location"`
	ActorID   string          `json:"actor_id"`
}

// GenerateCalendarRequest generación del calendario de una cotización.
type GenerateCalendarRequest struct {
	StartDate time.Time     `json:"start_date"`
	Lines     []PlanLineDTO `json:"lines"`
}

// SplitPartDTO porción de un desdoblamiento.
type SplitPartDTO struct {
	Date     time.Time       `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
}

// SplitRequest desdoblamiento de una aplicación en sub-aplicaciones.
type SplitRequest struct {
	Parts []SplitPartDTO `json:"parts"`
}

// RescheduleRequest reprogramación de la fecha de una aplicación.
type RescheduleRequest struct {
	Date time.Time `json:"date"`
}

// StockResponse foto de stock de un producto.
type StockResponse struct {
	ProductID string          `json:"product_id"`
	Stock     decimal.Decimal `json:"stock"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
	BelowMin  bool            `json:"below_min"`
}

// ReconcileResponse resultado de recalcular el reservado de un producto.
type ReconcileResponse struct {
	ProductID string          `json:"product_id"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
	Corrected bool            `json:"corrected"`
}
