package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa una vacuna u otro insumo del plan sanitario.
// Stock (físico) y Reserved (retención lógica) se mutan únicamente a través
// de los dos primitivos de la cuenta de stock: RecordMovement y AdjustReserved.
type Product struct {
	ID                   string
	Name                 string
	Stock                decimal.Decimal // cantidad física en bodega
	Reserved             decimal.Decimal // retenido por cotizaciones aceptadas
	RequiresStockControl bool
	MinStock             decimal.Decimal // umbral de alerta de stock mínimo
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Available devuelve el disponible para comprometer: stock físico menos reservado.
// Puede ser negativo tras una reserva forzada (backorder).
func (p *Product) Available() decimal.Decimal {
	return p.Stock.Sub(p.Reserved)
}

// BelowMin indica si el disponible cayó bajo el umbral de stock mínimo.
func (p *Product) BelowMin() bool {
	return p.Available().LessThan(p.MinStock)
}
