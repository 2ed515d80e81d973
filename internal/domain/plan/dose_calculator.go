package plan

import (
	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// RequiredDoses calcula las dosis de una aplicación (servicio de dominio puro):
// Dosis = CantidadAnimales * DosisPorAnimal. Falla si algún argumento es <= 0.
func RequiredDoses(quantityUnits, dosesPerUnit decimal.Decimal) (decimal.Decimal, error) {
	if quantityUnits.LessThanOrEqual(decimal.Zero) || dosesPerUnit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	return quantityUnits.Mul(dosesPerUnit), nil
}

// TotalDoses calcula el requerimiento total de una línea del plan: las dosis
// de una aplicación semanal por la cantidad de semanas del rango. Dimensiona
// la Reservation de la línea completa.
func TotalDoses(line entity.PlanLine) (decimal.Decimal, error) {
	perWeek, err := RequiredDoses(line.QuantityUnits, line.DosesPerUnit)
	if err != nil {
		return decimal.Zero, err
	}
	weeks := line.Weeks()
	if weeks <= 0 {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	return perWeek.Mul(decimal.NewFromInt(int64(weeks))), nil
}
