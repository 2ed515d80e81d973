// Package allocation implementa la selección FEFO de lotes (First-Expire-First-Out):
// lógica pura sobre lotes en memoria, sin efectos de persistencia. El descuento
// de Remaining ocurre recién al confirmar la entrega, nunca aquí.
package allocation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrovet/planvacunal-api/internal/domain"
	"github.com/agrovet/planvacunal-api/internal/domain/entity"
)

// Candidates filtra los lotes elegibles para asignación automática a una fecha:
// cantidad restante positiva y vencimiento estrictamente posterior a la fecha.
// Ordena por vencimiento ascendente, desempatando por código de lote.
func Candidates(lots []*entity.Lot, date time.Time) []*entity.Lot {
	var out []*entity.Lot
	for _, l := range lots {
		if l.UsableAt(date) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Expiry.Equal(out[j].Expiry) {
			return out[i].Code < out[j].Code
		}
		return out[i].Expiry.Before(out[j].Expiry)
	})
	return out
}

// SingleLot busca el primer candidato FEFO cuya cantidad restante cubra por sí
// sola lo requerido y lo asigna completo (referencia tentativa, sin descuento).
func SingleLot(lots []*entity.Lot, required decimal.Decimal, date time.Time) ([]entity.LotAssignment, error) {
	if required.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	candidates := Candidates(lots, date)
	if len(candidates) == 0 {
		return nil, domain.ErrNoLotsAvailable
	}
	for _, l := range candidates {
		if l.Remaining.GreaterThanOrEqual(required) {
			return []entity.LotAssignment{{LotCode: l.Code, Quantity: required}}, nil
		}
	}
	return nil, domain.ErrNoSingleLotSufficient
}

// MultiLot consume candidatos en orden FEFO acumulando hasta cubrir lo
// requerido: cada lote consumido salvo el último aporta todo su restante,
// el último aporta el residuo. Si la capacidad total no alcanza, devuelve
// InsufficientLotCapacityError con el faltante.
func MultiLot(lots []*entity.Lot, required decimal.Decimal, date time.Time) ([]entity.LotAssignment, error) {
	if required.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	candidates := Candidates(lots, date)
	if len(candidates) == 0 {
		return nil, domain.ErrNoLotsAvailable
	}
	var assignments []entity.LotAssignment
	pending := required
	for _, l := range candidates {
		if pending.LessThanOrEqual(decimal.Zero) {
			break
		}
		take := l.Remaining
		if take.GreaterThan(pending) {
			take = pending
		}
		assignments = append(assignments, entity.LotAssignment{LotCode: l.Code, Quantity: take})
		pending = pending.Sub(take)
	}
	if pending.GreaterThan(decimal.Zero) {
		capacity := required.Sub(pending)
		return nil, &domain.InsufficientLotCapacityError{
			ProductID: candidates[0].ProductID,
			Required:  required,
			Capacity:  capacity,
			Shortfall: pending,
		}
	}
	return assignments, nil
}

// Valid verifica si una asignación previa sigue vigente para la fecha:
// cada lote asignado existe, no venció respecto de la fecha y su restante
// cubre la cantidad asignada; el total asignado cubre lo requerido.
func Valid(lots []*entity.Lot, assignments []entity.LotAssignment, required decimal.Decimal, date time.Time) bool {
	if len(assignments) == 0 {
		return false
	}
	byCode := make(map[string]*entity.Lot, len(lots))
	for _, l := range lots {
		byCode[l.Code] = l
	}
	total := decimal.Zero
	for _, asg := range assignments {
		l, ok := byCode[asg.LotCode]
		if !ok || !l.UsableAt(date) || l.Remaining.LessThan(asg.Quantity) {
			return false
		}
		total = total.Add(asg.Quantity)
	}
	return total.GreaterThanOrEqual(required)
}

// Manual valida una selección explícita del operador contra los lotes del
// producto. La cantidad contra el restante del lote sigue siendo un chequeo
// duro; el vencimiento anterior a la fecha se degrada a advertencia.
// La suma de la selección debe igualar lo requerido.
func Manual(lots []*entity.Lot, selection []entity.LotAssignment, required decimal.Decimal, date time.Time) (warning bool, err error) {
	if len(selection) == 0 {
		return false, domain.ErrInvalidInput
	}
	byCode := make(map[string]*entity.Lot, len(lots))
	for _, l := range lots {
		byCode[l.Code] = l
	}
	total := decimal.Zero
	for _, asg := range selection {
		if asg.Quantity.LessThanOrEqual(decimal.Zero) {
			return false, domain.ErrInvalidQuantity
		}
		l, ok := byCode[asg.LotCode]
		if !ok {
			return false, domain.ErrLotNotFound
		}
		if l.Remaining.LessThan(asg.Quantity) {
			return false, &domain.InsufficientLotCapacityError{
				ProductID: l.ProductID,
				Required:  asg.Quantity,
				Capacity:  l.Remaining,
				Shortfall: asg.Quantity.Sub(l.Remaining),
			}
		}
		if l.ExpiresBefore(date) {
			warning = true
		}
		total = total.Add(asg.Quantity)
	}
	if !total.Equal(required) {
		return false, domain.ErrInvalidQuantity
	}
	return warning, nil
}
