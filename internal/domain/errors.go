package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrProductNotFound       = errors.New("producto no encontrado")
	ErrLotNotFound           = errors.New("lote no encontrado")
	ErrApplicationNotFound   = errors.New("aplicación de calendario no encontrada")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrInvalidQuantity       = errors.New("cantidad inválida")
	ErrInvalidMovementType   = errors.New("tipo de movimiento inválido")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrConcurrencyConflict   = errors.New("conflicto de concurrencia")
	ErrNoLotsAvailable       = errors.New("no hay lotes vigentes para la fecha")
	ErrNoSingleLotSufficient = errors.New("ningún lote cubre por sí solo la cantidad requerida")
	ErrApplicationSuspended  = errors.New("la aplicación está suspendida")
)

// InsufficientStockError indica que el disponible (stock - reservado) no cubre lo requerido.
// Es un resultado de negocio esperado: el caller puede reintentar con forceOverride.
type InsufficientStockError struct {
	ProductID string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: disponible %s, requerido %s",
		e.ProductID, e.Available.String(), e.Required.String())
}

// InsufficientLotCapacityError indica que la capacidad total de lotes vigentes no cubre lo requerido.
type InsufficientLotCapacityError struct {
	ProductID string
	Required  decimal.Decimal
	Capacity  decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientLotCapacityError) Error() string {
	return fmt.Sprintf("capacidad de lotes insuficiente para producto %s: faltan %s dosis",
		e.ProductID, e.Shortfall.String())
}

// InvalidTransitionError indica una transición de estado de cotización fuera del grafo permitido.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de cotización no permitida: %s -> %s", e.From, e.To)
}
