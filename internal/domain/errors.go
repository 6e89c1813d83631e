package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicate     = errors.New("recurso duplicado")
	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrStoreInactive = errors.New("tienda inactiva")
)

// InsufficientStockError indica que un débito (venta o baja manual) excede el
// stock proyectado al momento de la evaluación. Lleva las cantidades para que
// el caller pueda mostrarlas.
type InsufficientStockError struct {
	CurrentStock int64
	Requested    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", e.CurrentStock, e.Requested)
}

// RateLimitExceededError indica que el controlador de admisión rechazó la
// petición. RetryAfterSeconds es el tiempo restante de la ventana actual.
type RateLimitExceededError struct {
	RetryAfterSeconds int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("límite de peticiones excedido, reintentar en %ds", e.RetryAfterSeconds)
}
