package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// MovementFilter filtros para consultar el kardex.
type MovementFilter struct {
	ProductID string
	StoreID   string
	Type      string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// LedgerRepository define el puerto del kardex: tabla append-only de
// movimientos de stock. Nunca hay update ni delete, solo insert y lectura.
type LedgerRepository interface {
	// Append inserta un movimiento inmutable.
	Append(ctx context.Context, movement *entity.StockMovement) error
	// List consulta movimientos ordenados por created_at descendente.
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// CurrentQuantity proyecta la cantidad actual de un producto en una tienda:
	// SUM(STOCK_IN) - SUM(SALE + MANUAL_REMOVAL).
	CurrentQuantity(ctx context.Context, storeID, productID string) (int64, error)
	// LockAggregate toma un advisory lock transaccional sobre el par
	// (tienda, producto). Solo tiene sentido dentro de una transacción:
	// serializa los débitos concurrentes sobre el mismo agregado.
	LockAggregate(ctx context.Context, storeID, productID string) error
}
