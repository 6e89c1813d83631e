package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem es la proyección de inventario actual de un producto en una
// tienda: cantidad derivada del kardex y valor = cantidad × precio de catálogo.
type InventoryItem struct {
	ProductID string
	SKU       string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int64
}

// Value calcula el valor de inventario del ítem en aritmética decimal, sin
// redondeo intermedio. El redondeo a 2 decimales es asunto de presentación.
func (i InventoryItem) Value() decimal.Decimal {
	return decimal.NewFromInt(i.Quantity).Mul(i.UnitPrice)
}

// InventoryFilter filtros del listado de inventario actual.
type InventoryFilter struct {
	Category string
	MinStock *int64
	MaxStock *int64
}

// CategorySummary resumen por categoría dentro de una tienda.
type CategorySummary struct {
	Category   string
	Products   int
	TotalUnits int64
	TotalValue decimal.Decimal
}

// StoreSummary totales de inventario de una tienda.
type StoreSummary struct {
	Products   int
	TotalUnits int64
	TotalValue decimal.Decimal
	Categories []CategorySummary
	AsOf       time.Time
}

// InventoryReadRepository define el puerto de lectura del proyector de
// inventario. Nunca materializa: cada consulta recalcula desde el kardex
// (una sola fuente de verdad, semántica read-committed por consulta).
type InventoryReadRepository interface {
	// CurrentInventory proyecta cantidad y valor por producto para una tienda.
	// Ordena por cantidad ascendente, luego categoría y nombre, para que los
	// quiebres de stock queden primero (mismo orden que usa el clasificador
	// de alertas).
	CurrentInventory(ctx context.Context, storeID string, filter InventoryFilter) ([]InventoryItem, error)
	// StoreSummary totales y desglose por categoría de la tienda.
	StoreSummary(ctx context.Context, storeID string) (*StoreSummary, error)
}
