package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del kardex.
const (
	MovementTypeStockIn       = "STOCK_IN"       // entrada de mercancía
	MovementTypeSale          = "SALE"           // venta
	MovementTypeManualRemoval = "MANUAL_REMOVAL" // baja manual (merma, daño, ajuste)
)

// ValidMovementType indica si el tipo pertenece al conjunto permitido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeStockIn, MovementTypeSale, MovementTypeManualRemoval:
		return true
	}
	return false
}

// IsDebit indica si el tipo resta stock.
func IsDebit(t string) bool {
	return t == MovementTypeSale || t == MovementTypeManualRemoval
}

// StockMovement es una entrada del kardex: inmutable una vez escrita, nunca se
// actualiza ni se borra. Es la única fuente de verdad del inventario.
// UnitPrice es el precio al momento del movimiento, independiente del precio
// de catálogo vigente (preserva el costo/precio histórico).
type StockMovement struct {
	ID        string
	ProductID string
	StoreID   string
	Type      string
	Quantity  int64 // siempre positivo; el signo lo da el tipo
	UnitPrice decimal.Decimal
	Notes     string
	CreatedAt time.Time
	CreatedBy string // UserID del actor
}

// SignedQuantity devuelve la cantidad con signo según el tipo (entradas
// positivas, salidas negativas), útil para proyecciones en memoria.
func (m *StockMovement) SignedQuantity() int64 {
	if IsDebit(m.Type) {
		return -m.Quantity
	}
	return m.Quantity
}
