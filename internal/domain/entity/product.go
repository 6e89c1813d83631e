package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El stock no vive aquí: se
// proyecta desde el kardex (stock_movements) por tienda.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	Category    string
	UnitPrice   decimal.Decimal // precio de catálogo vigente
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
