package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddStockRequest body para POST /api/stores/:storeId/stock/add.
// UnitPrice es opcional: si falta se usa el precio de catálogo vigente.
type AddStockRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// RecordSaleRequest body para POST /api/stores/:storeId/stock/sale.
type RecordSaleRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// RemoveStockRequest body para POST /api/stores/:storeId/stock/removal.
// Las bajas manuales no aceptan precio del caller: siempre se valoran al
// precio de catálogo.
type RemoveStockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// MovementResponse representa un movimiento del kardex en respuestas HTTP.
type MovementResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	StoreID   string          `json:"store_id"`
	Type      string          `json:"type"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	CreatedBy string          `json:"created_by,omitempty"`
}

// InventoryItemResponse proyección de un producto en el inventario actual.
// Value se redondea a 2 decimales solo aquí (presentación).
type InventoryItemResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
	Status    string          `json:"status"`
}

// CategorySummaryResponse resumen por categoría.
type CategorySummaryResponse struct {
	Category   string          `json:"category"`
	Products   int             `json:"products"`
	TotalUnits int64           `json:"total_units"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// InventorySummaryResponse totales de la tienda.
type InventorySummaryResponse struct {
	Products   int                       `json:"products"`
	TotalUnits int64                     `json:"total_units"`
	TotalValue decimal.Decimal           `json:"total_value"`
	Categories []CategorySummaryResponse `json:"categories"`
}

// CurrentInventoryResponse respuesta de GET /api/stores/:storeId/inventory.
type CurrentInventoryResponse struct {
	StoreID string                   `json:"store_id"`
	Items   []InventoryItemResponse  `json:"items"`
	Summary InventorySummaryResponse `json:"summary"`
}

// AlertsResponse respuesta de GET /api/stores/:storeId/inventory/alerts:
// productos particionados por estado, con conteos.
type AlertsResponse struct {
	StoreID         string                  `json:"store_id"`
	Threshold       int64                   `json:"threshold"`
	OutOfStockCount int                     `json:"out_of_stock_count"`
	LowStockCount   int                     `json:"low_stock_count"`
	OutOfStock      []InventoryItemResponse `json:"out_of_stock"`
	LowStock        []InventoryItemResponse `json:"low_stock"`
}
