package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.InventoryReadRepository = (*InventoryReadRepo)(nil)

// InventoryReadRepo proyector de inventario sobre PostgreSQL. Cada consulta
// recalcula cantidades desde stock_movements: el inventario actual nunca se
// materializa (una sola fuente de verdad).
type InventoryReadRepo struct {
	q Querier
}

// NewInventoryReadRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryReadRepository(q Querier) *InventoryReadRepo {
	return &InventoryReadRepo{q: q}
}

// CurrentInventory proyecta cantidad por producto para la tienda. Ordena por
// cantidad ascendente, luego categoría y nombre (quiebres primero, el mismo
// orden que consume el clasificador de alertas).
func (r *InventoryReadRepo) CurrentInventory(ctx context.Context, storeID string, f repository.InventoryFilter) ([]repository.InventoryItem, error) {
	query := `
		SELECT p.id, p.sku, p.name, p.category, p.unit_price,
		       COALESCE(SUM(CASE WHEN m.type = 'STOCK_IN' THEN m.quantity ELSE -m.quantity END), 0) AS quantity
		FROM products p
		LEFT JOIN stock_movements m ON m.product_id = p.id AND m.store_id = $1
		WHERE 1=1`
	args := []any{storeID}
	pos := 2
	if f.Category != "" {
		query += fmt.Sprintf(" AND p.category = $%d", pos)
		args = append(args, f.Category)
		pos++
	}
	query += " GROUP BY p.id, p.sku, p.name, p.category, p.unit_price"
	having := ""
	if f.MinStock != nil {
		having += fmt.Sprintf(" AND COALESCE(SUM(CASE WHEN m.type = 'STOCK_IN' THEN m.quantity ELSE -m.quantity END), 0) >= $%d", pos)
		args = append(args, *f.MinStock)
		pos++
	}
	if f.MaxStock != nil {
		having += fmt.Sprintf(" AND COALESCE(SUM(CASE WHEN m.type = 'STOCK_IN' THEN m.quantity ELSE -m.quantity END), 0) <= $%d", pos)
		args = append(args, *f.MaxStock)
		pos++
	}
	if having != "" {
		query += " HAVING 1=1" + having
	}
	query += " ORDER BY quantity ASC, p.category ASC, p.name ASC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("current inventory: %w", err)
	}
	defer rows.Close()

	var items []repository.InventoryItem
	for rows.Next() {
		var it repository.InventoryItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.Category, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// StoreSummary totales de la tienda y desglose por categoría, calculados en
// decimal sin redondeo intermedio (SUM sobre NUMERIC).
func (r *InventoryReadRepo) StoreSummary(ctx context.Context, storeID string) (*repository.StoreSummary, error) {
	query := `
		WITH projected AS (
			SELECT p.id, p.category, p.unit_price,
			       COALESCE(SUM(CASE WHEN m.type = 'STOCK_IN' THEN m.quantity ELSE -m.quantity END), 0) AS quantity
			FROM products p
			LEFT JOIN stock_movements m ON m.product_id = p.id AND m.store_id = $1
			GROUP BY p.id, p.category, p.unit_price
		)
		SELECT category,
		       COUNT(*)                        AS products,
		       COALESCE(SUM(quantity), 0)      AS total_units,
		       COALESCE(SUM(quantity * unit_price), 0) AS total_value
		FROM projected
		GROUP BY category
		ORDER BY category ASC`

	rows, err := r.q.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("store summary: %w", err)
	}
	defer rows.Close()

	summary := &repository.StoreSummary{AsOf: time.Now()}
	for rows.Next() {
		var c repository.CategorySummary
		if err := rows.Scan(&c.Category, &c.Products, &c.TotalUnits, &c.TotalValue); err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		summary.Categories = append(summary.Categories, c)
		summary.Products += c.Products
		summary.TotalUnits += c.TotalUnits
		summary.TotalValue = summary.TotalValue.Add(c.TotalValue)
	}
	return summary, rows.Err()
}
