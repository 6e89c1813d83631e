package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación del kardex sobre PostgreSQL (usable con pool o tx).
// La tabla stock_movements es append-only: aquí no existe UPDATE ni DELETE.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta un movimiento inmutable. El CHECK (quantity > 0) de la tabla
// respalda la validación del servicio a nivel de base de datos.
func (r *LedgerRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, store_id, type, quantity, unit_price, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	createdBy := (*string)(nil)
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.StoreID, m.Type, m.Quantity, m.UnitPrice, m.Notes, m.CreatedAt, createdBy,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// List consulta movimientos con filtros opcionales, ordenados por fecha
// descendente.
func (r *LedgerRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, store_id, type, quantity, unit_price, notes, created_at, created_by
		FROM stock_movements WHERE 1=1`
	args := []any{}
	pos := 1
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.StoreID != "" {
		query += fmt.Sprintf(" AND store_id = $%d", pos)
		args = append(args, f.StoreID)
		pos++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, f.Type)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var notes, createdBy *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.StoreID, &m.Type,
			&m.Quantity, &m.UnitPrice, &notes, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if notes != nil {
			m.Notes = *notes
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CurrentQuantity proyecta la cantidad actual plegando el kardex:
// SUM(STOCK_IN) - SUM(SALE + MANUAL_REMOVAL).
func (r *LedgerRepo) CurrentQuantity(ctx context.Context, storeID, productID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'STOCK_IN' THEN quantity ELSE -quantity END), 0)
		FROM stock_movements
		WHERE store_id = $1 AND product_id = $2`
	var qty int64
	if err := r.q.QueryRow(ctx, query, storeID, productID).Scan(&qty); err != nil {
		return 0, fmt.Errorf("current quantity: %w", err)
	}
	return qty, nil
}

// LockAggregate serializa los débitos sobre un (tienda, producto) con un
// advisory lock transaccional. El kardex no tiene fila de stock que bloquear
// con FOR UPDATE, así que el lock se toma sobre el hash del par; se libera
// solo en commit/rollback.
func (r *LedgerRepo) LockAggregate(ctx context.Context, storeID, productID string) error {
	_, err := r.q.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
		storeID, productID,
	)
	if err != nil {
		return fmt.Errorf("lock aggregate: %w", err)
	}
	return nil
}
