package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// ProductRepository puerto de lectura del catálogo de productos. El CRUD del
// catálogo es un colaborador externo; el motor del kardex solo necesita
// resolver existencia y precio vigente.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
}
