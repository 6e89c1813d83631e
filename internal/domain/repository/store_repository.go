package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// StoreRepository puerto de lectura de tiendas. La gestión de tiendas es
// externa; aquí solo se valida existencia y el flag activo.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}
