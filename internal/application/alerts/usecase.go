package alerts

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
	domalerts "github.com/jhoicas/Kardex-api/internal/domain/alerts"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// AlertsUseCase proyecta cada producto de la tienda por el clasificador y
// particiona por estado. Vista derivada: no persiste nada.
type AlertsUseCase struct {
	readRepo  repository.InventoryReadRepository
	storeRepo repository.StoreRepository
}

// NewAlertsUseCase construye el caso de uso.
func NewAlertsUseCase(readRepo repository.InventoryReadRepository, storeRepo repository.StoreRepository) *AlertsUseCase {
	return &AlertsUseCase{readRepo: readRepo, storeRepo: storeRepo}
}

// AlertsForStore devuelve los productos en quiebre y en stock bajo de una
// tienda. El umbral lo trae el caller por petición (default 10); no hay
// configuración persistida por tienda. El orden (cantidad ascendente, luego
// categoría y nombre) lo garantiza el repositorio de lectura.
func (uc *AlertsUseCase) AlertsForStore(ctx context.Context, storeID string, threshold int64) (*dto.AlertsResponse, error) {
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}

	if threshold <= 0 {
		threshold = domalerts.DefaultThreshold
	}

	items, err := uc.readRepo.CurrentInventory(ctx, storeID, repository.InventoryFilter{})
	if err != nil {
		return nil, err
	}

	resp := &dto.AlertsResponse{
		StoreID:    storeID,
		Threshold:  threshold,
		OutOfStock: []dto.InventoryItemResponse{},
		LowStock:   []dto.InventoryItemResponse{},
	}
	for _, it := range items {
		status := domalerts.Classify(it.Quantity, threshold)
		item := dto.InventoryItemResponse{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Category:  it.Category,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Value:     it.Value().Round(2),
			Status:    string(status),
		}
		switch status {
		case domalerts.StatusOutOfStock:
			resp.OutOfStock = append(resp.OutOfStock, item)
		case domalerts.StatusLowStock:
			resp.LowStock = append(resp.LowStock, item)
		}
	}
	resp.OutOfStockCount = len(resp.OutOfStock)
	resp.LowStockCount = len(resp.LowStock)
	return resp, nil
}
