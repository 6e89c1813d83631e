package inventory

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/alerts"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// InventoryQueryUseCase camino de lectura: proyecta el kardex a inventario
// actual y expone el historial de movimientos. No escribe nada.
type InventoryQueryUseCase struct {
	readRepo  repository.InventoryReadRepository
	ledger    repository.LedgerRepository
	storeRepo repository.StoreRepository
}

// NewInventoryQueryUseCase construye el caso de uso.
func NewInventoryQueryUseCase(
	readRepo repository.InventoryReadRepository,
	ledger repository.LedgerRepository,
	storeRepo repository.StoreRepository,
) *InventoryQueryUseCase {
	return &InventoryQueryUseCase{readRepo: readRepo, ledger: ledger, storeRepo: storeRepo}
}

// CurrentInventoryQuery filtros de GET /api/stores/:storeId/inventory.
type CurrentInventoryQuery struct {
	Category   string
	MinStock   *int64
	MaxStock   *int64
	LowStock   bool // solo productos en LOW_STOCK
	OutOfStock bool // solo productos en OUT_OF_STOCK
	Threshold  int64
}

// CurrentInventory proyecta cantidad y valor por producto más el resumen de la
// tienda. Siempre recalcula desde el kardex; releer sin mutaciones intermedias
// devuelve exactamente lo mismo.
func (uc *InventoryQueryUseCase) CurrentInventory(ctx context.Context, storeID string, q CurrentInventoryQuery) (*dto.CurrentInventoryResponse, error) {
	if err := uc.ensureStore(ctx, storeID); err != nil {
		return nil, err
	}
	threshold := q.Threshold
	if threshold <= 0 {
		threshold = alerts.DefaultThreshold
	}

	items, err := uc.readRepo.CurrentInventory(ctx, storeID, repository.InventoryFilter{
		Category: q.Category,
		MinStock: q.MinStock,
		MaxStock: q.MaxStock,
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.InventoryItemResponse, 0, len(items))
	for _, it := range items {
		status := alerts.Classify(it.Quantity, threshold)
		if q.OutOfStock && status != alerts.StatusOutOfStock {
			continue
		}
		if q.LowStock && status != alerts.StatusLowStock {
			continue
		}
		out = append(out, mapInventoryItem(it, status))
	}

	summary, err := uc.readRepo.StoreSummary(ctx, storeID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CurrentInventoryResponse{
		StoreID: storeID,
		Items:   out,
		Summary: mapSummary(summary),
	}
	return resp, nil
}

// MovementHistory consulta el kardex con filtros opcionales, ordenado por
// fecha descendente.
func (uc *InventoryQueryUseCase) MovementHistory(ctx context.Context, filter repository.MovementFilter) ([]dto.MovementResponse, error) {
	if filter.Type != "" && !entity.ValidMovementType(filter.Type) {
		return nil, domain.ErrInvalidInput
	}
	movements, err := uc.ledger.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, MapMovement(m))
	}
	return out, nil
}

// StoreMovements historial del kardex de una tienda concreta. Tienda
// desconocida responde not found, igual que el resto de lecturas por tienda.
func (uc *InventoryQueryUseCase) StoreMovements(ctx context.Context, storeID string, filter repository.MovementFilter) ([]dto.MovementResponse, error) {
	if err := uc.ensureStore(ctx, storeID); err != nil {
		return nil, err
	}
	filter.StoreID = storeID
	return uc.MovementHistory(ctx, filter)
}

func (uc *InventoryQueryUseCase) ensureStore(ctx context.Context, storeID string) error {
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if store == nil {
		return domain.ErrNotFound
	}
	return nil
}

// MapMovement convierte la entidad a su representación HTTP.
func MapMovement(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		StoreID:   m.StoreID,
		Type:      m.Type,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

func mapInventoryItem(it repository.InventoryItem, status alerts.Status) dto.InventoryItemResponse {
	return dto.InventoryItemResponse{
		ProductID: it.ProductID,
		SKU:       it.SKU,
		Name:      it.Name,
		Category:  it.Category,
		UnitPrice: it.UnitPrice,
		Quantity:  it.Quantity,
		// Redondeo a 2 decimales solo en presentación; la agregación corre sin redondeo intermedio.
		Value:  it.Value().Round(2),
		Status: string(status),
	}
}

func mapSummary(s *repository.StoreSummary) dto.InventorySummaryResponse {
	cats := make([]dto.CategorySummaryResponse, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, dto.CategorySummaryResponse{
			Category:   c.Category,
			Products:   c.Products,
			TotalUnits: c.TotalUnits,
			TotalValue: c.TotalValue.Round(2),
		})
	}
	return dto.InventorySummaryResponse{
		Products:   s.Products,
		TotalUnits: s.TotalUnits,
		TotalValue: s.TotalValue.Round(2),
		Categories: cats,
	}
}
