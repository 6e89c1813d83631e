package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/alerts"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// ReportItem fila del reporte: proyección de inventario más su clasificación.
type ReportItem struct {
	repository.InventoryItem
	Status alerts.Status
}

// InventoryReportGenerator puerto de generación del PDF del reporte.
type InventoryReportGenerator interface {
	GenerateInventoryReport(ctx context.Context, store *entity.Store, items []ReportItem, summary *repository.StoreSummary) ([]byte, error)
}

// ReportUseCase genera el reporte PDF del inventario actual de una tienda.
type ReportUseCase struct {
	readRepo  repository.InventoryReadRepository
	storeRepo repository.StoreRepository
	generator InventoryReportGenerator
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(
	readRepo repository.InventoryReadRepository,
	storeRepo repository.StoreRepository,
	generator InventoryReportGenerator,
) *ReportUseCase {
	return &ReportUseCase{readRepo: readRepo, storeRepo: storeRepo, generator: generator}
}

// InventoryReportPDF proyecta el inventario de la tienda, clasifica cada
// producto con el umbral indicado y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - domain.ErrNotFound        si la tienda no existe.
func (uc *ReportUseCase) InventoryReportPDF(ctx context.Context, storeID string, threshold int64) (pdfBytes []byte, filename string, err error) {
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: obtener tienda: %w", err)
	}
	if store == nil {
		return nil, "", domain.ErrNotFound
	}

	if threshold <= 0 {
		threshold = alerts.DefaultThreshold
	}

	items, err := uc.readRepo.CurrentInventory(ctx, storeID, repository.InventoryFilter{})
	if err != nil {
		return nil, "", fmt.Errorf("reporte: proyectar inventario: %w", err)
	}
	summary, err := uc.readRepo.StoreSummary(ctx, storeID)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: resumen de tienda: %w", err)
	}

	rows := make([]ReportItem, 0, len(items))
	for _, it := range items {
		rows = append(rows, ReportItem{InventoryItem: it, Status: alerts.Classify(it.Quantity, threshold)})
	}

	pdfBytes, err = uc.generator.GenerateInventoryReport(ctx, store, rows, summary)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("inventario_%s_%s.pdf", store.Name, time.Now().Format("20060102"))
	return pdfBytes, filename, nil
}
