package alerts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

type fakeReadRepo struct {
	items []repository.InventoryItem
}

func (r *fakeReadRepo) CurrentInventory(_ context.Context, _ string, _ repository.InventoryFilter) ([]repository.InventoryItem, error) {
	return r.items, nil
}

func (r *fakeReadRepo) StoreSummary(_ context.Context, _ string) (*repository.StoreSummary, error) {
	return &repository.StoreSummary{}, nil
}

type fakeStoreRepo struct {
	stores map[string]*entity.Store
}

func (r *fakeStoreRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	return r.stores[id], nil
}

func item(id string, qty int64) repository.InventoryItem {
	return repository.InventoryItem{
		ProductID: id,
		SKU:       "SKU-" + id,
		Name:      "Producto " + id,
		Category:  "General",
		UnitPrice: decimal.RequireFromString("10.00"),
		Quantity:  qty,
	}
}

func newAlertsFixture(items ...repository.InventoryItem) *AlertsUseCase {
	return NewAlertsUseCase(
		&fakeReadRepo{items: items},
		&fakeStoreRepo{stores: map[string]*entity.Store{
			"store-1": {ID: "store-1", Name: "Tienda Centro", Active: true},
		}},
	)
}

func TestAlertsForStore_ParticionaPorEstado(t *testing.T) {
	uc := newAlertsFixture(
		item("a", 0),  // OUT_OF_STOCK
		item("b", -2), // OUT_OF_STOCK (historial anómalo, igual se reporta)
		item("c", 3),  // LOW_STOCK
		item("d", 10), // LOW_STOCK (borde inclusivo)
		item("e", 11), // NORMAL
	)

	resp, err := uc.AlertsForStore(context.Background(), "store-1", 0)
	require.NoError(t, err)

	assert.Equal(t, int64(10), resp.Threshold)
	assert.Equal(t, 2, resp.OutOfStockCount)
	assert.Equal(t, 2, resp.LowStockCount)
	require.Len(t, resp.OutOfStock, 2)
	require.Len(t, resp.LowStock, 2)
	assert.Equal(t, "a", resp.OutOfStock[0].ProductID)
	assert.Equal(t, "OUT_OF_STOCK", resp.OutOfStock[0].Status)
	assert.Equal(t, "LOW_STOCK", resp.LowStock[0].Status)

	// Los productos NORMAL no aparecen en ninguna partición.
	for _, it := range append(resp.OutOfStock, resp.LowStock...) {
		assert.NotEqual(t, "e", it.ProductID)
	}
}

func TestAlertsForStore_UmbralPorPeticion(t *testing.T) {
	uc := newAlertsFixture(item("a", 5), item("b", 3))

	resp, err := uc.AlertsForStore(context.Background(), "store-1", 4)
	require.NoError(t, err)

	assert.Equal(t, int64(4), resp.Threshold)
	assert.Equal(t, 1, resp.LowStockCount)
	assert.Equal(t, "b", resp.LowStock[0].ProductID)
}

func TestAlertsForStore_SinAlertas(t *testing.T) {
	uc := newAlertsFixture(item("a", 100))

	resp, err := uc.AlertsForStore(context.Background(), "store-1", 0)
	require.NoError(t, err)

	assert.Zero(t, resp.OutOfStockCount)
	assert.Zero(t, resp.LowStockCount)
	assert.NotNil(t, resp.OutOfStock, "particiones vacías serializan como [], no null")
	assert.NotNil(t, resp.LowStock)
}

func TestAlertsForStore_TiendaDesconocida(t *testing.T) {
	uc := newAlertsFixture()

	_, err := uc.AlertsForStore(context.Background(), "no-existe", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
