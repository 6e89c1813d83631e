package inventory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// ── Fakes en memoria ──────────────────────────────────────────────────────────

// memStore kardex compartido entre transacciones simuladas.
type memStore struct {
	mu        sync.Mutex
	movements []*entity.StockMovement
	aggLocks  map[string]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{aggLocks: make(map[string]*sync.Mutex)}
}

func (s *memStore) quantity(storeID, productID string) int64 {
	var total int64
	for _, m := range s.movements {
		if m.StoreID != storeID || m.ProductID != productID {
			continue
		}
		total += m.SignedQuantity()
	}
	return total
}

func (s *memStore) aggLock(storeID, productID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeID + ":" + productID
	if _, ok := s.aggLocks[key]; !ok {
		s.aggLocks[key] = &sync.Mutex{}
	}
	return s.aggLocks[key]
}

// memTx vista transaccional del kardex: los appends quedan en un buffer que
// solo se vuelca al store compartido si la función de la transacción retorna
// sin error. Los locks de agregado se sueltan al terminar, como un advisory
// lock transaccional.
type memTx struct {
	store   *memStore
	pending []*entity.StockMovement
	held    []*sync.Mutex
}

var _ repository.LedgerRepository = (*memTx)(nil)

func (t *memTx) Append(_ context.Context, m *entity.StockMovement) error {
	if m.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	t.pending = append(t.pending, m)
	return nil
}

func (t *memTx) List(_ context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range t.store.movements {
		if filter.StoreID != "" && m.StoreID != filter.StoreID {
			continue
		}
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (t *memTx) CurrentQuantity(_ context.Context, storeID, productID string) (int64, error) {
	t.store.mu.Lock()
	total := t.store.quantity(storeID, productID)
	t.store.mu.Unlock()
	for _, m := range t.pending {
		if m.StoreID == storeID && m.ProductID == productID {
			total += m.SignedQuantity()
		}
	}
	return total, nil
}

func (t *memTx) LockAggregate(_ context.Context, storeID, productID string) error {
	l := t.store.aggLock(storeID, productID)
	l.Lock()
	t.held = append(t.held, l)
	return nil
}

// memTxRunner implementa TxRunner sobre el store en memoria.
type memTxRunner struct {
	store *memStore
}

func (r *memTxRunner) Run(ctx context.Context, fn func(ledger repository.LedgerRepository) error) error {
	tx := &memTx{store: r.store}
	err := fn(tx)
	if err == nil {
		r.store.mu.Lock()
		r.store.movements = append(r.store.movements, tx.pending...)
		r.store.mu.Unlock()
	}
	// Los locks de agregado se sueltan recién con el estado asentado (commit
	// visible o buffer descartado), igual que un advisory lock transaccional.
	for _, l := range tx.held {
		l.Unlock()
	}
	return err
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

type fakeStoreRepo struct {
	stores map[string]*entity.Store
}

func (r *fakeStoreRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	return r.stores[id], nil
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []*entity.StockMovement
}

func (p *capturingPublisher) PublishMovement(_ context.Context, m *entity.StockMovement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, m)
	return nil
}

// ── Setup ─────────────────────────────────────────────────────────────────────

const (
	testStoreID   = "store-1"
	testProductID = "prod-1"
)

func newFixture() (*StockMutationUseCase, *memStore, *capturingPublisher) {
	store := newMemStore()
	pub := &capturingPublisher{}
	uc := NewStockMutationUseCase(
		&memTxRunner{store: store},
		&fakeProductRepo{products: map[string]*entity.Product{
			testProductID: {
				ID:        testProductID,
				SKU:       "SKU-001",
				Name:      "Café molido 500g",
				Category:  "Alimentos",
				UnitPrice: decimal.RequireFromString("12.50"),
			},
		}},
		&fakeStoreRepo{stores: map[string]*entity.Store{
			testStoreID:    {ID: testStoreID, Name: "Tienda Centro", Active: true},
			"store-closed": {ID: "store-closed", Name: "Tienda Cerrada", Active: false},
		}},
		pub,
		logger.NewNop(),
	)
	return uc, store, pub
}

func seedStock(t *testing.T, uc *StockMutationUseCase, qty int64) {
	t.Helper()
	_, err := uc.AddStock(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  qty,
		UserID:    "user-1",
	})
	require.NoError(t, err)
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestAddStock_UsaPrecioDeCatalogoSiFalta(t *testing.T) {
	uc, store, pub := newFixture()

	mov, err := uc.AddStock(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  10,
		UserID:    "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeStockIn, mov.Type)
	assert.True(t, mov.UnitPrice.Equal(decimal.RequireFromString("12.50")))
	assert.NotEmpty(t, mov.ID)
	assert.Equal(t, "user-1", mov.CreatedBy)

	assert.Equal(t, int64(10), store.quantity(testStoreID, testProductID))
	assert.Len(t, pub.published, 1)
}

func TestAddStock_PrecioExplicitoGana(t *testing.T) {
	uc, _, _ := newFixture()

	price := decimal.RequireFromString("9.99")
	mov, err := uc.AddStock(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  5,
		UnitPrice: &price,
	})
	require.NoError(t, err)
	assert.True(t, mov.UnitPrice.Equal(price))
}

func TestRecordSale_DescuentaStock(t *testing.T) {
	uc, store, _ := newFixture()
	seedStock(t, uc, 20)

	mov, err := uc.RecordSale(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  8,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeSale, mov.Type)
	assert.Equal(t, int64(12), store.quantity(testStoreID, testProductID))
}

func TestRecordSale_StockInsuficienteNoTocaElKardex(t *testing.T) {
	uc, store, pub := newFixture()
	seedStock(t, uc, 5)

	_, err := uc.RecordSale(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  10,
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(5), insufficient.CurrentStock)
	assert.Equal(t, int64(10), insufficient.Requested)

	// El kardex queda exactamente igual: solo la entrada inicial.
	assert.Equal(t, int64(5), store.quantity(testStoreID, testProductID))
	assert.Len(t, store.movements, 1)
	assert.Len(t, pub.published, 1)
}

func TestRecordSale_VentaExactaDejaCero(t *testing.T) {
	uc, store, _ := newFixture()
	seedStock(t, uc, 7)

	_, err := uc.RecordSale(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  7,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), store.quantity(testStoreID, testProductID))
}

func TestRecordSale_ConcurrenciaSoloUnaGana(t *testing.T) {
	uc, store, _ := newFixture()
	seedStock(t, uc, 1)

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.RecordSale(context.Background(), MutationInput{
				StoreID:   testStoreID,
				ProductID: testProductID,
				Quantity:  1,
			})
		}(i)
	}
	wg.Wait()

	var oks, insufficients int
	for _, err := range errs {
		var insufficient *domain.InsufficientStockError
		switch {
		case err == nil:
			oks++
		case errors.As(err, &insufficient):
			insufficients++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, oks)
	assert.Equal(t, 1, insufficients)
	assert.Equal(t, int64(0), store.quantity(testStoreID, testProductID))
}

func TestRemoveStock_IgnoraPrecioDelCaller(t *testing.T) {
	uc, _, _ := newFixture()
	seedStock(t, uc, 10)

	price := decimal.RequireFromString("1.00")
	mov, err := uc.RemoveStock(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  3,
		UnitPrice: &price,
		Notes:     "merma por vencimiento",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeManualRemoval, mov.Type)
	// Las bajas siempre se valoran al precio de catálogo.
	assert.True(t, mov.UnitPrice.Equal(decimal.RequireFromString("12.50")))
}

func TestRemoveStock_MismoInvarianteQueLaVenta(t *testing.T) {
	uc, _, _ := newFixture()
	seedStock(t, uc, 2)

	_, err := uc.RemoveStock(context.Background(), MutationInput{
		StoreID:   testStoreID,
		ProductID: testProductID,
		Quantity:  3,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(2), insufficient.CurrentStock)
}

func TestValidacion(t *testing.T) {
	uc, _, _ := newFixture()
	seedStock(t, uc, 10)
	ctx := context.Background()

	cases := []struct {
		name    string
		input   MutationInput
		wantErr error
	}{
		{
			name:    "cantidad cero",
			input:   MutationInput{StoreID: testStoreID, ProductID: testProductID, Quantity: 0},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "cantidad negativa",
			input:   MutationInput{StoreID: testStoreID, ProductID: testProductID, Quantity: -5},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "producto desconocido",
			input:   MutationInput{StoreID: testStoreID, ProductID: "no-existe", Quantity: 1},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "tienda desconocida",
			input:   MutationInput{StoreID: "no-existe", ProductID: testProductID, Quantity: 1},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "tienda inactiva",
			input:   MutationInput{StoreID: "store-closed", ProductID: testProductID, Quantity: 1},
			wantErr: domain.ErrStoreInactive,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.AddStock(ctx, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
			_, err = uc.RecordSale(ctx, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestProyeccionEsAditiva(t *testing.T) {
	uc, store, _ := newFixture()
	ctx := context.Background()

	steps := []struct {
		op  func(context.Context, MutationInput) (*entity.StockMovement, error)
		qty int64
	}{
		{uc.AddStock, 50},
		{uc.RecordSale, 12},
		{uc.AddStock, 5},
		{uc.RemoveStock, 3},
		{uc.RecordSale, 10},
	}
	for _, s := range steps {
		_, err := s.op(ctx, MutationInput{StoreID: testStoreID, ProductID: testProductID, Quantity: s.qty})
		require.NoError(t, err)
	}

	// 50 - 12 + 5 - 3 - 10 = 30, y releer sin mutaciones da lo mismo.
	assert.Equal(t, int64(30), store.quantity(testStoreID, testProductID))
	assert.Equal(t, int64(30), store.quantity(testStoreID, testProductID))

	// Negativo jamás, en ningún prefijo de la historia.
	var running int64
	for _, m := range store.movements {
		running += m.SignedQuantity()
		assert.GreaterOrEqual(t, running, int64(0))
	}
}

// Dos débitos serializados por el lock de agregado: el segundo solo consigue
// el lock cuando el commit del primero ya es visible, así que jamás puede leer
// la cantidad previa y pasar un chequeo de stock que el primero agotó.
func TestDebitosSerializadosVenElCommitAnterior(t *testing.T) {
	store := newMemStore()
	runner := &memTxRunner{store: store}
	ctx := context.Background()

	require.NoError(t, runner.Run(ctx, func(l repository.LedgerRepository) error {
		return l.Append(ctx, &entity.StockMovement{
			ID: "in-1", ProductID: testProductID, StoreID: testStoreID,
			Type: entity.MovementTypeStockIn, Quantity: 1, CreatedAt: time.Now(),
		})
	}))

	aHolding := make(chan struct{})
	release := make(chan struct{})
	aDone := make(chan struct{})
	go func() {
		defer close(aDone)
		_ = runner.Run(ctx, func(l repository.LedgerRepository) error {
			if err := l.LockAggregate(ctx, testStoreID, testProductID); err != nil {
				return err
			}
			q, err := l.CurrentQuantity(ctx, testStoreID, testProductID)
			assert.NoError(t, err)
			assert.Equal(t, int64(1), q)
			if err := l.Append(ctx, &entity.StockMovement{
				ID: "sale-1", ProductID: testProductID, StoreID: testStoreID,
				Type: entity.MovementTypeSale, Quantity: 1, CreatedAt: time.Now(),
			}); err != nil {
				return err
			}
			close(aHolding)
			<-release // sigue dentro de la transacción, con el lock tomado
			return nil
		})
	}()

	<-aHolding

	var observed int64
	bDone := make(chan struct{})
	go func() {
		defer close(bDone)
		_ = runner.Run(ctx, func(l repository.LedgerRepository) error {
			if err := l.LockAggregate(ctx, testStoreID, testProductID); err != nil {
				return err
			}
			q, err := l.CurrentQuantity(ctx, testStoreID, testProductID)
			assert.NoError(t, err)
			observed = q
			return nil
		})
	}()

	// B queda esperando el lock mientras A sigue en su transacción.
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-aDone
	<-bDone

	assert.Equal(t, int64(0), observed,
		"al conseguir el lock, la venta ya commiteada debe ser visible")
}

// Replay aleatorio (semilla fija): la cantidad proyectada debe coincidir con
// un recomputo independiente del kardex, para cualquier secuencia de
// movimientos, y nunca quedar negativa.
func TestProyeccionAditivaConSecuenciaAleatoria(t *testing.T) {
	uc, store, _ := newFixture()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(20260828))

	var expected int64
	for i := 0; i < 500; i++ {
		qty := int64(rng.Intn(20) + 1)
		input := MutationInput{StoreID: testStoreID, ProductID: testProductID, Quantity: qty}
		var insufficient *domain.InsufficientStockError
		switch rng.Intn(3) {
		case 0:
			_, err := uc.AddStock(ctx, input)
			require.NoError(t, err)
			expected += qty
		case 1:
			_, err := uc.RecordSale(ctx, input)
			if qty > expected {
				require.ErrorAs(t, err, &insufficient)
				assert.Equal(t, expected, insufficient.CurrentStock)
			} else {
				require.NoError(t, err)
				expected -= qty
			}
		case 2:
			_, err := uc.RemoveStock(ctx, input)
			if qty > expected {
				require.ErrorAs(t, err, &insufficient)
				assert.Equal(t, expected, insufficient.CurrentStock)
			} else {
				require.NoError(t, err)
				expected -= qty
			}
		}
	}

	// Recomputo independiente: pliegue explícito por tipo, sin pasar por
	// SignedQuantity ni por la proyección del fake.
	var recomputed int64
	for _, m := range store.movements {
		switch m.Type {
		case entity.MovementTypeStockIn:
			recomputed += m.Quantity
		case entity.MovementTypeSale, entity.MovementTypeManualRemoval:
			recomputed -= m.Quantity
		}
	}
	assert.Equal(t, expected, recomputed)
	assert.Equal(t, expected, store.quantity(testStoreID, testProductID))
	assert.GreaterOrEqual(t, recomputed, int64(0))
}

func TestMovimientosLlevanTimestamp(t *testing.T) {
	uc, store, _ := newFixture()
	before := time.Now()
	seedStock(t, uc, 1)

	require.Len(t, store.movements, 1)
	m := store.movements[0]
	assert.False(t, m.CreatedAt.Before(before))
	assert.False(t, m.CreatedAt.After(time.Now()))
}
