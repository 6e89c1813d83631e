package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// StockMutationUseCase es el único escritor del kardex. Valida entradas,
// aplica el invariante de no-negatividad en los débitos y registra el
// movimiento de forma transaccional.
//
// Máquina de estados por petición:
// RECEIVED -> VALIDATED -> STOCK_CHECKED (débitos) -> APPENDED -> PUBLISHED(externo).
// Fallos terminales: entrada inválida, producto/tienda desconocido, stock insuficiente.
type StockMutationUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
	publisher   MovementPublisher
	log         *logger.Logger
}

// NewStockMutationUseCase construye el caso de uso.
func NewStockMutationUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	publisher MovementPublisher,
	log *logger.Logger,
) *StockMutationUseCase {
	return &StockMutationUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		storeRepo:   storeRepo,
		publisher:   publisher,
		log:         log,
	}
}

// MutationInput entrada para registrar un movimiento.
// UnitPrice nil = usar el precio de catálogo vigente del producto.
type MutationInput struct {
	StoreID   string
	ProductID string
	Quantity  int64
	UnitPrice *decimal.Decimal
	Notes     string
	UserID    string
}

// AddStock registra una entrada de mercancía (STOCK_IN). Las entradas solo
// aumentan stock, así que no necesitan lock del agregado.
func (uc *StockMutationUseCase) AddStock(ctx context.Context, input MutationInput) (*entity.StockMovement, error) {
	product, err := uc.validate(ctx, input)
	if err != nil {
		return nil, err
	}

	mov := uc.buildMovement(entity.MovementTypeStockIn, input, resolvePrice(input.UnitPrice, product))
	err = uc.txRunner.Run(ctx, func(ledger repository.LedgerRepository) error {
		return ledger.Append(ctx, mov)
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, mov)
	return mov, nil
}

// RecordSale registra una venta (SALE). Débito: la secuencia lock ->
// proyección -> comparación -> append corre en una sola transacción para que
// dos ventas concurrentes sobre el mismo (tienda, producto) no lean ambas la
// misma cantidad previa.
func (uc *StockMutationUseCase) RecordSale(ctx context.Context, input MutationInput) (*entity.StockMovement, error) {
	product, err := uc.validate(ctx, input)
	if err != nil {
		return nil, err
	}
	return uc.debit(ctx, entity.MovementTypeSale, input, resolvePrice(input.UnitPrice, product))
}

// RemoveStock registra una baja manual (MANUAL_REMOVAL). Mismo invariante de
// no-negatividad que la venta, pero siempre valorada al precio de catálogo:
// una baja no es una venta y no acepta precio del caller.
func (uc *StockMutationUseCase) RemoveStock(ctx context.Context, input MutationInput) (*entity.StockMovement, error) {
	input.UnitPrice = nil
	product, err := uc.validate(ctx, input)
	if err != nil {
		return nil, err
	}
	return uc.debit(ctx, entity.MovementTypeManualRemoval, input, product.UnitPrice)
}

// validate verifica cantidad positiva, existencia del producto y tienda activa.
func (uc *StockMutationUseCase) validate(ctx context.Context, input MutationInput) (*entity.Product, error) {
	if input.Quantity <= 0 || input.ProductID == "" || input.StoreID == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.UnitPrice != nil && input.UnitPrice.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	store, err := uc.storeRepo.GetByID(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	if !store.Active {
		return nil, domain.ErrStoreInactive
	}
	return product, nil
}

// debit ejecuta el camino de débito: advisory lock sobre el agregado,
// proyección de la cantidad actual, chequeo y append, todo en una transacción.
func (uc *StockMutationUseCase) debit(ctx context.Context, movType string, input MutationInput, unitPrice decimal.Decimal) (*entity.StockMovement, error) {
	mov := uc.buildMovement(movType, input, unitPrice)

	err := uc.txRunner.Run(ctx, func(ledger repository.LedgerRepository) error {
		if err := ledger.LockAggregate(ctx, input.StoreID, input.ProductID); err != nil {
			return err
		}
		current, err := ledger.CurrentQuantity(ctx, input.StoreID, input.ProductID)
		if err != nil {
			return err
		}
		if current < input.Quantity {
			return &domain.InsufficientStockError{CurrentStock: current, Requested: input.Quantity}
		}
		return ledger.Append(ctx, mov)
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, mov)
	return mov, nil
}

func (uc *StockMutationUseCase) buildMovement(movType string, input MutationInput, unitPrice decimal.Decimal) *entity.StockMovement {
	return &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		StoreID:   input.StoreID,
		Type:      movType,
		Quantity:  input.Quantity,
		UnitPrice: unitPrice,
		Notes:     input.Notes,
		CreatedAt: time.Now(),
		CreatedBy: input.UserID,
	}
}

// publish notifica el movimiento ya commiteado. Fire-and-forget: el fallo se
// registra y no afecta el resultado reportado de la mutación.
func (uc *StockMutationUseCase) publish(ctx context.Context, mov *entity.StockMovement) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishMovement(ctx, mov); err != nil {
		uc.log.Warn().Err(err).
			Str("movement_id", mov.ID).
			Str("type", mov.Type).
			Msg("no se pudo publicar el movimiento")
	}
}

func resolvePrice(p *decimal.Decimal, product *entity.Product) decimal.Decimal {
	if p != nil {
		return *p
	}
	return product.UnitPrice
}
