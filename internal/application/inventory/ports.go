package inventory

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando un
// kardex atado a esa tx. Garantiza que lock + proyección + append de los
// débitos sean una unidad atómica.
type TxRunner interface {
	Run(ctx context.Context, fn func(ledger repository.LedgerRepository) error) error
}

// MovementPublisher notifica movimientos confirmados a consumidores externos
// (mensajería). Es best-effort: un fallo aquí nunca revierte el movimiento ya
// commiteado; el caller solo lo registra en el log.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, movement *entity.StockMovement) error
}
