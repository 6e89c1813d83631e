package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/jhoicas/Kardex-api/internal/application/inventory"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/pkg/config"
)

var _ inventory.MovementPublisher = (*KafkaPublisher)(nil)

// movementEvent payload publicado por cada movimiento confirmado del kardex.
type movementEvent struct {
	MovementID string    `json:"movement_id"`
	ProductID  string    `json:"product_id"`
	StoreID    string    `json:"store_id"`
	Type       string    `json:"type"`
	Quantity   int64     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaPublisher publica movimientos confirmados a Kafka. Es un colaborador
// best-effort: el caller registra los fallos y sigue; la entrega aguas abajo
// no forma parte de la frontera de consistencia del kardex.
type KafkaPublisher struct {
	cl    *kgo.Client
	topic string
}

// NewKafkaPublisher crea el cliente y verifica conectividad con un ping corto.
func NewKafkaPublisher(ctx context.Context, cfg config.KafkaConfig) (*KafkaPublisher, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("crear cliente kafka: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return &KafkaPublisher{cl: cl, topic: cfg.Topic}, nil
}

// PublishMovement serializa el movimiento y lo produce de forma síncrona.
// Particiona por (tienda, producto) para que los consumidores vean los
// movimientos de un mismo agregado en orden.
func (p *KafkaPublisher) PublishMovement(ctx context.Context, m *entity.StockMovement) error {
	payload, err := json.Marshal(movementEvent{
		MovementID: m.ID,
		ProductID:  m.ProductID,
		StoreID:    m.StoreID,
		Type:       m.Type,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice.String(),
		OccurredAt: m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(m.StoreID + ":" + m.ProductID),
		Value: payload,
	}

	done := make(chan error, 1)
	p.cl.Produce(ctx, record, func(_ *kgo.Record, err error) {
		done <- err
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("producir evento: %w", err)
		}
		return nil
	}
}

// Close cierra el cliente Kafka.
func (p *KafkaPublisher) Close() {
	p.cl.Close()
}

// NopPublisher descarta los eventos (Kafka deshabilitado o tests).
type NopPublisher struct{}

var _ inventory.MovementPublisher = (*NopPublisher)(nil)

// PublishMovement no hace nada.
func (NopPublisher) PublishMovement(context.Context, *entity.StockMovement) error { return nil }
