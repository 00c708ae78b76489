package events

import (
	"context"
	"encoding/json"

	"rescuebite/internal/telemetry"
	"rescuebite/internal/usecase/interfaces"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const lifecycleTopic = "payment.state.changed"

// KafkaPublisher emits payment and order lifecycle events. Publishing is
// best-effort: a broker failure is logged and swallowed so the payment flow
// never depends on Kafka being up.

type KafkaPublisher struct {
	writer *kafka.Writer
}

var _ interfaces.IEventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher returns nil when no brokers are configured; usecases
// treat a nil publisher as a no-op.
func NewKafkaPublisher(brokers string) *KafkaPublisher {
	if brokers == "" {
		return nil
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    lifecycleTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev interfaces.LifecycleEvent) {
	value, err := json.Marshal(ev)
	if err != nil {
		telemetry.Logger.Error("events.marshal_failed", zap.String("event", ev.Name), zap.Error(err))
		return
	}

	key := ev.PaymentID
	if key == "" {
		key = ev.OrderID
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		telemetry.Logger.Warn("events.publish_failed",
			zap.String("event", ev.Name),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
