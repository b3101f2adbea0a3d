package repository

import (
	"context"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/repository"
)

// DefaultCycleTopic carries one CycleEvent per digest cycle.
const DefaultCycleTopic = "market-pulse.cycles"

type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher implements EventPublisher for Kafka.
type KafkaPublisher struct {
	producer messageProducer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher. Pass a *kafka.Producer from pkg/kafka.
func NewKafkaPublisher(producer messageProducer, topic string) repository.EventPublisher {
	if topic == "" {
		topic = DefaultCycleTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishCycle keys events by status so a consumer can partition failures apart.
func (p *KafkaPublisher) PublishCycle(ctx context.Context, evt models.CycleEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(evt.Status), evt)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops events. Used when kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishCycle(context.Context, models.CycleEvent) error { return nil }
func (NoopPublisher) Close() error                                         { return nil }

var _ repository.EventPublisher = NoopPublisher{}
