package services

import (
	"context"
	"strconv"

	"github.com/MilindPius2005/library-management-system/internal/config"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KafkaEventPublisher publishes loan lifecycle events to a Kafka topic.
// Without configured brokers it is a no-op, mirroring how notifications
// stay silent without a webhook.
type KafkaEventPublisher struct {
	writer  *kafka.Writer
	enabled bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(cfg config.KafkaConfig) *KafkaEventPublisher {
	if len(cfg.Brokers) == 0 {
		return &KafkaEventPublisher{}
	}

	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.Hash{},
		},
		enabled: true,
	}
}

// IsEnabled checks if event publishing is enabled
func (p *KafkaEventPublisher) IsEnabled() bool {
	return p.enabled
}

// Publish writes one event, keyed by loan ID so events for the same loan
// stay in partition order
func (p *KafkaEventPublisher) Publish(ctx context.Context, event LoanEvent) error {
	if !p.enabled {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.LoanID), 10)),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer
func (p *KafkaEventPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
