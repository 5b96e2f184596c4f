// Package messaging publishes order events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/config"
	"github.com/segmentio/kafka-go"
)

const headerEventType = "event-type"

// KafkaPublisher writes one message per order event, keyed by order id so every event
// of an order lands on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event application.OrderEvent) error {
	msg, err := orderMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", event.Type, event.OrderID, err)
	}
	p.logger.Debug("order event published", "event_type", event.Type, "order_id", event.OrderID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func orderMessage(event application.OrderEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
		},
	}, nil
}

// LoggingPublisher stands in for Kafka when no brokers are configured.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event application.OrderEvent) error {
	p.logger.Info("order event",
		"event_type", event.Type,
		"order_id", event.OrderID,
		"order_number", event.OrderNumber,
		"status", event.Status,
	)
	return nil
}
