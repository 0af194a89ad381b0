// Package kafka publishes engagement events through confluent-kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"photofeed/internal/events"
)

// Producer wraps Kafka producer with helper methods
type Producer struct {
	producer *kafka.Producer
	config   *Config
	logger   *slog.Logger
}

// NewProducer creates an idempotent producer and starts draining delivery reports.
func NewProducer(config *Config, logger *slog.Logger) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     config.Brokers,
		"client.id":                             config.ClientID,
		"enable.idempotence":                    config.EnableIdempotence,
		"acks":                                  config.Acks,
		"max.in.flight.requests.per.connection": 5,
		"linger.ms":                             5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	producer := &Producer{
		producer: p,
		config:   config,
		logger:   logger,
	}
	go producer.handleDeliveryReports()

	logger.Info("Kafka producer initialized",
		"brokers", config.Brokers,
		"topic", config.EngagementTopic)
	return producer, nil
}

// NewPublisherFromEnv returns a Kafka-backed publisher, or events.Nop when
// KAFKA_BROKERS is unset. The returned func flushes and closes the producer.
func NewPublisherFromEnv(clientID string, logger *slog.Logger) (events.Publisher, func(), error) {
	cfg, err := LoadConfig(clientID)
	if errors.Is(err, ErrNotConfigured) {
		logger.Info("Kafka not configured, engagement events disabled")
		return events.Nop{}, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	p, err := NewProducer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

// Publish enqueues e on the engagement topic. Delivery is reported asynchronously.
func (p *Producer) Publish(ctx context.Context, e events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := toMessage(p.config.EngagementTopic, e)
	if err != nil {
		return err
	}
	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	p.logger.Debug("Engagement event queued", "type", e.Type, "post_id", e.PostID)
	return nil
}

func toMessage(topic string, e events.Event) (*kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(strconv.FormatInt(e.PostID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}, nil
}

func (p *Producer) handleDeliveryReports() {
	for e := range p.producer.Events() {
		ev, ok := e.(*kafka.Message)
		if !ok {
			continue
		}
		if ev.TopicPartition.Error != nil {
			p.logger.Error("Delivery failed",
				"topic", *ev.TopicPartition.Topic,
				"error", ev.TopicPartition.Error)
			continue
		}
		p.logger.Debug("Message delivered",
			"topic", *ev.TopicPartition.Topic,
			"partition", ev.TopicPartition.Partition,
			"offset", ev.TopicPartition.Offset)
	}
}

// Flush waits up to timeoutMs for outstanding messages and returns how many remain.
func (p *Producer) Flush(timeoutMs int) int {
	remaining := p.producer.Flush(timeoutMs)
	if remaining > 0 {
		p.logger.Warn("Failed to flush all messages", "remaining", remaining)
	}
	return remaining
}

// Close flushes for up to 10s and closes the producer.
func (p *Producer) Close() {
	if remaining := p.Flush(10000); remaining > 0 {
		p.logger.Error("Some messages were not delivered", "count", remaining)
	}
	p.producer.Close()
	p.logger.Info("Kafka producer closed")
}
