// internal/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/cmatc13/tender/internal/payment"
	"github.com/cmatc13/tender/pkg/logging"
)

const (
	// flushTimeout bounds how long Close waits for queued messages
	flushTimeout = 15 * time.Second
	// pingTimeout bounds a metadata request
	pingTimeout = 5 * time.Second
)

// KafkaConfig configures the Kafka publisher
type KafkaConfig struct {
	Brokers     string
	TopicPrefix string
}

// KafkaPublisher publishes outcomes as JSON, keyed by outcome ID, to one
// topic per outcome status.
type KafkaPublisher struct {
	producer *kafka.Producer
	prefix   string
	logger   *logging.Logger
	done     chan struct{}
}

// NewKafkaPublisher creates a publisher connected to cfg.Brokers
func NewKafkaPublisher(cfg KafkaConfig, logger *logging.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &KafkaPublisher{
		producer: producer,
		prefix:   cfg.TopicPrefix,
		logger:   logger.WithField("component", "kafka-publisher"),
		done:     make(chan struct{}),
	}
	go p.watchDeliveries()

	return p, nil
}

// TopicFor returns the topic an outcome with the given status is sent to
func TopicFor(prefix string, status payment.Status) string {
	var name string
	switch status {
	case payment.Processed:
		name = "processed"
	case payment.Rejected:
		name = "rejected"
	default:
		name = "refunded"
	}
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// NewMessage encodes an outcome as a Kafka message
func NewMessage(prefix string, outcome *payment.Outcome) (*kafka.Message, error) {
	value, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("error serializing outcome: %w", err)
	}

	topic := TopicFor(prefix, outcome.Status)
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(outcome.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "method", Value: []byte(outcome.Method)},
		},
	}, nil
}

// Publish queues the outcome for delivery
func (p *KafkaPublisher) Publish(ctx context.Context, outcome *payment.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := NewMessage(p.prefix, outcome)
	if err != nil {
		return err
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("error publishing outcome: %w", err)
	}
	return nil
}

// Ping requests cluster metadata
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	timeout := pingTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	if _, err := p.producer.GetMetadata(nil, false, int(timeout.Milliseconds())); err != nil {
		return fmt.Errorf("kafka metadata request failed: %w", err)
	}
	return nil
}

// Close flushes queued messages and closes the producer
func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(int(flushTimeout.Milliseconds())); remaining > 0 {
		p.logger.Warn("Outcomes left unflushed", "count", remaining)
	}
	p.producer.Close()
	<-p.done
}

// watchDeliveries logs failed deliveries until the producer is closed
func (p *KafkaPublisher) watchDeliveries() {
	defer close(p.done)

	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Outcome delivery failed",
					"key", string(ev.Key),
					"error", ev.TopicPartition.Error,
				)
			}
		case kafka.Error:
			p.logger.Error("Kafka error", "error", ev)
		}
	}
}
