// Package events publishes payment outcomes to downstream consumers.
package events

import (
	"context"

	"github.com/cmatc13/tender/internal/payment"
	"github.com/cmatc13/tender/pkg/logging"
)

// Publisher delivers outcome records
type Publisher interface {
	// Publish hands an outcome to the transport. Delivery is best-effort.
	Publish(ctx context.Context, outcome *payment.Outcome) error
	// Ping checks that the transport is reachable
	Ping(ctx context.Context) error
	// Close flushes and releases the transport
	Close()
}

// NopPublisher drops every outcome. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *payment.Outcome) error { return nil }
func (NopPublisher) Ping(context.Context) error                      { return nil }
func (NopPublisher) Close()                                          {}

// NewPublisher returns a Kafka publisher, or a NopPublisher when no brokers
// are configured
func NewPublisher(cfg KafkaConfig, logger *logging.Logger) (Publisher, error) {
	if cfg.Brokers == "" {
		logger.Info("No Kafka brokers configured, outcomes will not be published")
		return NopPublisher{}, nil
	}

	p, err := NewKafkaPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}
