// internal/processor/processor.go
package processor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/internal/events"
	"github.com/cmatc13/tender/internal/payment"
	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
	"github.com/cmatc13/tender/pkg/metrics"
)

// Processor builds payments from requests, processes them and reports the
// outcomes. Payments are handled one at a time and share no state.
type Processor struct {
	logger    *logging.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
}

// New creates a processor. A nil publisher disables outcome publishing; nil
// metrics are collected in a private registry nothing exposes.
func New(logger *logging.Logger, m *metrics.Metrics, publisher events.Publisher) *Processor {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.New(metrics.DefaultConfig())
	}
	return &Processor{
		logger:    logger,
		metrics:   m,
		publisher: publisher,
	}
}

// Process handles a single payment request. A rejected payment yields both
// a REJECTED outcome and the payment error; the error has already been
// logged by the payment and is not logged again here.
func (p *Processor) Process(ctx context.Context, req payment.Request) (*payment.Outcome, error) {
	method, err := payment.New(req, p.logger)
	if err != nil {
		p.metrics.RecordError("processor", "request", errorCode(err))
		return nil, err
	}

	start := time.Now()
	outcome, err := method.ProcessPayment()
	if err != nil {
		outcome = payment.RejectedOutcome(method, err)
		p.metrics.RecordPaymentError(string(method.Kind()), outcome.Code)
	}
	p.metrics.RecordPayment(string(method.Kind()), string(outcome.Status),
		outcome.Amount.InexactFloat64(), outcome.Fee.InexactFloat64(), time.Since(start))

	p.publish(ctx, outcome)
	return outcome, err
}

// Refund refunds the amount of the given request. Refunds are not validated.
func (p *Processor) Refund(ctx context.Context, req payment.Request) (*payment.Outcome, error) {
	method, err := payment.New(req, p.logger)
	if err != nil {
		p.metrics.RecordError("processor", "request", errorCode(err))
		return nil, errors.WrapWithOperation(err, errors.OpRefund)
	}

	outcome := method.Refund()
	p.metrics.RecordRefund(string(method.Kind()), outcome.Amount.InexactFloat64())

	p.publish(ctx, outcome)
	return outcome, nil
}

// Item is the result of one request in a batch
type Item struct {
	Request payment.Request  `json:"request"`
	Outcome *payment.Outcome `json:"outcome,omitempty"`
	Err     error            `json:"-"`
}

// Summary reports the result of a batch
type Summary struct {
	Items     []Item          `json:"items"`
	Processed int             `json:"processed"`
	Rejected  int             `json:"rejected"`
	Invalid   int             `json:"invalid"`
	Charged   decimal.Decimal `json:"charged"`
	Fees      decimal.Decimal `json:"fees"`
}

// Failed returns the number of requests that did not produce a charge
func (s Summary) Failed() int {
	return s.Rejected + s.Invalid
}

// ProcessBatch processes requests in order. A failing request never stops
// the batch. It returns early only if ctx is cancelled, with the items
// handled so far.
func (p *Processor) ProcessBatch(ctx context.Context, reqs []payment.Request) Summary {
	summary := Summary{
		Items:   make([]Item, 0, len(reqs)),
		Charged: decimal.Zero,
		Fees:    decimal.Zero,
	}

	for _, req := range reqs {
		if ctx.Err() != nil {
			p.logger.Warn("Batch cancelled", "remaining", len(reqs)-len(summary.Items))
			break
		}

		outcome, err := p.Process(ctx, req)
		summary.Items = append(summary.Items, Item{Request: req, Outcome: outcome, Err: err})

		switch {
		case outcome == nil:
			summary.Invalid++
		case outcome.Succeeded():
			summary.Processed++
			summary.Charged = summary.Charged.Add(outcome.Total)
			summary.Fees = summary.Fees.Add(outcome.Fee)
		default:
			summary.Rejected++
		}
	}

	p.logger.Info("Batch complete",
		"processed", summary.Processed,
		"rejected", summary.Rejected,
		"invalid", summary.Invalid,
		"charged", summary.Charged.StringFixed(2),
		"fees", summary.Fees.StringFixed(2),
	)

	return summary
}

// Ping checks the outcome publisher
func (p *Processor) Ping(ctx context.Context) error {
	return p.publisher.Ping(ctx)
}

// Close releases the outcome publisher
func (p *Processor) Close() {
	p.publisher.Close()
}

// publish is best-effort: a failed publish is logged and never changes the
// outcome of the payment.
func (p *Processor) publish(ctx context.Context, outcome *payment.Outcome) {
	if err := p.publisher.Publish(ctx, outcome); err != nil {
		p.logger.WithError(err).Warn("Failed to publish outcome", "id", outcome.ID)
		p.metrics.RecordError("processor", "publish", "PUBLISH_FAILED")
	}
}

// DefaultBatch returns the demonstration batch: one valid request per
// payment method.
func DefaultBatch() []payment.Request {
	return []payment.Request{
		{Method: string(payment.CreditCardKind), Identifier: "1234567898765432", Amount: 100.0},
		{Method: string(payment.PayPalKind), Identifier: "user@example.com", Amount: 150.0},
		{Method: string(payment.BankTransferKind), Identifier: "123456789", Amount: 200.0},
	}
}
