// internal/payment/outcome.go
package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/pkg/errors"
)

// Status is the result recorded in an Outcome
type Status string

const (
	// Processed payments were charged amount plus fee
	Processed Status = "PROCESSED"
	// Rejected payments failed validation and charged nothing
	Rejected Status = "REJECTED"
	// Refunded outcomes record a refund of the stored amount
	Refunded Status = "REFUNDED"
)

// Outcome is the transaction record produced by processing or refunding a
// payment. It is reported, never persisted.
type Outcome struct {
	ID          string          `json:"id"`
	Method      Kind            `json:"method"`
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Total       decimal.Decimal `json:"total"`
	Status      Status          `json:"status"`
	Message     string          `json:"message"`
	Code        string          `json:"code,omitempty"`
	Timestamp   int64           `json:"timestamp"`
}

func newOutcome(m Method, status Status, message string) *Outcome {
	return &Outcome{
		ID:          uuid.New().String(),
		Method:      m.Kind(),
		Destination: m.Destination(),
		Amount:      m.Amount(),
		Fee:         decimal.Zero,
		Total:       decimal.Zero,
		Status:      status,
		Message:     message,
		Timestamp:   time.Now().Unix(),
	}
}

// RejectedOutcome builds the failure record for a payment whose processing
// returned err.
func RejectedOutcome(m Method, err error) *Outcome {
	o := newOutcome(m, Rejected, errors.MessageOf(err))
	o.Code = errors.CodeOf(err)
	return o
}

// Succeeded reports whether the outcome is a processed payment
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Status == Processed
}
