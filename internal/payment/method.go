// internal/payment/method.go
package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
)

// State tracks where a payment instance is in its lifecycle
type State string

const (
	// Unprocessed is the state of a freshly constructed payment
	Unprocessed State = "UNPROCESSED"
	// StateProcessed follows a successful ProcessPayment
	StateProcessed State = "PROCESSED"
	// StateRejected follows a failed ProcessPayment
	StateRejected State = "REJECTED"
)

// Method is the capability set shared by every payment variant
type Method interface {
	// Kind returns the payment method
	Kind() Kind
	// Amount returns the amount before fees
	Amount() decimal.Decimal
	// Destination returns the variant-specific identifier
	Destination() string
	// State returns the lifecycle state
	State() State

	// ProcessPayment validates the payment and charges amount plus fee.
	// Failures are logged once and returned as payment errors.
	ProcessPayment() (*Outcome, error)
	// Refund logs a refund of the stored amount. It performs no validation.
	Refund() *Outcome

	// LogTransaction writes a transaction entry tagged with the variant name
	LogTransaction(message string)
	// LogError writes an error entry tagged with the variant name
	LogError(err error)
}

// base carries the state common to every variant. Variants embed it and
// supply their identifier rule.
type base struct {
	kind   Kind
	amount decimal.Decimal
	state  State
	logger *logging.Logger
}

func newBase(kind Kind, amount decimal.Decimal, logger *logging.Logger) base {
	if logger == nil {
		logger = logging.Discard()
	}
	return base{
		kind:   kind,
		amount: amount,
		state:  Unprocessed,
		logger: logger.WithField("method", kind.Name()),
	}
}

func (b *base) Kind() Kind              { return b.kind }
func (b *base) Amount() decimal.Decimal { return b.amount }
func (b *base) State() State            { return b.state }

func (b *base) LogTransaction(message string) {
	b.logger.Info(message)
}

func (b *base) LogError(err error) {
	if err == nil {
		return
	}
	b.logger.Error(errors.MessageOf(err), "code", errors.CodeOf(err))
}

// Charge returns the fee and total for amount at the given kind's rate
func Charge(kind Kind, amount decimal.Decimal) (fee, total decimal.Decimal) {
	fee = amount.Mul(kind.FeeRate())
	return fee, amount.Add(fee)
}

// process runs the validation flow shared by all variants. The identifier
// rule runs before the amount rule, so its failure is the one reported.
func (b *base) process(m Method, checkIdentifier func() error, describe func(total decimal.Decimal) string) (*Outcome, error) {
	if b.state != Unprocessed {
		err := errors.PaymentErrorf(errors.PaymentErrAlreadyProcessed,
			"payment to %s is already %s", m.Destination(), b.state)
		b.LogError(err)
		return nil, b.wrap(err)
	}

	fee, total := Charge(b.kind, b.amount)

	err := checkIdentifier()
	if err == nil && !b.amount.IsPositive() {
		err = errors.PaymentErrorf(errors.PaymentErrInvalidAmount,
			"insufficient funds for transaction: %s", b.amount.String())
	}
	if err != nil {
		b.LogError(err)
		b.state = StateRejected
		return nil, b.wrap(err)
	}

	message := describe(total)
	b.LogTransaction(message)
	b.state = StateProcessed

	o := newOutcome(m, Processed, message)
	o.Fee = fee
	o.Total = total
	return o, nil
}

// wrap tags a processing failure with the operation and method name
func (b *base) wrap(err error) error {
	return errors.WrapWithField(errors.WrapWithOperation(err, errors.OpProcessPayment), "method", b.kind.Name())
}

// refund logs and records a refund of the stored amount
func (b *base) refund(m Method, describe string) *Outcome {
	message := fmt.Sprintf("refund of %s %s completed", b.amount.StringFixed(2), describe)
	b.LogTransaction(message)

	o := newOutcome(m, Refunded, message)
	o.Total = b.amount
	return o
}
