// internal/payment/paypal.go
package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
)

// PayPal is a payment charged to a PayPal account
type PayPal struct {
	base
	email string
}

// NewPayPal creates a PayPal payment
func NewPayPal(email string, amount decimal.Decimal, logger *logging.Logger) *PayPal {
	return &PayPal{
		base:  newBase(PayPalKind, amount, logger),
		email: email,
	}
}

// Destination returns the account email
func (p *PayPal) Destination() string {
	return p.email
}

// ProcessPayment charges the PayPal account
func (p *PayPal) ProcessPayment() (*Outcome, error) {
	return p.process(p, p.validate, func(total decimal.Decimal) string {
		return fmt.Sprintf("payment of %s via PayPal %s completed successfully", total.StringFixed(2), p.email)
	})
}

// Refund refunds the stored amount to the PayPal account
func (p *PayPal) Refund() *Outcome {
	return p.refund(p, "to PayPal "+p.email)
}

// validate only requires an "@"; full address syntax is not checked.
func (p *PayPal) validate() error {
	if !strings.Contains(p.email, "@") {
		return errors.PaymentErrorf(errors.PaymentErrInvalidEmail, "invalid email: %s", p.email)
	}
	return nil
}
