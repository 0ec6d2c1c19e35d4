// internal/payment/creditcard.go
package payment

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
)

// CardNumberLength is the required card number length in characters
const CardNumberLength = 16

// CreditCard is a payment charged to a card number
type CreditCard struct {
	base
	cardNumber string
}

// NewCreditCard creates a credit card payment
func NewCreditCard(cardNumber string, amount decimal.Decimal, logger *logging.Logger) *CreditCard {
	return &CreditCard{
		base:       newBase(CreditCardKind, amount, logger),
		cardNumber: cardNumber,
	}
}

// Destination returns the card number
func (c *CreditCard) Destination() string {
	return c.cardNumber
}

// ProcessPayment charges the card
func (c *CreditCard) ProcessPayment() (*Outcome, error) {
	return c.process(c, c.validate, func(total decimal.Decimal) string {
		return fmt.Sprintf("payment of %s from card %s completed successfully", total.StringFixed(2), c.cardNumber)
	})
}

// Refund refunds the stored amount to the card
func (c *CreditCard) Refund() *Outcome {
	return c.refund(c, "to card "+c.cardNumber)
}

func (c *CreditCard) validate() error {
	if utf8.RuneCountInString(c.cardNumber) != CardNumberLength {
		return errors.PaymentErrorf(errors.PaymentErrInvalidCardNumber, "invalid card number: %s", c.cardNumber)
	}
	return nil
}
