// internal/payment/banktransfer.go
package payment

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
)

// AccountNumberLength is the required account number length in characters
const AccountNumberLength = 9

// BankTransfer is a payment sent to a bank account
type BankTransfer struct {
	base
	accountNumber string
}

// NewBankTransfer creates a bank transfer payment
func NewBankTransfer(accountNumber string, amount decimal.Decimal, logger *logging.Logger) *BankTransfer {
	return &BankTransfer{
		base:          newBase(BankTransferKind, amount, logger),
		accountNumber: accountNumber,
	}
}

// Destination returns the account number
func (b *BankTransfer) Destination() string {
	return b.accountNumber
}

// ProcessPayment sends the transfer
func (b *BankTransfer) ProcessPayment() (*Outcome, error) {
	return b.process(b, b.validate, func(total decimal.Decimal) string {
		return fmt.Sprintf("payment of %s to account %s completed successfully", total.StringFixed(2), b.accountNumber)
	})
}

// Refund refunds the stored amount to the account
func (b *BankTransfer) Refund() *Outcome {
	return b.refund(b, "to account "+b.accountNumber)
}

func (b *BankTransfer) validate() error {
	if utf8.RuneCountInString(b.accountNumber) != AccountNumberLength {
		return errors.PaymentErrorf(errors.PaymentErrInvalidAccountNumber, "invalid account number: %s", b.accountNumber)
	}
	return nil
}
