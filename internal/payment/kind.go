// internal/payment/kind.go
package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/pkg/errors"
)

// Kind identifies a payment method
type Kind string

const (
	// CreditCardKind charges a 16-character card number
	CreditCardKind Kind = "credit_card"
	// PayPalKind charges a PayPal account identified by email
	PayPalKind Kind = "paypal"
	// BankTransferKind charges a 9-character bank account number
	BankTransferKind Kind = "bank_transfer"
)

// Kinds lists every supported payment method
var Kinds = []Kind{CreditCardKind, PayPalKind, BankTransferKind}

var feeRates = map[Kind]decimal.Decimal{
	CreditCardKind:   decimal.RequireFromString("0.02"),
	PayPalKind:       decimal.RequireFromString("0.03"),
	BankTransferKind: decimal.RequireFromString("0.01"),
}

var names = map[Kind]string{
	CreditCardKind:   "CreditCard",
	PayPalKind:       "PayPal",
	BankTransferKind: "BankTransfer",
}

// Name returns the display name used to tag log entries
func (k Kind) Name() string {
	if name, ok := names[k]; ok {
		return name
	}
	return string(k)
}

// FeeRate returns the fixed surcharge applied to the amount
func (k Kind) FeeRate() decimal.Decimal {
	return feeRates[k]
}

// Valid reports whether k is a supported payment method
func (k Kind) Valid() bool {
	_, ok := feeRates[k]
	return ok
}

// ParseKind resolves a method name. Both the wire form ("credit_card") and
// the display name ("CreditCard") are accepted, case-insensitively.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for _, k := range Kinds {
		if norm == strings.ReplaceAll(string(k), "_", "") {
			return k, nil
		}
	}
	return "", errors.PaymentErrorf(errors.PaymentErrUnknownMethod, "unknown payment method: %q", s)
}
