// internal/payment/request.go
package payment

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/cmatc13/tender/pkg/errors"
	"github.com/cmatc13/tender/pkg/logging"
)

// Request is the wire form of a payment request
type Request struct {
	Method     string  `json:"method"`
	Identifier string  `json:"identifier"`
	Amount     float64 `json:"amount"`
}

// New builds the payment variant named by req. It fails only when the
// request cannot describe a payment at all; business rules are checked by
// ProcessPayment.
func New(req Request, logger *logging.Logger) (Method, error) {
	kind, err := ParseKind(req.Method)
	if err != nil {
		return nil, errors.WrapWithOperation(err, errors.OpNewPayment)
	}

	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		err := errors.PaymentErrorf(errors.PaymentErrInvalidAmount, "amount is not a number: %v", req.Amount)
		return nil, errors.WrapWithOperation(err, errors.OpNewPayment)
	}
	amount := decimal.NewFromFloat(req.Amount)

	switch kind {
	case CreditCardKind:
		return NewCreditCard(req.Identifier, amount, logger), nil
	case PayPalKind:
		return NewPayPal(req.Identifier, amount, logger), nil
	default:
		return NewBankTransfer(req.Identifier, amount, logger), nil
	}
}
