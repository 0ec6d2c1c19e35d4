// pkg/errors/payment.go
package errors

import "fmt"

// Payment error codes
const (
	// PaymentErrInvalidAmount indicates a non-positive or non-finite amount
	PaymentErrInvalidAmount = "PAYMENT_INVALID_AMOUNT"
	// PaymentErrInvalidCardNumber indicates a card number of the wrong length
	PaymentErrInvalidCardNumber = "PAYMENT_INVALID_CARD_NUMBER"
	// PaymentErrInvalidEmail indicates a PayPal email without "@"
	PaymentErrInvalidEmail = "PAYMENT_INVALID_EMAIL"
	// PaymentErrInvalidAccountNumber indicates a bank account number of the wrong length
	PaymentErrInvalidAccountNumber = "PAYMENT_INVALID_ACCOUNT_NUMBER"
	// PaymentErrUnknownMethod indicates a request naming no known payment method
	PaymentErrUnknownMethod = "PAYMENT_UNKNOWN_METHOD"
	// PaymentErrAlreadyProcessed indicates a payment instance was processed twice
	PaymentErrAlreadyProcessed = "PAYMENT_ALREADY_PROCESSED"
)

// Payment domain name
const PaymentDomain = "payment"

// Payment operations
const (
	OpNewPayment     = "NewPayment"
	OpProcessPayment = "ProcessPayment"
	OpRefund         = "Refund"
)

// NewPaymentError creates a new payment error. It is the single error kind
// raised by payment validation.
func NewPaymentError(code string, message string) error {
	return &Error{
		Domain:  PaymentDomain,
		Code:    code,
		Message: message,
	}
}

// PaymentErrorf creates a new payment error with formatted message
func PaymentErrorf(code string, format string, args ...interface{}) error {
	return NewPaymentError(code, fmt.Sprintf(format, args...))
}

// IsPaymentError reports whether err is a payment error of any code
func IsPaymentError(err error) bool {
	var domainErr *Error
	if As(err, &domainErr) {
		return domainErr.Domain == PaymentDomain
	}
	return false
}

// IsPaymentErrorCode checks if an error is a payment error with the given code
func IsPaymentErrorCode(err error, code string) bool {
	var domainErr *Error
	if As(err, &domainErr) {
		return domainErr.Domain == PaymentDomain && domainErr.Code == code
	}
	return false
}
