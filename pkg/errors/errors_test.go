package errors

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := &Error{
		Domain:    PaymentDomain,
		Operation: OpProcessPayment,
		Code:      PaymentErrInvalidEmail,
		Message:   "invalid email: bad-email",
	}

	want := "[payment.ProcessPayment] Code=PAYMENT_INVALID_EMAIL: invalid email: bad-email"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorFormatWithOriginal(t *testing.T) {
	err := NewAPIError(APIErrBadRequest, "malformed body", fmt.Errorf("unexpected EOF"))
	if got := err.Error(); !strings.HasSuffix(got, "malformed body: unexpected EOF") {
		t.Fatalf("Error() = %q", got)
	}
}

func TestPaymentErrorClassification(t *testing.T) {
	err := PaymentErrorf(PaymentErrInvalidAccountNumber, "invalid account number: %s", "12345")

	if !IsPaymentError(err) {
		t.Fatal("expected a payment error")
	}
	if !IsPaymentErrorCode(err, PaymentErrInvalidAccountNumber) {
		t.Fatal("expected PAYMENT_INVALID_ACCOUNT_NUMBER")
	}
	if IsPaymentErrorCode(err, PaymentErrInvalidAmount) {
		t.Fatal("unexpected code match")
	}

	wrapped := fmt.Errorf("batch item 2: %w", err)
	if !IsPaymentError(wrapped) || CodeOf(wrapped) != PaymentErrInvalidAccountNumber {
		t.Fatal("classification must survive wrapping")
	}
	if MessageOf(wrapped) != "invalid account number: 12345" {
		t.Fatalf("MessageOf() = %q", MessageOf(wrapped))
	}
	if IsPaymentError(New("plain")) {
		t.Fatal("plain error is not a payment error")
	}
}

func TestWrapDoesNotMutateOriginal(t *testing.T) {
	orig := NewPaymentError(PaymentErrInvalidAmount, "insufficient funds for transaction: 0")

	withOp := WrapWithOperation(orig, OpProcessPayment)
	withField := WrapWithField(withOp, "method", "CreditCard")

	var base, field *Error
	As(orig, &base)
	As(withField, &field)

	if base.Operation != "" || base.Fields != nil {
		t.Fatal("original error was mutated")
	}
	if field.Operation != OpProcessPayment || field.Fields["method"] != "CreditCard" {
		t.Fatalf("unexpected wrapped error: %+v", field)
	}
	if WrapWithOperation(nil, OpRefund) != nil {
		t.Fatal("wrapping nil must return nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewPaymentError(PaymentErrInvalidCardNumber, "x"), http.StatusUnprocessableEntity},
		{"unknown method", NewPaymentError(PaymentErrUnknownMethod, "x"), http.StatusBadRequest},
		{"bad request", NewAPIError(APIErrBadRequest, "x", nil), http.StatusBadRequest},
		{"forbidden", NewAPIError(APIErrForbidden, "x", nil), http.StatusForbidden},
		{"unauthorized", WrapWithOperation(NewAPIError(APIErrUnauthorized, "x", nil), OpAuthorize), http.StatusUnauthorized},
		{"rate limited", NewAPIError(APIErrRateLimitExceeded, "x", nil), http.StatusTooManyRequests},
		{"plain", New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
