// pkg/errors/api.go
package errors

import "net/http"

// API error codes
const (
	// APIErrBadRequest indicates a malformed request body
	APIErrBadRequest = "API_BAD_REQUEST"
	// APIErrUnauthorized indicates a missing or invalid token
	APIErrUnauthorized = "API_UNAUTHORIZED"
	// APIErrForbidden indicates a token without the required role
	APIErrForbidden = "API_FORBIDDEN"
	// APIErrRateLimitExceeded indicates a rate limit was exceeded
	APIErrRateLimitExceeded = "API_RATE_LIMIT_EXCEEDED"
	// APIErrInternalServer indicates an internal server error
	APIErrInternalServer = "API_INTERNAL_SERVER"
)

// API domain name
const APIDomain = "api"

// API operations
const (
	OpParseRequestBody = "ParseRequestBody"
	OpAuthorize        = "Authorize"
)

// NewAPIError creates a new API error
func NewAPIError(code string, message string, err error) error {
	return &Error{
		Domain:   APIDomain,
		Code:     code,
		Message:  message,
		Original: err,
	}
}

// HTTPStatus returns the HTTP status code for a domain error.
// Payment validation failures map to 422, constructor failures to 400.
func HTTPStatus(err error) int {
	var domainErr *Error
	if !As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case APIErrBadRequest, PaymentErrUnknownMethod:
		return http.StatusBadRequest
	case APIErrUnauthorized:
		return http.StatusUnauthorized
	case APIErrForbidden:
		return http.StatusForbidden
	case APIErrRateLimitExceeded:
		return http.StatusTooManyRequests
	case PaymentErrInvalidAmount, PaymentErrInvalidCardNumber, PaymentErrInvalidEmail,
		PaymentErrInvalidAccountNumber, PaymentErrAlreadyProcessed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
