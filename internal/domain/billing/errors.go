package billing

import (
	"errors"
	"fmt"
)

// Error codes returned by the billing engine's upgrade endpoints. The
// set is closed; anything else is treated as unknown by the translator.
const (
	ErrCodeCardTokenRequired   = "CARD_TOKEN_REQUIRED"
	ErrCodeNoSubscription      = "NO_SUBSCRIPTION"
	ErrCodePlanNotFound        = "PLAN_NOT_FOUND"
	ErrCodeNotAnUpgrade        = "NOT_AN_UPGRADE"
	ErrCodeMPSubscriptionError = "MP_SUBSCRIPTION_ERROR"
)

// GatewayError is a structured error from the billing engine or payment
// gateway, carrying the raw machine code for the error translator.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway error: %s", e.Code)
	}
	return fmt.Sprintf("gateway error: %s: %s", e.Code, e.Message)
}

// NewGatewayError creates a GatewayError from a parsed error envelope.
func NewGatewayError(code, message string, statusCode int) *GatewayError {
	return &GatewayError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// AsGatewayError extracts a GatewayError from an error chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
