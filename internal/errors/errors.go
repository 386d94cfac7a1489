package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound              = newSentinel(ErrCodeNotFound, "resource not found")
	ErrValidation            = newSentinel(ErrCodeValidation, "validation error")
	ErrInvalidOperation      = newSentinel(ErrCodeInvalidOperation, "invalid operation")
	ErrStateConflict         = newSentinel(ErrCodeStateConflict, "state conflict")
	ErrUnsupportedTransition = newSentinel(ErrCodeUnsupportedTransition, "unsupported transition")
	ErrGateway               = newSentinel(ErrCodeGateway, "payment gateway error")
	ErrHTTPClient            = newSentinel(ErrCodeHTTPClient, "http client error")
	ErrSystem                = newSentinel(ErrCodeSystemError, "system error")
	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrHTTPClient:            http.StatusInternalServerError,
		ErrNotFound:              http.StatusNotFound,
		ErrValidation:            http.StatusBadRequest,
		ErrInvalidOperation:      http.StatusBadRequest,
		ErrStateConflict:         http.StatusConflict,
		ErrUnsupportedTransition: http.StatusUnprocessableEntity,
		ErrGateway:               http.StatusBadGateway,
		ErrSystem:                http.StatusInternalServerError,
	}
)

const (
	ErrCodeHTTPClient            = "http_client_error"
	ErrCodeSystemError           = "system_error"
	ErrCodeNotFound              = "not_found"
	ErrCodeValidation            = "validation_error"
	ErrCodeInvalidOperation      = "invalid_operation"
	ErrCodeStateConflict         = "state_conflict"
	ErrCodeUnsupportedTransition = "unsupported_transition"
	ErrCodeGateway               = "gateway_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError with the given code and message
func New(code string, message string) *InternalError {
	return newSentinel(code, message)
}

func newSentinel(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsStateConflict checks if an error is a state conflict error
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrStateConflict)
}

// IsUnsupportedTransition checks if an error is an unsupported transition error
func IsUnsupportedTransition(err error) bool {
	return errors.Is(err, ErrUnsupportedTransition)
}

// IsGateway checks if an error is a payment gateway error
func IsGateway(err error) bool {
	return errors.Is(err, ErrGateway)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
