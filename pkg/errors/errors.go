// Package errors defines the error taxonomy for the routing layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents different classes of errors.
type ErrorCode string

const (
	// Routing errors — recovered inside the core, converted into
	// "try next option" signals and never surfaced as hard failures.
	ErrNoProviderAvailable ErrorCode = "NO_PROVIDER_AVAILABLE"
	ErrEmptyResponse       ErrorCode = "EMPTY_RESPONSE"
	ErrCircuitOpen         ErrorCode = "CIRCUIT_OPEN"
	ErrAllProvidersFailed  ErrorCode = "ALL_PROVIDERS_FAILED"

	// Provider errors
	ErrProviderError   ErrorCode = "PROVIDER_ERROR"
	ErrProviderTimeout ErrorCode = "PROVIDER_TIMEOUT"

	// Request validation errors
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"

	// Authentication errors
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrExpiredToken ErrorCode = "EXPIRED_TOKEN"

	// Internal errors
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrDatabaseError  ErrorCode = "DATABASE_ERROR"
	ErrRedisError     ErrorCode = "REDIS_ERROR"
)

// RouterError is the error type carried across the routing layer.
type RouterError struct {
	Code           ErrorCode `json:"code"`
	Message        string    `json:"message"`
	Details        string    `json:"details,omitempty"`
	HTTPStatusCode int       `json:"-"`
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors.Is match any RouterError carrying the same code, so
// sentinel instances below work as comparison targets for wrapped errors.
func (e *RouterError) Is(target error) bool {
	var re *RouterError
	if !errors.As(target, &re) {
		return false
	}
	return e.Code == re.Code
}

// New creates a new router error.
func New(code ErrorCode, message string) *RouterError {
	return &RouterError{
		Code:           code,
		Message:        message,
		HTTPStatusCode: httpStatusCode(code),
	}
}

// NewWithDetails creates a new router error with details.
func NewWithDetails(code ErrorCode, message, details string) *RouterError {
	return &RouterError{
		Code:           code,
		Message:        message,
		Details:        details,
		HTTPStatusCode: httpStatusCode(code),
	}
}

// httpStatusCode maps error codes to HTTP status codes for the glue layer.
func httpStatusCode(code ErrorCode) int {
	switch code {
	case ErrUnauthorized, ErrExpiredToken:
		return http.StatusUnauthorized
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrNoProviderAvailable, ErrAllProvidersFailed, ErrCircuitOpen:
		return http.StatusServiceUnavailable
	case ErrProviderTimeout:
		return http.StatusGatewayTimeout
	case ErrEmptyResponse, ErrProviderError, ErrInternalServer, ErrDatabaseError, ErrRedisError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel instances. NoProviderAvailable, EmptyResponse and CircuitOpen are
// consumed inside Router/Orchestrator; only AllProvidersFailed reaches callers,
// as the explicit absence-of-result signal.
var (
	NoProviderAvailable = New(ErrNoProviderAvailable, "no provider available")
	EmptyResponse       = New(ErrEmptyResponse, "provider returned no response")
	CircuitOpen         = New(ErrCircuitOpen, "circuit breaker is open")
	AllProvidersFailed  = New(ErrAllProvidersFailed, "all providers failed")
)
