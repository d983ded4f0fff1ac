package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies provider failures for retry and reporting decisions.
type ErrorKind string

const (
	ErrTimeout        ErrorKind = "timeout"
	ErrAuthFailure    ErrorKind = "auth_failure"
	ErrRateLimited    ErrorKind = "rate_limited"
	ErrTransportError ErrorKind = "transport_error"
)

// ProviderError wraps a model-layer failure with its classification.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Status   int // HTTP status when applicable, 0 otherwise
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a classified provider error.
func NewProviderError(kind ErrorKind, provider string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

// KindOf returns the classification of err, or "" when err is not a
// provider error.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether a failed call is worth another attempt.
// Rate limits and transport faults are transient; auth failures are not,
// and timeouts are surfaced to the caller rather than silently retried.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrRateLimited, ErrTransportError:
		return true
	default:
		return false
	}
}

// classifyHTTPStatus maps a non-2xx response to an error kind.
func classifyHTTPStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailure
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrTimeout
	default:
		return ErrTransportError
	}
}

// classifyTransportErr maps a transport-level failure to an error kind.
func classifyTransportErr(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrTransportError
}
