package courier

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error type constants used in RequestError.Type.
const (
	// ErrorTypeTransport marks an adapter-reported failure (network error or
	// an HTTP error status surfaced by the adapter).
	ErrorTypeTransport = "Transport"

	// ErrorTypeCanceled marks a user-initiated cancellation.
	ErrorTypeCanceled = "Canceled"

	// ErrorTypeTimeout marks an adapter timeout or an exhausted retry budget.
	ErrorTypeTimeout = "Timeout"

	// ErrorTypeUnknown wraps a failure that carries no recognizable shape.
	ErrorTypeUnknown = "Unknown"

	// ErrorTypeValidation marks invalid client configuration.
	ErrorTypeValidation = "Validation"
)

// Error codes carried in RequestError.Code.
const (
	CodeCanceled     = "ERR_CANCELED"
	CodeTimeout      = "ERR_TIMEOUT"
	CodeRetryTimeout = "ERR_RETRY_BUDGET"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrCanceled is returned when a request is canceled via Request.Cancel.
	ErrCanceled = errors.New("courier: request canceled")

	// ErrRetryBudgetExceeded is returned when the retry total-timeout budget
	// is exhausted before the operation succeeded.
	ErrRetryBudgetExceeded = errors.New("courier: retry budget exceeded")

	// ErrNoAdapter is returned from Send when neither the per-call config nor
	// the client provides a transport adapter.
	ErrNoAdapter = errors.New("courier: no adapter configured")
)

// RequestError is the error shape surfaced by Send. It carries the effective
// configuration that produced the failure so callers can always recover which
// request failed.
type RequestError struct {
	Type      string
	Message   string
	Code      string
	Status    int
	RequestID string
	Config    *Config
	Cause     error
	Timestamp time.Time
	Duration  time.Duration
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *RequestError) Is(target error) bool {
	if e == nil {
		return false
	}
	if target == ErrCanceled {
		return e.Type == ErrorTypeCanceled
	}
	if targetErr, ok := target.(*RequestError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// IsCancellation reports whether err represents a user-initiated cancel.
func IsCancellation(err error) bool {
	if errors.Is(err, ErrCanceled) {
		return true
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Type == ErrorTypeCanceled
}

// IsTimeout reports whether err represents a timeout, either raised by the
// transport adapter or by the retry engine's total budget.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrRetryBudgetExceeded) {
		return true
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Type == ErrorTypeTimeout
}

// IsTransient reports whether err might succeed on retry: transport failures,
// timeouts and 429/5xx statuses. Cancellation and validation errors are never
// transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Type {
		case ErrorTypeTimeout:
			return true
		case ErrorTypeTransport:
			return reqErr.Status == 0 || reqErr.Status == 429 || reqErr.Status >= 500
		default:
			return false
		}
	}
	return false
}

// wrapError normalizes any failure into a *RequestError, attaching cfg if the
// error does not already carry a configuration. An existing RequestError is
// shallow-copied before enrichment: a failing execution shared through the
// idempotency registry hands the same instance to every caller, and each
// caller enriches it with its own config, request id and duration.
func wrapError(err error, cfg *Config, requestID string) *RequestError {
	var shared *RequestError
	if errors.As(err, &shared) {
		reqErr := *shared
		if reqErr.Config == nil {
			reqErr.Config = cfg
		}
		if reqErr.RequestID == "" {
			reqErr.RequestID = requestID
		}
		return &reqErr
	}

	typ := ErrorTypeUnknown
	code := ""
	switch {
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		typ = ErrorTypeCanceled
		code = CodeCanceled
	case errors.Is(err, ErrRetryBudgetExceeded):
		typ = ErrorTypeTimeout
		code = CodeRetryTimeout
	case errors.Is(err, context.DeadlineExceeded):
		typ = ErrorTypeTimeout
		code = CodeTimeout
	}

	return &RequestError{
		Type:      typ,
		Message:   err.Error(),
		Code:      code,
		RequestID: requestID,
		Config:    cfg,
		Cause:     err,
		Timestamp: time.Now(),
	}
}
