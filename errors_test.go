package courier

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRequestErrorMessageFormat(t *testing.T) {
	err := &RequestError{
		Type:      ErrorTypeTransport,
		Message:   "request failed",
		Status:    503,
		RequestID: "req-1",
		Cause:     errors.New("connection reset"),
	}
	msg := err.Error()
	for _, want := range []string{"Transport", "request failed", "status 503", "connection reset", "[req-1]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestRequestErrorUnwrapAndIs(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &RequestError{Type: ErrorTypeTransport, Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("Unwrap must reach the cause")
	}
	if !errors.Is(err, &RequestError{Type: ErrorTypeTransport}) {
		t.Error("errors matching by type must succeed")
	}
	if errors.Is(err, &RequestError{Type: ErrorTypeTimeout}) {
		t.Error("mismatched types must not match")
	}

	canceled := &RequestError{Type: ErrorTypeCanceled}
	if !errors.Is(canceled, ErrCanceled) {
		t.Error("canceled errors must match ErrCanceled")
	}
}

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		cancellation bool
		timeout      bool
		transient    bool
	}{
		{"canceled sentinel", ErrCanceled, true, false, false},
		{"canceled request error", &RequestError{Type: ErrorTypeCanceled}, true, false, false},
		{"budget sentinel", ErrRetryBudgetExceeded, false, true, false},
		{"timeout request error", &RequestError{Type: ErrorTypeTimeout}, false, true, true},
		{"network failure", &RequestError{Type: ErrorTypeTransport}, false, false, true},
		{"server error", &RequestError{Type: ErrorTypeTransport, Status: 503}, false, false, true},
		{"rate limited", &RequestError{Type: ErrorTypeTransport, Status: 429}, false, false, true},
		{"client error", &RequestError{Type: ErrorTypeTransport, Status: 404}, false, false, false},
		{"validation", &RequestError{Type: ErrorTypeValidation}, false, false, false},
		{"plain error", errors.New("whatever"), false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCancellation(tt.err); got != tt.cancellation {
				t.Errorf("IsCancellation = %v, want %v", got, tt.cancellation)
			}
			if got := IsTimeout(tt.err); got != tt.timeout {
				t.Errorf("IsTimeout = %v, want %v", got, tt.timeout)
			}
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v", got, tt.transient)
			}
		})
	}
}

func TestWrapErrorClassification(t *testing.T) {
	cfg := &Config{URL: "/x"}

	tests := []struct {
		name     string
		err      error
		wantType string
		wantCode string
	}{
		{"canceled sentinel", ErrCanceled, ErrorTypeCanceled, CodeCanceled},
		{"context canceled", context.Canceled, ErrorTypeCanceled, CodeCanceled},
		{"budget exhausted", ErrRetryBudgetExceeded, ErrorTypeTimeout, CodeRetryTimeout},
		{"deadline exceeded", context.DeadlineExceeded, ErrorTypeTimeout, CodeTimeout},
		{"anything else", errors.New("kaboom"), ErrorTypeUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapError(tt.err, cfg, "req-9")
			if wrapped.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", wrapped.Type, tt.wantType)
			}
			if wrapped.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", wrapped.Code, tt.wantCode)
			}
			if wrapped.Config != cfg || wrapped.RequestID != "req-9" {
				t.Error("wrapped error must carry config and request id")
			}
			if !errors.Is(wrapped, tt.err) {
				t.Error("cause must survive wrapping")
			}
		})
	}
}

func TestWrapErrorCopiesExistingRequestError(t *testing.T) {
	original := &RequestError{Type: ErrorTypeTransport, Message: "bad gateway", Status: 502}
	cfg := &Config{URL: "/x"}

	wrapped := wrapError(original, cfg, "req-1")
	if wrapped == original {
		t.Fatal("a possibly shared request error must be copied, not mutated in place")
	}
	if wrapped.Type != ErrorTypeTransport || wrapped.Status != 502 || wrapped.Message != "bad gateway" {
		t.Errorf("copy lost fields: %+v", wrapped)
	}
	if wrapped.Config != cfg {
		t.Error("missing config must be attached to the copy")
	}
	if wrapped.RequestID != "req-1" {
		t.Error("missing request id must be attached to the copy")
	}
	if original.Config != nil || original.RequestID != "" {
		t.Error("the original instance must stay untouched")
	}
}

func TestWrapErrorKeepsExistingConfigAndID(t *testing.T) {
	ownCfg := &Config{URL: "/own"}
	original := &RequestError{Type: ErrorTypeTransport, Config: ownCfg, RequestID: "req-own"}

	wrapped := wrapError(original, &Config{URL: "/other"}, "req-other")
	if wrapped.Config != ownCfg || wrapped.RequestID != "req-own" {
		t.Error("already-carried config and request id must win")
	}
}
