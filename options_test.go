package courier

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewClientIsValidByDefault(t *testing.T) {
	client := New()
	if !client.IsValid() {
		t.Fatalf("default client must validate, got %v", client.ValidationError())
	}
	if client.adapter == nil {
		t.Error("default client must carry an HTTP adapter")
	}
}

func TestValidationDebugWithoutLogger(t *testing.T) {
	client := New(WithDebug())
	if client.IsValid() {
		t.Fatal("debug without a logger must fail validation")
	}
	var reqErr *RequestError
	if !errors.As(client.ValidationError(), &reqErr) || reqErr.Type != ErrorTypeValidation {
		t.Errorf("expected validation-typed error, got %v", client.ValidationError())
	}
}

func TestValidationDebugWithLoggerPasses(t *testing.T) {
	client := New(WithSimpleLogger())
	if !client.IsValid() {
		t.Fatalf("debug with a logger must validate, got %v", client.ValidationError())
	}
}

func TestValidationDefaultRetry(t *testing.T) {
	tests := []struct {
		name    string
		retry   *RetryConfig
		valid   bool
		problem string
	}{
		{"sane", &RetryConfig{Count: 3, Delay: 100 * time.Millisecond, Strategy: BackoffExponential}, true, ""},
		{"negative count", &RetryConfig{Count: -1}, false, "count"},
		{"negative delay", &RetryConfig{Delay: -time.Second}, false, "delay"},
		{"max below base", &RetryConfig{Delay: time.Second, MaxDelay: time.Millisecond}, false, "maxDelay"},
		{"negative budget", &RetryConfig{Budget: -time.Second}, false, "budget"},
		{"unknown strategy", &RetryConfig{Strategy: "fibonacci"}, false, "strategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(WithDefaults(&Config{Retry: tt.retry}))
			if tt.valid {
				if !client.IsValid() {
					t.Fatalf("expected valid, got %v", client.ValidationError())
				}
				return
			}
			if client.IsValid() {
				t.Fatal("expected validation failure")
			}
			if msg := client.ValidationError().Error(); !strings.Contains(msg, tt.problem) {
				t.Errorf("error %q does not mention %q", msg, tt.problem)
			}
		})
	}
}

func TestWithBaseURLSeedsDefaults(t *testing.T) {
	client := New(WithBaseURL("https://api.example.com"))
	if got := client.Defaults().Get().BaseURL; got != "https://api.example.com" {
		t.Errorf("BaseURL = %q", got)
	}
}

func TestConfigureAndReset(t *testing.T) {
	client := New()
	client.Configure(&Config{Headers: map[string]string{"X-A": "1"}})
	client.Configure(&Config{Headers: map[string]string{"X-B": "2"}})

	headers := client.Defaults().Get().Headers
	if headers["X-A"] != "1" || headers["X-B"] != "2" {
		t.Errorf("incremental configure must accumulate, got %v", headers)
	}

	client.ResetConfig()
	if got := client.Defaults().Get().Headers; len(got) != 0 {
		t.Errorf("reset must clear defaults, got %v", got)
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	client := New(
		WithSimpleLogger(),
		WithRequestIDGenerator(func() string { return "fixed-id" }),
	)
	if got := client.debug.RequestIDGen(); got != "fixed-id" {
		t.Errorf("generator = %q", got)
	}
}
