package courier

import (
	"sync"
	"time"
)

// BackoffStrategy selects how retry delays grow with the retry index.
type BackoffStrategy string

const (
	// BackoffFixed waits Delay before every retry.
	BackoffFixed BackoffStrategy = "fixed"
	// BackoffLinear waits Delay * (retry+1).
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential waits Delay * 2^retry.
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryConfig configures the retry engine for a single request.
type RetryConfig struct {
	// Count is the number of retries after the initial attempt. Zero means
	// exactly one invocation.
	Count int

	// Delay is the base delay fed into the backoff strategy.
	Delay time.Duration

	// Strategy selects the backoff curve. Empty defaults to BackoffFixed.
	Strategy BackoffStrategy

	// MaxDelay caps the computed delay when > 0.
	MaxDelay time.Duration

	// ShouldRetry, when set, is consulted before every retry with the last
	// error and the retry index (0 for the first retry). Returning false
	// stops immediately and surfaces the last error.
	ShouldRetry func(err error, retry int) bool

	// Budget is a total wall-clock bound across all attempts and delays.
	// Exceeding it raises ErrRetryBudgetExceeded instead of the last error.
	// Zero disables the budget.
	Budget time.Duration
}

// CacheConfig configures result memoization under a key. The same shape is
// used for the Idempotent feature, which additionally collapses concurrent
// calls sharing the key onto one execution.
type CacheConfig struct {
	// Key identifies the cached result.
	Key string

	// TTL bounds how long a stored result is served. Zero means the entry
	// never expires; negative means it is stored but immediately expired.
	TTL time.Duration

	// Store overrides the store used for this feature. Nil falls back to the
	// config-level and then client-level store.
	Store Store
}

// Hooks observed across a request lifecycle. A nil hook is skipped.
type (
	// BeforeHook may rewrite the effective configuration. Returning nil keeps
	// the current configuration.
	BeforeHook func(cfg *Config) *Config
	// SuccessHook observes the response before it is returned to the caller.
	SuccessHook func(resp *Response)
	// ErrorHook observes terminal non-cancellation failures.
	ErrorHook func(err error)
	// FinallyHook runs exactly once per Send, on every outcome.
	FinallyHook func()
)

// Config describes one logical request. The zero value of a field means
// "unset": it never overrides a default during merging. Headers and Params
// distinguish nil (unset) from an empty non-nil map (explicit clear).
type Config struct {
	URL     string
	Method  string
	BaseURL string
	Headers map[string]string
	Params  map[string]string
	Body    any
	Timeout time.Duration

	// Adapter performs the actual transport call. Replaced whole during
	// merging, never combined.
	Adapter Adapter

	// Store is the default cache store for the Cache and Idempotent features.
	Store Store

	Retry      *RetryConfig
	Cache      *CacheConfig
	Idempotent *CacheConfig

	OnBefore  BeforeHook
	OnSuccess SuccessHook
	OnError   ErrorHook
	OnFinally FinallyHook
}

// Clone returns a copy with Headers/Params deep-copied. Adapter, Store and
// the sub-configuration pointers are copied by identity.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Headers = cloneStringMap(c.Headers)
	out.Params = cloneStringMap(c.Params)
	return &out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge deep-merges override on top of defaults and returns the effective
// configuration. Either argument may be nil. Merging never fails.
//
// Rules:
//   - scalar fields: the override value wins whenever it is set (non-zero)
//   - Headers/Params: nil leaves the default, a non-nil empty map replaces it
//     (explicit clear), a non-empty map is merged key-wise with override
//     winning on conflict
//   - hooks: a non-nil override replaces the default outright; hooks are
//     never combined, combining would double-invoke side effects
//   - Adapter/Store references and Retry/Cache/Idempotent sub-configs are
//     replaced whole, never merged field-wise
func Merge(defaults, override *Config) *Config {
	if defaults == nil {
		return override.Clone()
	}
	out := defaults.Clone()
	if override == nil {
		return out
	}

	if override.URL != "" {
		out.URL = override.URL
	}
	if override.Method != "" {
		out.Method = override.Method
	}
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.Body != nil {
		out.Body = override.Body
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}

	out.Headers = mergeStringMap(out.Headers, override.Headers)
	out.Params = mergeStringMap(out.Params, override.Params)

	if override.Adapter != nil {
		out.Adapter = override.Adapter
	}
	if override.Store != nil {
		out.Store = override.Store
	}
	if override.Retry != nil {
		out.Retry = override.Retry
	}
	if override.Cache != nil {
		out.Cache = override.Cache
	}
	if override.Idempotent != nil {
		out.Idempotent = override.Idempotent
	}

	if override.OnBefore != nil {
		out.OnBefore = override.OnBefore
	}
	if override.OnSuccess != nil {
		out.OnSuccess = override.OnSuccess
	}
	if override.OnError != nil {
		out.OnError = override.OnError
	}
	if override.OnFinally != nil {
		out.OnFinally = override.OnFinally
	}

	return out
}

func mergeStringMap(base, override map[string]string) map[string]string {
	if override == nil {
		return base
	}
	if len(override) == 0 {
		// Present but empty signals explicit clearing.
		return map[string]string{}
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// ConfigStore holds the process-wide default configuration. It is an explicit
// object rather than package state so tests can isolate defaults without
// reset hooks. Safe for concurrent use.
type ConfigStore struct {
	mu       sync.RWMutex
	defaults *Config
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{defaults: &Config{}}
}

// Set deep-merges partial into the current defaults.
func (s *ConfigStore) Set(partial *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = Merge(s.defaults, partial)
}

// Get returns a snapshot of the current defaults. Mutating the snapshot does
// not affect the store.
func (s *ConfigStore) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults.Clone()
}

// Reset clears the defaults.
func (s *ConfigStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = &Config{}
}
