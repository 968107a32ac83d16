package courier

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Request is the per-call orchestrator. It merges configuration, resolves the
// adapter, composes the decorator pipeline and exposes cooperative
// cancellation. A Request may be reused for sequential sends; each Send
// resets the cancellation state.
type Request struct {
	client *Client
	config *Config

	canceled atomic.Bool

	mu         sync.Mutex
	cancelCh   chan struct{}
	cancelOnce *sync.Once
}

type sendOutcome struct {
	resp *Response
	err  error
}

// Cancel sets the cancellation flag and signals any in-flight Send. Safe to
// call before, during or after a send; after settlement it is a no-op for
// that call, but the flag stays set until the next Send resets it.
// Cancellation is cooperative: an in-flight transport call may still complete
// in the background, only the caller observes the cancellation early.
func (r *Request) Cancel() {
	r.canceled.Store(true)
	r.mu.Lock()
	once, ch := r.cancelOnce, r.cancelCh
	r.mu.Unlock()
	if once != nil && ch != nil {
		once.Do(func() { close(ch) })
	}
}

// Send executes the request: merge defaults, run OnBefore, compose the
// decorator pipeline, apply retry, and race the result against cancellation.
// Lifecycle hooks run per the fixed policy: OnSuccess on success, OnError on
// terminal non-cancellation failure, OnFinally exactly once on every outcome.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	r.mu.Lock()
	r.canceled.Store(false)
	cancelCh := make(chan struct{})
	r.cancelCh = cancelCh
	r.cancelOnce = &sync.Once{}
	r.mu.Unlock()

	start := time.Now()
	c := r.client

	cfg := Merge(c.defaults.Get(), r.config)

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	if cfg.OnBefore != nil {
		if next := cfg.OnBefore(cfg); next != nil {
			cfg = next
		}
	}

	method := cfg.Method
	if method == "" {
		method = "GET"
	}
	endpoint := endpointLabel(cfg)

	c.debugLog(c.debug.LogRequests, "Starting request",
		"requestID", requestID, "method", method, "endpoint", endpoint)

	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
		defer c.metrics.RecordRequestEnd(method, endpoint)
	}

	finallyDone := false
	runFinally := func() {
		if finallyDone {
			return
		}
		finallyDone = true
		if cfg.OnFinally != nil {
			cfg.OnFinally()
		}
	}
	defer runFinally()

	adapter := cfg.Adapter
	if adapter == nil {
		adapter = c.adapter
	}

	var result *Response
	var opErr error
	if adapter == nil {
		opErr = ErrNoAdapter
	} else {
		result, opErr = r.race(ctx, cancelCh, r.buildOperation(adapter, cfg, requestID, method, endpoint))
	}

	duration := time.Since(start)

	if opErr == nil {
		if c.metrics != nil {
			c.metrics.RecordRequest(method, endpoint, result.Status, duration)
		}
		c.debugLog(c.debug.LogRequests, "Request succeeded",
			"requestID", requestID, "status", result.Status, "duration", duration)
		if cfg.OnSuccess != nil {
			cfg.OnSuccess(result)
		}
		return result, nil
	}

	reqErr := wrapError(opErr, cfg, requestID)
	reqErr.Duration = duration

	if c.metrics != nil {
		c.metrics.RecordRequest(method, endpoint, reqErr.Status, duration)
		c.metrics.RecordError(reqErr.Type, method, endpoint)
	}

	if reqErr.Type == ErrorTypeCanceled {
		// Cancellation bypasses OnError; the deferred cleanup still runs
		// OnFinally exactly once.
		runFinally()
		c.debugLog(c.debug.LogRequests, "Request canceled", "requestID", requestID)
		return nil, reqErr
	}

	c.debugLog(c.debug.LogRequests, "Request failed",
		"requestID", requestID, "errorType", reqErr.Type, "error", reqErr.Message)
	if cfg.OnError != nil {
		cfg.OnError(reqErr)
	}
	return nil, reqErr
}

// buildOperation assembles the fully-decorated operation: the base transport
// thunk (which fails fast when already canceled), the idempotency and cache
// decorators, a retry-observation wrapper, and finally the retry engine.
func (r *Request) buildOperation(adapter Adapter, cfg *Config, requestID, method, endpoint string) Operation {
	c := r.client

	base := func(ctx context.Context) (*Response, error) {
		if r.canceled.Load() {
			return nil, cancellationError(cfg, requestID)
		}
		return adapter.Do(ctx, cfg)
	}

	op := c.composePipeline(base, cfg, method, endpoint)

	attempts := 0
	counted := func(ctx context.Context) (*Response, error) {
		attempts++
		if attempts > 1 {
			if c.metrics != nil {
				c.metrics.RecordRetry(method, endpoint)
			}
			c.debugLog(c.debug.LogRetries, "Retry attempt",
				"requestID", requestID, "attempt", attempts, "endpoint", endpoint)
		}
		return op(ctx)
	}

	if cfg.Retry == nil {
		return counted
	}
	return func(ctx context.Context) (*Response, error) {
		return Retry(ctx, cfg.Retry, counted)
	}
}

// race runs op in its own goroutine and returns whichever settles first: the
// operation, the cancellation signal, or the context. A losing operation may
// still settle in the background; its result is discarded.
func (r *Request) race(ctx context.Context, cancelCh <-chan struct{}, op Operation) (*Response, error) {
	outCh := make(chan sendOutcome, 1)
	go func() {
		resp, err := op(ctx)
		outCh <- sendOutcome{resp: resp, err: err}
	}()

	select {
	case out := <-outCh:
		return out.resp, out.err
	case <-cancelCh:
		return nil, ErrCanceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func cancellationError(cfg *Config, requestID string) *RequestError {
	return &RequestError{
		Type:      ErrorTypeCanceled,
		Message:   "request canceled",
		Code:      CodeCanceled,
		RequestID: requestID,
		Config:    cfg,
		Cause:     ErrCanceled,
		Timestamp: time.Now(),
	}
}

func endpointLabel(cfg *Config) string {
	u := cfg.URL
	if cfg.BaseURL != "" && !strings.Contains(u, "://") {
		u = strings.TrimSuffix(cfg.BaseURL, "/") + "/" + strings.TrimPrefix(u, "/")
	}
	if u == "" {
		return "unknown"
	}
	return u
}
