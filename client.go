package courier

import (
	"context"
)

// Client orchestrates request execution. It owns the process-wide default
// configuration, the default transport adapter and cache store, the pending
// request registry used for idempotency, and the observability surface.
// Safe for concurrent use.
type Client struct {
	defaults *ConfigStore
	adapter  Adapter
	store    Store
	metrics  *MetricsCollector
	logger   Logger
	debug    *DebugConfig
	pending  *pendingRegistry

	validationError error
}

// New constructs a Client from functional options. A best effort validation
// is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		defaults: NewConfigStore(),
		adapter:  NewHTTPAdapter(nil),
		store:    nil,
		metrics:  nil,
		logger:   nil,
		debug:    DefaultDebugConfig(),
		pending:  newPendingRegistry(),
	}

	for _, option := range options {
		option(client)
	}
	if client.debug == nil {
		client.debug = DefaultDebugConfig()
	}

	if err := client.validateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// Configure deep-merges partial into the process-wide defaults. Subsequent
// sends inherit the merged values unless their per-call config overrides
// them.
func (c *Client) Configure(partial *Config) {
	c.defaults.Set(partial)
}

// ResetConfig clears the process-wide defaults.
func (c *Client) ResetConfig() {
	c.defaults.Reset()
}

// Defaults exposes the injectable default-configuration store.
func (c *Client) Defaults() *ConfigStore {
	return c.defaults
}

// NewRequest builds a per-call orchestrator around cfg. The config is cloned:
// callers may reuse or mutate their copy freely afterwards.
func (c *Client) NewRequest(cfg *Config) *Request {
	return &Request{client: c, config: cfg.Clone()}
}

// Send is shorthand for NewRequest(cfg).Send(ctx).
func (c *Client) Send(ctx context.Context, cfg *Config) (*Response, error) {
	return c.NewRequest(cfg).Send(ctx)
}

// composePipeline applies the feature decorators in their fixed order:
// idempotency innermost, then cache. Idempotency must see the true underlying
// call; if cache wrapped the inner position instead, concurrent duplicate
// calls would each miss the cache independently and both execute. Retry is
// applied by Send around the whole pipeline.
func (c *Client) composePipeline(base Operation, cfg *Config, method, endpoint string) Operation {
	op := base
	if cfg.Idempotent != nil {
		op = c.withIdempotent(op, cfg.Idempotent, c.resolveStore(cfg.Idempotent, cfg), method, endpoint)
	}
	if cfg.Cache != nil {
		op = c.withCache(op, cfg.Cache, c.resolveStore(cfg.Cache, cfg), method, endpoint)
	}
	return op
}

// resolveStore picks the store for a feature: feature-level, then
// config-level, then the client default.
func (c *Client) resolveStore(fc *CacheConfig, cfg *Config) Store {
	if fc.Store != nil {
		return fc.Store
	}
	if cfg.Store != nil {
		return cfg.Store
	}
	return c.store
}

func (c *Client) debugLog(flag bool, msg string, keysAndValues ...any) {
	if c.debug == nil || !c.debug.Enabled || !flag || c.logger == nil {
		return
	}
	c.logger.Debug(msg, keysAndValues...)
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}
