package courier

import (
	"fmt"
	"net/http"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithDefaults seeds the process-wide default configuration. Equivalent to
// calling Configure(cfg) on the constructed client.
func WithDefaults(cfg *Config) Option {
	return func(c *Client) {
		c.defaults.Set(cfg)
	}
}

// WithBaseURL sets the default base URL relative request URLs resolve against.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.defaults.Set(&Config{BaseURL: baseURL})
	}
}

// WithAdapter sets the default transport adapter.
func WithAdapter(adapter Adapter) Option {
	return func(c *Client) {
		c.adapter = adapter
	}
}

// WithHTTPClient sets the default adapter to an HTTPAdapter over client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.adapter = NewHTTPAdapter(client)
	}
}

// WithStore sets the default cache store used by the Cache and Idempotent
// features when neither the feature nor the per-call config names one.
func WithStore(store Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithDebug enables debug logging with the current debug configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithRequestIDGenerator sets a custom correlation id generator.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// validateConfiguration checks the constructed client and the seeded
// defaults. Malformed per-call configs are the caller's responsibility;
// validation here covers only what the client itself owns.
func (c *Client) validateConfiguration() error {
	var problems []string

	problems = append(problems, c.validateDebugConfig()...)
	problems = append(problems, c.validateDefaultRetry()...)

	if len(problems) > 0 {
		return &RequestError{
			Type:    ErrorTypeValidation,
			Message: "client configuration invalid",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}
	return nil
}

func (c *Client) validateDebugConfig() []string {
	var problems []string
	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			problems = append(problems, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			problems = append(problems, "logger must be set when debug is enabled")
		}
	}
	return problems
}

func (c *Client) validateDefaultRetry() []string {
	var problems []string
	retry := c.defaults.Get().Retry
	if retry == nil {
		return problems
	}
	if retry.Count < 0 {
		problems = append(problems, "retry count must be non-negative")
	}
	if retry.Delay < 0 {
		problems = append(problems, "retry delay must be non-negative")
	}
	if retry.MaxDelay != 0 && retry.MaxDelay < retry.Delay {
		problems = append(problems, "retry maxDelay must be at least the base delay")
	}
	if retry.Budget < 0 {
		problems = append(problems, "retry budget must be non-negative")
	}
	switch retry.Strategy {
	case "", BackoffFixed, BackoffLinear, BackoffExponential:
	default:
		problems = append(problems, fmt.Sprintf("unknown backoff strategy %q", retry.Strategy))
	}
	return problems
}
