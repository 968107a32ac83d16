// Package courier is an HTTP request orchestration layer. It wraps a pluggable
// transport adapter and composes cross-cutting behaviors around a single
// logical "send" operation:
//
//   - Configuration inheritance (process-wide defaults deep-merged with per-call config)
//   - Retries with pluggable backoff strategies and a total wall-clock budget
//   - Response caching behind a swappable Store (in-memory LRU+TTL, Redis)
//   - Request idempotency: concurrent and TTL-bounded duplicate calls collapse
//     onto one underlying execution
//   - Parallel and serial batch execution with aggregate lifecycle hooks
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure the client, plain
//     Config structs describe individual requests
//   - The decorator order (retry around cache around idempotency) is fixed
//     and built in one place, not by call-site convention
//   - Safe concurrent use of a single *Client instance
//   - Extensibility via user supplied Adapter and Store implementations
//
// Typical usage:
//
//	client := courier.New(
//	    courier.WithBaseURL("https://api.example.com"),
//	    courier.WithStore(courier.NewMemoryStore(1024)),
//	    courier.WithMetrics(),
//	)
//	resp, err := client.Send(ctx, &courier.Config{
//	    URL:   "/users/42",
//	    Retry: &courier.RetryConfig{Count: 3, Delay: 100 * time.Millisecond},
//	    Cache: &courier.CacheConfig{Key: "user:42", TTL: time.Minute},
//	})
//
// The library avoids opinionated logging: provide a Logger (e.g. via
// WithSimpleLogger or NewLogrusLogger) and enable debug flags selectively for
// insight without noise.
package courier
