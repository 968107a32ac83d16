package courier

import (
	"context"
	"time"

	"github.com/kestrelhq/courier/internal/backoff"
)

// Operation is a zero-argument unit of work the retry engine can re-invoke.
type Operation func(ctx context.Context) (*Response, error)

func strategyFor(s BackoffStrategy) backoff.Strategy {
	switch s {
	case BackoffLinear:
		return backoff.Linear{}
	case BackoffExponential:
		return backoff.Exponential{}
	default:
		return backoff.Fixed{}
	}
}

// Retry executes op once unconditionally, then up to cfg.Count additional
// attempts. Between attempts it consults cfg.ShouldRetry (retry index starts
// at 0), computes the strategy delay clamped to cfg.MaxDelay, and enforces
// cfg.Budget as a total wall-clock bound.
//
// Budget checkpoints: the budget is evaluated at the top of every retry
// iteration, and again as a delay-vs-remaining comparison before sleeping.
// Both short-circuits surface a timeout-typed error rather than the last
// operation error. The final operation error is otherwise always returned
// unchanged.
func Retry(ctx context.Context, cfg *RetryConfig, op Operation) (*Response, error) {
	if cfg == nil {
		return op(ctx)
	}

	start := time.Now()
	calc := backoff.NewCalculator(strategyFor(cfg.Strategy), cfg.Delay, cfg.MaxDelay)

	resp, err := op(ctx)
	if err == nil {
		return resp, nil
	}
	lastErr := err

	for retry := 0; retry < cfg.Count; retry++ {
		if cfg.Budget > 0 && time.Since(start) >= cfg.Budget {
			return nil, budgetExceeded(cfg)
		}

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(lastErr, retry) {
			return nil, lastErr
		}

		delay := calc.Delay(retry)
		if cfg.Budget > 0 && delay > cfg.Budget-time.Since(start) {
			return nil, budgetExceeded(cfg)
		}

		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}

		resp, err = op(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func budgetExceeded(cfg *RetryConfig) error {
	return &RequestError{
		Type:      ErrorTypeTimeout,
		Message:   "retry budget exhausted",
		Code:      CodeRetryTimeout,
		Cause:     ErrRetryBudgetExceeded,
		Timestamp: time.Now(),
		Duration:  cfg.Budget,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
