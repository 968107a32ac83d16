package backoff

import "time"

// Calculator binds a Strategy to the base delay and optional ceiling from a
// retry configuration.
type Calculator struct {
	strategy Strategy
	base     time.Duration
	max      time.Duration
}

// NewCalculator builds a calculator. A nil strategy defaults to Fixed.
func NewCalculator(strategy Strategy, base, max time.Duration) *Calculator {
	if strategy == nil {
		strategy = Fixed{}
	}
	return &Calculator{strategy: strategy, base: base, max: max}
}

// Delay returns the clamped delay for the given retry index.
func (c *Calculator) Delay(retry int) time.Duration {
	return Clamp(c.strategy.Delay(retry, c.base), c.max)
}
