// Package backoff centralizes retry delay computation so the retry engine and
// tests share one implementation per strategy.
package backoff

import "time"

// Strategy maps a retry index (0 for the first retry) to a delay.
type Strategy interface {
	Delay(retry int, base time.Duration) time.Duration
}

// Fixed waits the base delay before every retry.
type Fixed struct{}

func (Fixed) Delay(_ int, base time.Duration) time.Duration {
	return base
}

// Linear waits base * (retry+1).
type Linear struct{}

func (Linear) Delay(retry int, base time.Duration) time.Duration {
	if retry < 0 {
		retry = 0
	}
	return base * time.Duration(retry+1)
}

// Exponential waits base * 2^retry.
type Exponential struct{}

func (Exponential) Delay(retry int, base time.Duration) time.Duration {
	if retry < 0 {
		retry = 0
	}
	// 2^62 overflows time.Duration regardless of base.
	if retry > 62 {
		retry = 62
	}
	d := base << uint(retry)
	if base > 0 && d < base {
		// Shifted past the int64 range.
		return 1<<63 - 1
	}
	return d
}

// Clamp caps d at max when max > 0.
func Clamp(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}
