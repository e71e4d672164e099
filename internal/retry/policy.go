// Package retry holds the bounded retry policies used around HTTP calls.
package retry

import (
	"context"
	"time"
)

// Policy describes how many times an operation may be retried and how long
// to wait between attempts. Delays grow by Multiplier from BaseDelay and are
// capped at MaxDelay.
type Policy struct {
	// MaxRetries counts retries after the first attempt.
	MaxRetries int `yaml:"maxRetries"`
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration `yaml:"baseDelay"`
	// MaxDelay caps a single wait, including server-provided hints.
	MaxDelay time.Duration `yaml:"maxDelay"`
	// Multiplier grows the delay per retry; values below 1 mean a fixed delay.
	Multiplier float64 `yaml:"multiplier"`
	// MaxElapsed caps the total time spent waiting. Zero disables the cap.
	MaxElapsed time.Duration `yaml:"maxElapsed"`
}

// Delay returns the wait before retry number n (1-based). A positive hint,
// such as a Retry-After header, replaces the computed delay.
func (p Policy) Delay(n int, hint time.Duration) time.Duration {
	if hint > 0 {
		return p.capped(hint)
	}

	delay := p.BaseDelay
	if p.Multiplier > 1 {
		for i := 1; i < n; i++ {
			delay = time.Duration(float64(delay) * p.Multiplier)
			if p.MaxDelay > 0 && delay >= p.MaxDelay {
				break
			}
		}
	}
	return p.capped(delay)
}

func (p Policy) capped(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	if d < 0 {
		return 0
	}
	return d
}

// Budget tracks retries spent against a Policy.
// The zero value is not usable; build one with NewBudget.
type Budget struct {
	policy  Policy
	retries int
	waited  time.Duration
}

// NewBudget starts an empty budget for the policy.
func NewBudget(p Policy) *Budget {
	return &Budget{policy: p}
}

// Next reserves another retry and returns how long to wait first.
// It returns false once MaxRetries or MaxElapsed would be exceeded.
func (b *Budget) Next(hint time.Duration) (time.Duration, bool) {
	if b.retries >= b.policy.MaxRetries {
		return 0, false
	}

	delay := b.policy.Delay(b.retries+1, hint)
	if b.policy.MaxElapsed > 0 && b.waited+delay > b.policy.MaxElapsed {
		return 0, false
	}

	b.retries++
	b.waited += delay
	return delay, true
}

// Retries returns how many retries were granted so far.
func (b *Budget) Retries() int {
	return b.retries
}

// Sleeper waits for a duration unless the context ends first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a real timer.
type TimerSleeper struct{}

// Sleep blocks for d or until ctx is done.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
