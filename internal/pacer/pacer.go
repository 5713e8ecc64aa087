// Package pacer enforces the fixed blocking delay placed in front of every
// outbound call to an upstream API.
package pacer

import (
	"context"
	"time"
)

// Pacer blocks before an outbound call.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Fixed waits the same duration on every call. It is not a token bucket:
// two consecutive calls are always at least Delay apart, plus call latency.
type Fixed struct {
	Delay time.Duration
}

// NewFixed returns a pacer that sleeps d before each call.
func NewFixed(d time.Duration) *Fixed {
	return &Fixed{Delay: d}
}

// Wait sleeps for the configured delay or until ctx is done.
func (f *Fixed) Wait(ctx context.Context) error {
	if f == nil || f.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Counting wraps a Pacer and records how many waits happened.
type Counting struct {
	Next  Pacer
	Waits int
}

// Wait counts the call and delegates to Next when set.
func (c *Counting) Wait(ctx context.Context) error {
	c.Waits++

	if c.Next == nil {
		return ctx.Err()
	}

	return c.Next.Wait(ctx)
}
