package model

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// RetryPolicy describes the backoff schedule wrapped around generation
// calls whose output must parse into a particular shape.
//
// The default preserves the historical behavior of this pipeline: retry
// forever with an exponentially growing delay. That is deliberate but
// risky — a permanently failing upstream (an invalid API key, say) spins
// until the context is cancelled — so MaxElapsedTime exists to bound it.
// Callers wanting a cap set MaxElapsedTime (or cancel the context).
type RetryPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration // zero means retry indefinitely
}

// DefaultRetryPolicy mirrors the original schedule: 1s initial, doubling,
// no elapsed-time cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     2 * time.Minute,
	}
}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = p.MaxElapsedTime
	b.RandomizationFactor = 0
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// retry runs op under the policy until it succeeds, the schedule is
// exhausted, or ctx is cancelled.
func (p RetryPolicy) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(op, p.backoff(ctx))
}
