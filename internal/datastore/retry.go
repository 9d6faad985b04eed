package datastore

import (
	"context"
	"math/rand"
	"time"

	"github.com/bobmcallan/pkgjobs/internal/interfaces"
)

// RetryConfig bounds the optimistic-transaction retry harness (spec.md
// §4.1: "retries up to N times with bounded exponential backoff and
// jitter on a conflict, and propagates any other error immediately").
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	JitterFraction float64
}

// DefaultRetryConfig matches the cadence described in spec.md §4.1: a
// handful of attempts, starting small, capped well under a second of
// total wall time so a hot key doesn't stall a worker's whole loop.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialDelay:   10 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.2,
	}
}

// RetryTx runs fn inside ds.RunTx, retrying the whole transaction body
// when the commit fails with a conflict (datastore.IsConflict) and
// propagating any other error untouched. fn may be invoked more than
// once; it must not have side effects outside the Tx it's given.
func RetryTx(ctx context.Context, ds interfaces.Datastore, cfg RetryConfig, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = ds.RunTx(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if !IsConflict(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxRetries {
			break
		}
		if err := sleepWithJitter(ctx, delay, cfg.JitterFraction); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}

func sleepWithJitter(ctx context.Context, d time.Duration, jitterFraction float64) error {
	jitter := time.Duration(float64(d) * jitterFraction * rand.Float64())
	timer := time.NewTimer(d + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
