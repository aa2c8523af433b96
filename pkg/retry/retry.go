// Package retry runs best-effort operations with a bounded, linearly growing backoff.
package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy describes how many extra attempts are made and how long to wait
// between them. The wait before retry n (1-based) is n * BaseDelay.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Outcome reports what happened to a retried operation.
type Outcome struct {
	Attempts int
	Err      error
}

// Succeeded is true when the last attempt returned no error.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// ErrPermanent marks an error that should not be retried.
var ErrPermanent = errors.New("permanent failure")

// Linear returns a go-retry backoff yielding base, 2*base, 3*base, ...
func Linear(base time.Duration) goretry.Backoff {
	var n int64
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		step := atomic.AddInt64(&n, 1)
		return time.Duration(step) * base, false
	})
}

// Do calls op until it succeeds, returns an error wrapping ErrPermanent,
// the retry budget is spent, or ctx is done.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) Outcome {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := goretry.WithMaxRetries(uint64(maxRetries), Linear(p.BaseDelay))

	attempts := 0
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := op(ctx); err != nil {
			if errors.Is(err, ErrPermanent) {
				return err
			}
			return goretry.RetryableError(err)
		}
		return nil
	})

	return Outcome{Attempts: attempts, Err: err}
}
