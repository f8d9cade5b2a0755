package authkit

import (
	"context"
	"time"
)

// Defaults for bounded retries on token exchange.
const (
	defaultRetryCount    = 2
	defaultRetryDelay    = 500 * time.Millisecond
	defaultBackoffFactor = 2
)

// RetryOptions bounds a retried operation. ShouldRetry decides whether a
// failed attempt may be retried; nil retries every failure up to Retries.
type RetryOptions struct {
	Retries       int
	Delay         time.Duration
	BackoffFactor int
	ShouldRetry   func(err error, attempt int) bool
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.Retries <= 0 {
		o.Retries = defaultRetryCount
	}
	if o.Delay <= 0 {
		o.Delay = defaultRetryDelay
	}
	if o.BackoffFactor <= 0 {
		o.BackoffFactor = defaultBackoffFactor
	}
	return o
}

// retryWithBackoff runs op until it succeeds, the retry budget is spent, or
// the predicate refuses the failure. Delays grow by BackoffFactor per
// attempt and respect context cancellation.
func retryWithBackoff(ctx context.Context, opts RetryOptions, op func() error) error {
	opts = opts.withDefaults()

	delay := opts.Delay
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		allowed := attempt < opts.Retries && (opts.ShouldRetry == nil || opts.ShouldRetry(err, attempt))
		if !allowed {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		delay *= time.Duration(opts.BackoffFactor)
	}
}
