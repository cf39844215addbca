package eventbus

import (
	"context"
	"errors"
	"time"
)

// Default retry configuration constants.
const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0
)

// RetryConfig configures redelivery of a failed handler with exponential backoff.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     defaultMaxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
	}
}

// run calls fn until it succeeds, the retries are exhausted or ctx ends.
// onFailure sees every failed attempt, the first one is attempt 0.
func (c RetryConfig) run(ctx context.Context, fn func() error, onFailure func(attempt int, err error)) error {
	var err error
	backoff := c.InitialBackoff

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(err, ctx.Err())
			case <-timer.C:
			}
			backoff = c.next(backoff)
		}

		if err = fn(); err == nil {
			return nil
		}
		if onFailure != nil {
			onFailure(attempt, err)
		}
	}
	return err
}

func (c RetryConfig) next(backoff time.Duration) time.Duration {
	next := time.Duration(float64(backoff) * c.BackoffFactor)
	if c.MaxBackoff > 0 && next > c.MaxBackoff {
		return c.MaxBackoff
	}
	return next
}
