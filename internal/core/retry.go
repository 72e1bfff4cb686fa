// Waboku.gg | 2026
// retry.go

package core

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig is the single retry policy used for calls to external
// dependencies. Call sites must not hand-roll their own backoff loops.
type RetryConfig struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetry = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BaseDelay
	b.MaxInterval = cfg.MaxDelay
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(b, cfg.MaxAttempts-1),
		ctx,
	)

	return backoff.Retry(op, policy)
}

// Permanent wraps an error so Retry stops immediately instead of
// re-attempting a call that can never succeed.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
