// Package retry implements the bounded retry policy shared by the listing
// fetcher, the content extractor and the classifier call sites.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
)

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	sleep       func(context.Context, time.Duration) error
}

func NewPolicy(maxAttempts int, baseDelay time.Duration) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		sleep:       sleepContext,
	}
}

// Do runs op up to MaxAttempts times, doubling the delay between attempts.
// The returned error wraps the last failure. Context cancellation stops the
// loop immediately.
func (p *Policy) Do(ctx context.Context, label string, op func(context.Context) error) error {
	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < p.MaxAttempts {
			slog.Debug("Operation failed, retrying",
				"op", label,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr)

			if err := p.sleep(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", label, p.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
