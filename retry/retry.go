// Package retry drives repeated request attempts under exponential backoff.
// Whether a failure is worth another attempt is decided by its llmerr
// category, never by the orchestrator itself.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"commitmsg/llmerr"
)

type Policy struct {
	// MaxRetries is the number of retry attempts after the initial one,
	// so the total attempt count is MaxRetries+1.
	MaxRetries int

	// BaseDelay is the wait before the first retry; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
	}
}

// Delay returns the backoff before the retry that follows failed attempt i:
// min(BaseDelay * 2^i, MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs attempt until it succeeds, fails with a non-retryable category, or
// the budget is exhausted. Exactly one attempt is in flight at a time, and
// intermediate retryable failures never escape the loop; they surface only
// through the attempt log. The terminal error is always the last observed
// failure.
func Do(ctx context.Context, p Policy, logger *zap.Logger, attempt func(context.Context) (string, error)) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}

	var lastErr error
	for i := 0; i <= p.MaxRetries; i++ {
		body, err := attempt(ctx)
		if err == nil {
			logger.Debug("attempt succeeded", zap.Int("attempt", i))
			return body, nil
		}
		lastErr = err

		category := llmerr.CategoryOf(err)
		if !category.Retryable() {
			logger.Debug("failure is not retryable",
				zap.Int("attempt", i),
				zap.Stringer("category", category),
				zap.Error(err))
			return "", err
		}
		if i == p.MaxRetries {
			break
		}

		delay := p.Delay(i)
		logger.Debug("retrying after backoff",
			zap.Int("attempt", i),
			zap.Stringer("category", category),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return "", llmerr.Classify(ctx.Err())
		case <-time.After(delay):
		}
	}

	logger.Debug("retry budget exhausted",
		zap.Int("attempts", p.MaxRetries+1),
		zap.Error(lastErr))
	return "", lastErr
}
