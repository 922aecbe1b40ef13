// Package retry runs provider calls with bounded attempts and exponential
// backoff.
package retry

import (
	"context"
	"time"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Policy bounds the attempts of one call. Attempt k waits BaseDelay*2^(k-1)
// before attempt k+1.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay << (attempt - 1)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Operation is one attempt of the wrapped call.
type Operation func(ctx context.Context, attempt int) (string, error)

// Controller applies a Policy. It is safe for concurrent use.
type Controller struct {
	policy Policy
	sleep  SleepFunc
	logger *zap.Logger
}

type Option func(*Controller)

// WithSleep replaces the blocking wait, mostly for tests.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Controller) {
		c.sleep = sleep
	}
}

func NewController(policy Policy, logger *zap.Logger, opts ...Option) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay < 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		policy: policy,
		sleep:  sleepContext,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Policy() Policy {
	return c.policy
}

// Do runs op until it succeeds, fails with a non-retriable error, or the
// attempts are exhausted. It returns the number of attempts made and, on
// failure, the last error.
func (c *Controller) Do(ctx context.Context, op Operation) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		c.logger.Debug("Calling provider", zap.Int("attempt", attempt), zap.Int("max_attempts", c.policy.MaxAttempts))

		out, err := op(ctx, attempt)
		if err == nil {
			return out, attempt, nil
		}
		lastErr = err

		if !domain.IsRetriable(err) {
			c.logger.Error("Non-retriable provider error, giving up",
				zap.Int("attempt", attempt),
				zap.String("kind", string(domain.ProviderErrorKindOf(err))),
				zap.Error(err))
			return "", attempt, err
		}

		if attempt == c.policy.MaxAttempts {
			c.logger.Error("All attempts failed", zap.Int("attempts", attempt), zap.Error(err))
			return "", attempt, err
		}

		delay := c.policy.Delay(attempt)
		c.logger.Warn("Provider attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("kind", string(domain.ProviderErrorKindOf(err))),
			zap.Duration("delay", delay),
			zap.Error(err))

		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return "", attempt, lastErr
		}
	}
	return "", c.policy.MaxAttempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
