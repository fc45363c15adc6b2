package genai

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

const (
	maxAttempts = 5
	baseDelay   = time.Second
	maxJitter   = time.Second
)

// sleepFunc and jitterFunc are injectable for tests.
type sleepFunc func(ctx context.Context, d time.Duration) error
type jitterFunc func() time.Duration

// RetryingGenerator wraps a Generator with exponential backoff.
// Attempt n (from 0) waits 2^n seconds plus up to a second of jitter
// before retrying; after maxAttempts failures the last error is
// returned.
type RetryingGenerator struct {
	inner  Generator
	logger *slog.Logger
	sleep  sleepFunc
	jitter jitterFunc
}

// NewRetryingGenerator wraps inner with the standard retry policy.
func NewRetryingGenerator(inner Generator, logger *slog.Logger) *RetryingGenerator {
	return &RetryingGenerator{
		inner:  inner,
		logger: logger,
		sleep:  sleepContext,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(maxJitter)))
		},
	}
}

// Generate implements Generator with retries.
func (r *RetryingGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay<<(attempt-1) + r.jitter()
			r.logger.Debug("retrying generation",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay))
			if err := r.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		result, err := r.inner.Generate(ctx, systemPrompt, userPrompt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		r.logger.Warn("generation attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}

	return "", lastErr
}

// sleepContext sleeps for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
