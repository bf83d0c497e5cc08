package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retrier runs op until it succeeds, the attempt budget is spent, or ctx is
// done. It returns the last error on exhaustion.
type Retrier interface {
	Do(ctx context.Context, op func(ctx context.Context) error) error
}

// FixedBackoff retries MaxRetries more times after the first attempt,
// sleeping Delay between attempts.
type FixedBackoff struct {
	MaxRetries int
	Delay      time.Duration
}

// Do implements Retrier.
func (f FixedBackoff) Do(ctx context.Context, op func(ctx context.Context) error) error {
	tries := f.MaxRetries + 1
	if tries < 1 {
		tries = 1
	}
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, op(ctx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(f.Delay)),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("completion attempt failed, retrying",
				"attempt", attempt,
				"max_attempts", tries,
				"retry_in", next,
				"error", err,
			)
		}),
	)
	return err
}

// NoRetry runs op once.
type NoRetry struct{}

// Do implements Retrier.
func (NoRetry) Do(ctx context.Context, op func(ctx context.Context) error) error {
	return op(ctx)
}
