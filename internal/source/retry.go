package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retry runs an operation with exponential back-off
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *slog.Logger
}

// Do executes fn until it succeeds, the attempts run out or ctx is done.
// The delay doubles after every failed attempt.
func (r Retry) Do(ctx context.Context, operation string, fn func(context.Context) error) error {
	attempts := max(r.MaxAttempts, 1)
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	tried := 0
	delay := r.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		tried = attempt
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || ctx.Err() != nil {
			break
		}

		logger.WarnContext(ctx, "Retrying failed operation",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, tried, lastErr)
}
