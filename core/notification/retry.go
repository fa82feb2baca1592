package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/certsmith/pkg/logger"
)

const (
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
)

// RetryNotifier decorates a Notifier with fixed-delay retries. Validation
// and authentication errors are terminal; everything else is assumed
// transient and retried up to the attempt budget.
type RetryNotifier struct {
	next     Notifier
	log      *slog.Logger
	attempts int
	delay    time.Duration
}

// RetryOption configures a RetryNotifier.
type RetryOption func(*RetryNotifier)

// WithRetryLogger sets the logger. Defaults to slog.Default().
func WithRetryLogger(log *slog.Logger) RetryOption {
	return func(r *RetryNotifier) {
		if log != nil {
			r.log = log
		}
	}
}

// WithAttempts overrides the attempt budget.
func WithAttempts(n int) RetryOption {
	return func(r *RetryNotifier) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithDelay overrides the pause between attempts.
func WithDelay(d time.Duration) RetryOption {
	return func(r *RetryNotifier) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// NewRetryNotifier wraps next with retry behavior.
func NewRetryNotifier(next Notifier, opts ...RetryOption) *RetryNotifier {
	r := &RetryNotifier{
		next:     next,
		log:      slog.Default(),
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Send delivers the message, retrying transient failures.
func (r *RetryNotifier) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		lastErr = r.next.Send(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrAuthFailed) || errors.Is(lastErr, ErrInvalidMessage) {
			return lastErr
		}

		r.log.WarnContext(ctx, "notification delivery failed",
			logger.RetryCount(attempt),
			logger.Error(lastErr),
		)

		if attempt == r.attempts {
			break
		}
		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return errors.Join(ErrSendFailed, lastErr)
}
