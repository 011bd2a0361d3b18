package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryConfig bounds a provider call: one timeout per attempt and a single
// retry after a fixed backoff. Word and challenge providers are chat-turn
// latency budgets, not batch jobs — if two attempts fail the turn is
// surfaced to the player as "try again" rather than waited out.
type RetryConfig struct {
	// Name labels the call in logs.
	Name string

	// Timeout bounds each attempt. Default: 5s.
	Timeout time.Duration

	// Backoff is the pause before the retry attempt. Default: 250ms.
	Backoff time.Duration
}

// withDefaults fills zero fields.
func (c RetryConfig) withDefaults() RetryConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Backoff <= 0 {
		c.Backoff = 250 * time.Millisecond
	}
	return c
}

// Do runs fn with a per-attempt timeout and retries once on a transient
// failure. Context cancellation of the parent ctx is never retried.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithResult is [Do] for calls that return a value.
func DoWithResult[R any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (R, error)) (R, error) {
	cfg = cfg.withDefaults()

	var zero R
	attempt := func() (R, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		return fn(attemptCtx)
	}

	res, err := attempt()
	if err == nil {
		return res, nil
	}
	if !Transient(err) || ctx.Err() != nil {
		return zero, err
	}

	slog.Debug("retrying after transient failure",
		"name", cfg.Name, "backoff", cfg.Backoff, "error", err)

	select {
	case <-time.After(cfg.Backoff):
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	res, err = attempt()
	if err != nil {
		return zero, err
	}
	return res, nil
}

// Transient reports whether err is worth a retry: attempt timeouts and
// temporary network conditions are; context cancellation from above,
// not-found lookups, and everything carrying [Permanent] are not.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// A deadline error is transient only when it came from the per-attempt
	// timeout rather than the caller's context; callers that hit their own
	// deadline see ctx.Err() checked in DoWithResult.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var tmp interface{ Temporary() bool }
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	// Unclassified errors default to transient: one cheap retry against a
	// flaky provider beats failing the player's turn.
	return true
}

// permanentError marks an error as not worth retrying.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so [Transient] reports false for it. Stores use it for
// semantic failures such as unknown tokens.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
