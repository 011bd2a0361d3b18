package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when no entry in a [FallbackGroup] could serve the
// call, whether by failing or by having a tripped breaker.
var ErrAllFailed = errors.New("resilience: all providers in the chain failed")

// FallbackConfig configures the breaker each chain entry is guarded by.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type chainEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup chains a primary provider with ordered fallbacks of the same
// type, each behind its own [CircuitBreaker]. The quiz uses it to put
// template sentences behind the LLM sentence provider: a call walks the
// chain until an entry answers, skipping entries whose breaker is open.
//
// FallbackGroup is safe for concurrent use once assembled; AddFallback is
// not safe to race with Execute.
type FallbackGroup[T any] struct {
	entries []chainEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup starts a chain with primary as its first entry.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.add(primaryName, primary)
	return fg
}

// AddFallback appends a provider to the end of the chain.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	fg.add(name, fallback)
}

func (fg *FallbackGroup[T]) add(name string, value T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.entries = append(fg.entries, chainEntry[T]{
		name:    name,
		value:   value,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Execute walks the chain until fn succeeds against an entry. When every
// entry fails, the returned error wraps [ErrAllFailed] around the last
// failure.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult walks the chain until fn succeeds against an entry and
// returns its result. A package-level function because methods cannot carry
// their own type parameter.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range fg.entries {
		entry := &fg.entries[i]

		var result R
		err := entry.breaker.Execute(func() error {
			var callErr error
			result, callErr = fn(entry.value)
			return callErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("chain entry skipped, breaker open", "provider", entry.name)
		} else {
			slog.Warn("chain entry failed, trying next",
				"provider", entry.name, "error", err)
		}
	}

	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
