package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/spellrush/spellrush/internal/resilience"
	"github.com/spellrush/spellrush/internal/store"
)

// ChallengeCoordinator wraps the challenge store with the engine's retry
// policy and owns the token/word/score sub-protocol of two-player games: the
// host reserves a token and appends each served word; the guest replays the
// recorded sequence and compares scores at the end.
type ChallengeCoordinator struct {
	store store.ChallengeStore
	retry resilience.RetryConfig
}

// NewChallengeCoordinator creates a coordinator over st.
func NewChallengeCoordinator(st store.ChallengeStore, retry resilience.RetryConfig) *ChallengeCoordinator {
	retry.Name = "challenge-store"
	return &ChallengeCoordinator{store: st, retry: retry}
}

// Create reserves a fresh challenge token for a host.
func (c *ChallengeCoordinator) Create(ctx context.Context) (string, error) {
	token, err := resilience.DoWithResult(ctx, c.retry, c.store.GenerateToken)
	if err != nil {
		return "", fmt.Errorf("game: create challenge: %w", err)
	}
	return token, nil
}

// Append records a word the host was served, keeping the shared sequence in
// step with the host's rounds.
func (c *ChallengeCoordinator) Append(ctx context.Context, token, word string) error {
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.store.AppendWord(ctx, token, word)
	})
	if err != nil {
		return fmt.Errorf("game: append word to %s: %w", token, err)
	}
	return nil
}

// Finalize writes the host's final score exactly once.
func (c *ChallengeCoordinator) Finalize(ctx context.Context, token string, score int) error {
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.store.Finalize(ctx, token, score)
	})
	if err != nil {
		return fmt.Errorf("game: finalize %s: %w", token, err)
	}
	return nil
}

// Fetch reads the challenge record for token. An unknown token surfaces as
// [store.ErrNotFound] without a retry — the token is wrong, not the network.
func (c *ChallengeCoordinator) Fetch(ctx context.Context, token string) (store.ChallengeRecord, error) {
	return resilience.DoWithResult(ctx, c.retry, func(ctx context.Context) (store.ChallengeRecord, error) {
		rec, err := c.store.Fetch(ctx, token)
		if errors.Is(err, store.ErrNotFound) {
			return rec, resilience.Permanent(err)
		}
		return rec, err
	})
}

// GuestWord returns the word at the guest's current position, or false when
// the host's recorded sequence is exhausted. A guest run is always bounded by
// how far the host has played.
func GuestWord(rec store.ChallengeRecord, turn int) (string, bool) {
	if turn < 0 || turn >= len(rec.Words) {
		return "", false
	}
	return rec.Words[turn], true
}

// Outcome maps a guest's score against the host's to a message key and its
// arguments. A missing host score is "pending", never rendered as zero.
func Outcome(score int, opponent *int) (key string, args []any) {
	if opponent == nil {
		return "challenge_result_pending", []any{score}
	}
	switch {
	case score > *opponent:
		return "challenge_result_win", []any{score, *opponent}
	case score < *opponent:
		return "challenge_result_loss", []any{score, *opponent}
	default:
		return "challenge_result_draw", []any{score}
	}
}
