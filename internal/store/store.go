// Package store defines the persistence contract for challenge records and
// the daily leaderboard. Implementations live in the postgres and memstore
// subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

// TokenLen is the exact length of a challenge token: four ASCII digits,
// zero-padded ("0000" through "9999"). The token is the one bit-exact
// contract in the system — it is exchanged out-of-band between two people.
const TokenLen = 4

// ErrNotFound is returned by [ChallengeStore.Fetch] when no challenge with
// the given token exists.
var ErrNotFound = errors.New("store: challenge not found")

// ErrTokensExhausted is returned by [ChallengeStore.GenerateToken] when all
// 10000 tokens are reserved.
var ErrTokensExhausted = errors.New("store: no free challenge tokens")

// ChallengeRecord is the shared state of one challenge, owned by the store
// and read by exactly two conversations via the token.
type ChallengeRecord struct {
	// Token is the 4-digit identifier.
	Token string

	// Words is the fixed word sequence the host committed to, in play order.
	// It grows append-only while the host plays and is immutable afterwards.
	Words []string

	// Score is the host's final score. Nil until the host finishes; never
	// rendered as zero while nil.
	Score *int

	// CreatedAt scopes the record for daily leaderboard queries.
	CreatedAt time.Time
}

// Result is a finished game persisted for the leaderboard.
type Result struct {
	// Player is the display name of the conversation that played.
	Player string

	// Score is the number of correct answers.
	Score int

	// Turns is the number of rounds played.
	Turns int

	// Token is the challenge token, empty for survival games.
	Token string

	// Words lists the words the player resolved, in order.
	Words []string

	// FinishedAt is when the game ended.
	FinishedAt time.Time
}

// LeaderboardEntry is one row of the leaderboard, best score first.
type LeaderboardEntry struct {
	Player string
	Score  int
}

// Scope restricts a leaderboard query.
type Scope string

// ScopeToday limits the leaderboard to games finished today (store-local
// time).
const ScopeToday Scope = "today"

// ChallengeStore persists challenge records and game results.
//
// Concurrency contract: Words grows append-only and Score is written exactly
// once, so a guest reading a shorter Words slice than the host's true
// progress is benign. GenerateToken is the serialization point for token
// uniqueness — implementations must pick a token that is free at call time
// and reserve it atomically.
type ChallengeStore interface {
	// GenerateToken reserves and returns a fresh unique 4-digit token.
	GenerateToken(ctx context.Context) (string, error)

	// AppendWord appends a word to the challenge's sequence.
	AppendWord(ctx context.Context, token, word string) error

	// Finalize records the host's final score. Finalizing twice is an error.
	Finalize(ctx context.Context, token string, score int) error

	// Fetch returns the challenge record for token, or [ErrNotFound].
	Fetch(ctx context.Context, token string) (ChallengeRecord, error)

	// SaveResult persists a finished game for the leaderboard.
	SaveResult(ctx context.Context, res Result) error

	// Leaderboard returns entries for the scope ordered by score descending.
	Leaderboard(ctx context.Context, scope Scope) ([]LeaderboardEntry, error)

	// Ping reports whether the store is reachable. Used by readiness checks.
	Ping(ctx context.Context) error
}

// ValidToken reports whether token is exactly four ASCII digits.
func ValidToken(token string) bool {
	if len(token) != TokenLen {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
