// Package memstore is a thread-safe in-memory [store.ChallengeStore].
// It backs engine tests and DB-less local runs; records do not survive a
// restart.
package memstore

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/spellrush/spellrush/internal/store"
)

// tokenSpace is the number of possible 4-digit tokens.
const tokenSpace = 10000

// Compile-time interface check.
var _ store.ChallengeStore = (*Store)(nil)

// Store is an in-memory challenge store. All methods are safe for concurrent
// use.
type Store struct {
	mu         sync.RWMutex
	challenges map[string]*record
	results    []store.Result
	now        func() time.Time
	rng        *rand.Rand
}

type record struct {
	words     []string
	score     *int
	createdAt time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithClock overrides the time source. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSeed makes token generation deterministic.
func WithSeed(seed int64) Option {
	return func(s *Store) { s.rng = rand.New(rand.NewSource(seed)) }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		challenges: make(map[string]*record),
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GenerateToken reserves a random free 4-digit token. The store mutex is the
// serialization point, so the returned token is unique among all existing
// records at call time.
func (s *Store) GenerateToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	free := tokenSpace - len(s.challenges)
	if free <= 0 {
		return "", store.ErrTokensExhausted
	}

	// Pick the n-th free token; counting free slots keeps this exact even
	// when nearly the whole space is reserved.
	n := s.rng.Intn(free)
	for v := 0; v < tokenSpace; v++ {
		token := fmt.Sprintf("%04d", v)
		if _, taken := s.challenges[token]; taken {
			continue
		}
		if n == 0 {
			s.challenges[token] = &record{createdAt: s.now()}
			return token, nil
		}
		n--
	}
	return "", store.ErrTokensExhausted
}

// AppendWord implements [store.ChallengeStore].
func (s *Store) AppendWord(ctx context.Context, token, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.challenges[token]
	if !ok {
		return store.ErrNotFound
	}
	rec.words = append(rec.words, word)
	return nil
}

// Finalize implements [store.ChallengeStore].
func (s *Store) Finalize(ctx context.Context, token string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.challenges[token]
	if !ok {
		return store.ErrNotFound
	}
	if rec.score != nil {
		return fmt.Errorf("memstore: challenge %s already finalized", token)
	}
	rec.score = &score
	return nil
}

// Fetch implements [store.ChallengeStore].
func (s *Store) Fetch(ctx context.Context, token string) (store.ChallengeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.challenges[token]
	if !ok {
		return store.ChallengeRecord{}, store.ErrNotFound
	}

	out := store.ChallengeRecord{
		Token:     token,
		Words:     append([]string(nil), rec.words...),
		CreatedAt: rec.createdAt,
	}
	if rec.score != nil {
		v := *rec.score
		out.Score = &v
	}
	return out, nil
}

// SaveResult implements [store.ChallengeStore].
func (s *Store) SaveResult(ctx context.Context, res store.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.FinishedAt.IsZero() {
		res.FinishedAt = s.now()
	}
	res.Words = append([]string(nil), res.Words...)
	s.results = append(s.results, res)
	return nil
}

// Leaderboard returns today's best score per player, descending, capped at
// ten entries.
func (s *Store) Leaderboard(ctx context.Context, scope store.Scope) ([]store.LeaderboardEntry, error) {
	if scope != store.ScopeToday {
		return nil, fmt.Errorf("memstore: unsupported leaderboard scope %q", scope)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	best := make(map[string]int)
	for _, res := range s.results {
		if res.FinishedAt.Before(dayStart) {
			continue
		}
		if cur, ok := best[res.Player]; !ok || res.Score > cur {
			best[res.Player] = res.Score
		}
	}

	entries := make([]store.LeaderboardEntry, 0, len(best))
	for player, score := range best {
		entries = append(entries, store.LeaderboardEntry{Player: player, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Player < entries[j].Player
	})
	if len(entries) > 10 {
		entries = entries[:10]
	}
	return entries, nil
}

// Ping implements [store.ChallengeStore]; the in-memory store is always
// reachable.
func (s *Store) Ping(ctx context.Context) error { return nil }
