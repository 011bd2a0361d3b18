// Package postgres implements [store.ChallengeStore] on PostgreSQL via
// pgx/v5.
//
// Challenge words live in a child table keyed by (token, position) rather
// than a JSON array so that the host's appends and the guest's reads never
// rewrite a shared value: the guest can only ever observe a prefix of the
// host's sequence, which is the benign race the protocol is designed around.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spellrush/spellrush/internal/store"
)

// Schema is the SQL DDL for the challenge tables. Execute it via
// [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS challenges (
    token      TEXT PRIMARY KEY CHECK (token ~ '^[0-9]{4}$'),
    score      INT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS challenge_words (
    token    TEXT NOT NULL REFERENCES challenges(token),
    position INT  NOT NULL,
    word     TEXT NOT NULL,
    PRIMARY KEY (token, position)
);

CREATE TABLE IF NOT EXISTS game_results (
    id          BIGSERIAL PRIMARY KEY,
    player      TEXT NOT NULL,
    score       INT  NOT NULL,
    turns       INT  NOT NULL,
    token       TEXT NOT NULL DEFAULT '',
    words       JSONB NOT NULL DEFAULT '[]',
    finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_game_results_finished ON game_results(finished_at);
`

// tokenSpace is the number of possible 4-digit tokens.
const tokenSpace = 10000

// generateAttempts bounds insert retries when another process reserves the
// same token between our free-token pick and the insert.
const generateAttempts = 5

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a [store.ChallengeStore] backed by PostgreSQL.
type Store struct {
	db DB
}

// Compile-time interface check.
var _ store.ChallengeStore = (*Store)(nil)

// New creates a Store using the given connection or pool. Call
// [Store.Migrate] before issuing queries.
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate executes the [Schema] DDL, creating the tables if they do not
// already exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// GenerateToken reserves a fresh 4-digit token. The free token is chosen
// uniformly among unreserved values by the database, so the store query is
// the serialization point; a concurrent reservation of the same value shows
// up as a unique violation and is retried with a fresh pick.
func (s *Store) GenerateToken(ctx context.Context) (string, error) {
	const pickQuery = `
		SELECT lpad(g::text, 4, '0') AS token
		FROM generate_series(0, $1::int - 1) g
		WHERE NOT EXISTS (
			SELECT 1 FROM challenges c WHERE c.token = lpad(g::text, 4, '0')
		)
		ORDER BY random()
		LIMIT 1`

	for attempt := 0; attempt < generateAttempts; attempt++ {
		var token string
		err := s.db.QueryRow(ctx, pickQuery, tokenSpace).Scan(&token)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrTokensExhausted
		}
		if err != nil {
			return "", fmt.Errorf("store: pick token: %w", err)
		}

		_, err = s.db.Exec(ctx, `INSERT INTO challenges (token) VALUES ($1)`, token)
		if err == nil {
			return token, nil
		}
		if !isUniqueViolation(err) {
			return "", fmt.Errorf("store: reserve token: %w", err)
		}
		// Lost the race for this value; pick again.
	}
	return "", fmt.Errorf("store: generate token: gave up after %d collisions", generateAttempts)
}

// AppendWord appends word at the next free position of the challenge's
// sequence.
func (s *Store) AppendWord(ctx context.Context, token, word string) error {
	const query = `
		INSERT INTO challenge_words (token, position, word)
		SELECT $1, COALESCE(MAX(position) + 1, 0), $2
		FROM challenge_words WHERE token = $1`

	if _, err := s.db.Exec(ctx, query, token, word); err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("store: append word to %s: %w", token, err)
	}
	return nil
}

// Finalize writes the host's final score. The score column is written at
// most once; a second call is an error.
func (s *Store) Finalize(ctx context.Context, token string, score int) error {
	const query = `
		UPDATE challenges SET score = $2
		WHERE token = $1 AND score IS NULL
		RETURNING token`

	var returned string
	err := s.db.QueryRow(ctx, query, token, score).Scan(&returned)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, fetchErr := s.Fetch(ctx, token); errors.Is(fetchErr, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("store: challenge %s already finalized", token)
	}
	if err != nil {
		return fmt.Errorf("store: finalize %s: %w", token, err)
	}
	return nil
}

// Fetch returns the challenge record for token, or [store.ErrNotFound].
func (s *Store) Fetch(ctx context.Context, token string) (store.ChallengeRecord, error) {
	rec := store.ChallengeRecord{Token: token}

	var score *int
	var createdAt time.Time
	err := s.db.QueryRow(ctx,
		`SELECT score, created_at FROM challenges WHERE token = $1`, token,
	).Scan(&score, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ChallengeRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.ChallengeRecord{}, fmt.Errorf("store: fetch %s: %w", token, err)
	}
	rec.Score = score
	rec.CreatedAt = createdAt

	rows, err := s.db.Query(ctx,
		`SELECT word FROM challenge_words WHERE token = $1 ORDER BY position`, token)
	if err != nil {
		return store.ChallengeRecord{}, fmt.Errorf("store: fetch words %s: %w", token, err)
	}
	defer rows.Close()

	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return store.ChallengeRecord{}, fmt.Errorf("store: fetch words scan: %w", err)
		}
		rec.Words = append(rec.Words, w)
	}
	if err := rows.Err(); err != nil {
		return store.ChallengeRecord{}, fmt.Errorf("store: fetch words %s: %w", token, err)
	}
	return rec, nil
}

// SaveResult persists a finished game for the leaderboard.
func (s *Store) SaveResult(ctx context.Context, res store.Result) error {
	words := res.Words
	if words == nil {
		words = []string{}
	}
	wordsJSON, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("store: marshal result words: %w", err)
	}

	finished := res.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}

	const query = `
		INSERT INTO game_results (player, score, turns, token, words, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.Exec(ctx, query,
		res.Player, res.Score, res.Turns, res.Token, wordsJSON, finished,
	); err != nil {
		return fmt.Errorf("store: save result: %w", err)
	}
	return nil
}

// Leaderboard returns today's best score per player, descending, capped at
// ten entries.
func (s *Store) Leaderboard(ctx context.Context, scope store.Scope) ([]store.LeaderboardEntry, error) {
	if scope != store.ScopeToday {
		return nil, fmt.Errorf("store: unsupported leaderboard scope %q", scope)
	}

	const query = `
		SELECT player, MAX(score) AS best
		FROM game_results
		WHERE finished_at >= date_trunc('day', now())
		GROUP BY player
		ORDER BY best DESC, player
		LIMIT 10`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []store.LeaderboardEntry
	for rows.Next() {
		var e store.LeaderboardEntry
		if err := rows.Scan(&e.Player, &e.Score); err != nil {
			return nil, fmt.Errorf("store: leaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	return entries, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `SELECT 1`); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// isUniqueViolation checks for SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation checks for SQLSTATE 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
