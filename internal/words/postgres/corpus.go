// Package postgres implements [words.Corpus] on a PostgreSQL word table.
//
// Words are stored with a numeric difficulty tier. Selection is uniform
// random within the requested tier, widening to neighbouring tiers when the
// exact tier is empty so a sparse corpus still serves every round.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spellrush/spellrush/internal/intent"
	"github.com/spellrush/spellrush/internal/words"
)

// Schema is the SQL DDL for the word corpus. Execute it via
// [Corpus.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS survival_words (
    word       TEXT PRIMARY KEY,
    difficulty INT NOT NULL,
    served     BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_survival_words_difficulty ON survival_words(difficulty);
`

// tierSpread is how far RandomWord widens around the requested difficulty
// before giving up.
const tierSpread = 3

// DB is the database interface used by [Corpus]. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Corpus is a [words.Corpus] backed by PostgreSQL.
type Corpus struct {
	db DB
}

// Compile-time interface check.
var _ words.Corpus = (*Corpus)(nil)

// New creates a Corpus using the given connection or pool. Call
// [Corpus.Migrate] before issuing queries.
func New(db DB) *Corpus {
	return &Corpus{db: db}
}

// Migrate executes the [Schema] DDL.
func (c *Corpus) Migrate(ctx context.Context) error {
	if _, err := c.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("corpus: migrate: %w", err)
	}
	return nil
}

// RandomWord returns a uniformly random word from the requested difficulty
// tier, widening the tier window when the exact tier is empty. Reserved
// command tokens are excluded in SQL; the word-frequency counter is bumped
// on the way out.
func (c *Corpus) RandomWord(ctx context.Context, difficulty int) (string, error) {
	const query = `
		UPDATE survival_words SET served = served + 1
		WHERE word = (
			SELECT word FROM survival_words
			WHERE difficulty BETWEEN $1 AND $2
			  AND NOT (word = ANY($3))
			ORDER BY random()
			LIMIT 1
		)
		RETURNING word`

	for spread := 0; spread <= tierSpread; spread++ {
		var word string
		err := c.db.QueryRow(ctx, query, difficulty-spread, difficulty+spread, intent.Reserved).Scan(&word)
		if err == nil {
			return word, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("corpus: random word (difficulty %d±%d): %w", difficulty, spread, err)
		}
	}
	return "", words.ErrCorpusEmpty
}

// Seed upserts words with their difficulty tiers. Used to bootstrap a fresh
// database from an embedded word list.
func (c *Corpus) Seed(ctx context.Context, byDifficulty map[string]int) error {
	const query = `
		INSERT INTO survival_words (word, difficulty)
		VALUES ($1, $2)
		ON CONFLICT (word) DO UPDATE SET difficulty = EXCLUDED.difficulty`

	for word, diff := range byDifficulty {
		if _, err := c.db.Exec(ctx, query, word, diff); err != nil {
			return fmt.Errorf("corpus: seed %q: %w", word, err)
		}
	}
	return nil
}

// Count returns the number of words in the corpus. Used by readiness checks.
func (c *Corpus) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRow(ctx, `SELECT count(*) FROM survival_words`).Scan(&n); err != nil {
		return 0, fmt.Errorf("corpus: count: %w", err)
	}
	return n, nil
}
