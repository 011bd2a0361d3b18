package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spellrush/spellrush/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows over string rows.
type mockRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *mockRows) Close()                                       {}
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

// mockDB implements the DB interface.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFunc(ctx, sql, args...)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFunc(ctx, sql, args...)
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFunc(ctx, sql, args...)
}

func scanToken(token string) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = token
		return nil
	}
}

// ---------------------------------------------------------------------------
// GenerateToken
// ---------------------------------------------------------------------------

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: scanToken("0042")}
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, nil
		},
	}

	token, err := New(db).GenerateToken(context.Background())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token != "0042" {
		t.Errorf("token = %q", token)
	}
}

func TestGenerateTokenExhausted(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	_, err := New(db).GenerateToken(context.Background())
	if !errors.Is(err, store.ErrTokensExhausted) {
		t.Errorf("got %v, want ErrTokensExhausted", err)
	}
}

func TestGenerateTokenRetriesOnCollision(t *testing.T) {
	t.Parallel()

	inserts := 0
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: scanToken(fmt.Sprintf("%04d", inserts))}
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			inserts++
			if inserts == 1 {
				// Another process reserved the same value first.
				return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
			}
			return pgconn.CommandTag{}, nil
		},
	}

	token, err := New(db).GenerateToken(context.Background())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token != "0001" {
		t.Errorf("token = %q, want the second pick", token)
	}
	if inserts != 2 {
		t.Errorf("inserts = %d, want 2", inserts)
	}
}

func TestGenerateTokenGivesUp(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: scanToken("0001")}
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		},
	}

	if _, err := New(db).GenerateToken(context.Background()); err == nil {
		t.Error("endless collisions should surface an error")
	}
}

// ---------------------------------------------------------------------------
// AppendWord / Finalize
// ---------------------------------------------------------------------------

func TestAppendWordUnknownToken(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23503"}
		},
	}

	if err := New(db).AppendWord(context.Background(), "1234", "banana"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestFinalizeTwice(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if strings.Contains(sql, "UPDATE") {
				// score IS NULL matched no row: already finalized.
				return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
			}
			// The existence probe finds the challenge.
			return &mockRow{scanFunc: func(dest ...any) error {
				*(dest[1].(*time.Time)) = time.Now()
				return nil
			}}
		},
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockRows{}, nil
		},
	}

	err := New(db).Finalize(context.Background(), "1234", 5)
	if err == nil || errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want an already-finalized error", err)
	}
}

// ---------------------------------------------------------------------------
// Fetch / Leaderboard / Ping
// ---------------------------------------------------------------------------

func TestFetchNotFound(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	if _, err := New(db).Fetch(context.Background(), "9999"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestFetchAssemblesRecord(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				score := 3
				*(dest[0].(**int)) = &score
				*(dest[1].(*time.Time)) = time.Now()
				return nil
			}}
		},
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockRows{data: [][]any{{"banana"}, {"orchid"}}}, nil
		},
	}

	rec, err := New(db).Fetch(context.Background(), "1234")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rec.Score == nil || *rec.Score != 3 {
		t.Errorf("Score = %v", rec.Score)
	}
	if len(rec.Words) != 2 || rec.Words[0] != "banana" || rec.Words[1] != "orchid" {
		t.Errorf("Words = %v", rec.Words)
	}
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockRows{data: [][]any{{"alice", 7}, {"bob", 5}}}, nil
		},
	}

	entries, err := New(db).Leaderboard(context.Background(), store.ScopeToday)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 || entries[0].Player != "alice" || entries[0].Score != 7 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestLeaderboardUnknownScope(t *testing.T) {
	t.Parallel()

	if _, err := New(&mockDB{}).Leaderboard(context.Background(), store.Scope("all-time")); err == nil {
		t.Error("unknown scope should fail")
	}
}

func TestSaveResultMarshalsWords(t *testing.T) {
	t.Parallel()

	var gotWords []byte
	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotWords = args[4].([]byte)
			return pgconn.CommandTag{}, nil
		},
	}

	res := store.Result{Player: "alice", Score: 2, Turns: 3, Words: []string{"banana", "orchid"}}
	if err := New(db).SaveResult(context.Background(), res); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if string(gotWords) != `["banana","orchid"]` {
		t.Errorf("words JSON = %s", gotWords)
	}
}

func TestSaveResultNilWords(t *testing.T) {
	t.Parallel()

	var gotWords []byte
	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotWords = args[4].([]byte)
			return pgconn.CommandTag{}, nil
		},
	}

	if err := New(db).SaveResult(context.Background(), store.Result{Player: "p"}); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if string(gotWords) != `[]` {
		t.Errorf("nil words should serialize as an empty array, got %s", gotWords)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("connection refused")
		},
	}
	if err := New(db).Ping(context.Background()); err == nil {
		t.Error("Ping should surface connection errors")
	}
}
