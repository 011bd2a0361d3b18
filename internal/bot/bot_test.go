package bot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spellrush/spellrush/internal/bot"
	"github.com/spellrush/spellrush/internal/game"
	"github.com/spellrush/spellrush/internal/locale"
	"github.com/spellrush/spellrush/internal/store/memstore"
	"github.com/spellrush/spellrush/internal/words"
)

// fixedSource serves the same word forever.
type fixedSource struct {
	word string
	err  error
}

var _ words.Source = (*fixedSource)(nil)

func (s *fixedSource) SurvivalWord(ctx context.Context, difficulty int) (string, error) {
	return s.word, s.err
}

func (s *fixedSource) Definition(ctx context.Context, word string) (string, error) {
	return "a definition of " + word, s.err
}

func (s *fixedSource) ExampleSentence(ctx context.Context, word string) (words.Sentence, error) {
	return words.Sentence{Display: "___", Spoken: word}, s.err
}

func newTestBot(t *testing.T, src words.Source) *bot.Bot {
	t.Helper()
	engine := game.NewEngine(src, memstore.New(memstore.WithSeed(1)), locale.English())
	return bot.New(engine)
}

func TestHandleUtterancePersistsState(t *testing.T) {
	t.Parallel()

	b := newTestBot(t, &fixedSource{word: "banana"})
	ctx := context.Background()

	if _, err := b.HandleUtterance(ctx, "alice", "new game"); err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}

	st, ok := b.Snapshot("alice")
	if !ok {
		t.Fatal("conversation not tracked")
	}
	if st.Phase != game.PhaseAwaitingAnswer || st.Turn != 1 {
		t.Fatalf("state = %+v", st)
	}

	// The next turn continues from the persisted state.
	if _, err := b.HandleUtterance(ctx, "alice", "banana"); err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}
	st, _ = b.Snapshot("alice")
	if st.Score != 1 || st.Phase != game.PhaseShowingResult {
		t.Fatalf("state after answer = %+v", st)
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	t.Parallel()

	b := newTestBot(t, &fixedSource{word: "banana"})
	ctx := context.Background()

	if _, err := b.HandleUtterance(ctx, "alice", "new game"); err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}
	if _, err := b.HandleUtterance(ctx, "bob", "leaderboard"); err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}

	alice, _ := b.Snapshot("alice")
	bob, _ := b.Snapshot("bob")
	if alice.Phase != game.PhaseAwaitingAnswer {
		t.Errorf("alice = %+v", alice)
	}
	if bob.Phase == game.PhaseAwaitingAnswer {
		t.Errorf("bob inherited alice's game: %+v", bob)
	}
}

func TestEmptyConversationID(t *testing.T) {
	t.Parallel()

	b := newTestBot(t, &fixedSource{word: "banana"})
	if _, err := b.HandleUtterance(context.Background(), "", "menu"); err == nil {
		t.Fatal("empty conversation ID should fail")
	}
}

func TestProviderFailureKeepsConversationState(t *testing.T) {
	t.Parallel()

	src := &fixedSource{word: "banana"}
	b := newTestBot(t, src)
	ctx := context.Background()

	if _, err := b.HandleUtterance(ctx, "alice", "new game"); err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}
	before, _ := b.Snapshot("alice")

	src.err = errors.New("upstream down")
	prompt, err := b.HandleUtterance(ctx, "alice", "define")
	if err != nil {
		t.Fatalf("provider failure should not error the turn: %v", err)
	}
	if prompt.Subtitle == "" {
		t.Error("failure turn needs a retryable prompt")
	}

	after, _ := b.Snapshot("alice")
	if after.Phase != before.Phase || after.Turn != before.Turn || after.LastWord != before.LastWord {
		t.Errorf("state changed across a failed call: %+v -> %+v", before, after)
	}

	// Recovery: the same utterance works once the provider is back.
	src.err = nil
	if _, err := b.HandleUtterance(ctx, "alice", "define"); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
}

func TestSnapshotUnknownConversation(t *testing.T) {
	t.Parallel()

	b := newTestBot(t, &fixedSource{word: "banana"})
	if _, ok := b.Snapshot("ghost"); ok {
		t.Error("unknown conversation should not exist")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	b := newTestBot(t, &fixedSource{word: "banana"})
	ctx := context.Background()

	if _, err := b.HandleUtterance(ctx, "alice", "new game"); err != nil {
		t.Fatalf("HandleUtterance: %v", err)
	}
	b.Reset("alice")
	if _, ok := b.Snapshot("alice"); ok {
		t.Error("reset conversation should be gone")
	}

	// A fresh turn starts over from the menu phase.
	if _, err := b.HandleUtterance(ctx, "alice", "menu"); err != nil {
		t.Fatalf("HandleUtterance after reset: %v", err)
	}
	st, _ := b.Snapshot("alice")
	if st.Phase != game.PhaseIdle || st.Turn != 0 {
		t.Errorf("state after reset = %+v", st)
	}
}
