package memwords_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spellrush/spellrush/internal/intent"
	"github.com/spellrush/spellrush/internal/words"
	"github.com/spellrush/spellrush/internal/words/memwords"
)

func TestWords(t *testing.T) {
	t.Parallel()

	all, err := memwords.Words()
	if err != nil {
		t.Fatalf("Words: %v", err)
	}
	if len(all) < 50 {
		t.Fatalf("embedded lexicon has only %d words", len(all))
	}
	for w, d := range all {
		if w != strings.ToLower(w) {
			t.Errorf("word %q is not lowercase", w)
		}
		if d < 5 || d > 20 {
			t.Errorf("word %q has difficulty %d outside [5,20]", w, d)
		}
		if intent.IsReserved(w) {
			t.Errorf("word %q collides with a command token", w)
		}
	}
}

func TestCorpusRandomWord(t *testing.T) {
	t.Parallel()

	corpus, err := memwords.NewCorpus(1)
	if err != nil {
		t.Fatalf("NewCorpus: %v", err)
	}

	all, _ := memwords.Words()
	for _, difficulty := range []int{5, 12, 20} {
		w, err := corpus.RandomWord(context.Background(), difficulty)
		if err != nil {
			t.Fatalf("RandomWord(%d): %v", difficulty, err)
		}
		if _, ok := all[w]; !ok {
			t.Errorf("RandomWord(%d) = %q, not in the lexicon", difficulty, w)
		}
	}

	// Out-of-range difficulties widen to a neighbouring tier instead of
	// failing.
	if _, err := corpus.RandomWord(context.Background(), 3); err != nil {
		t.Errorf("RandomWord(3): %v", err)
	}
}

func TestCorpusDeterministicWithSeed(t *testing.T) {
	t.Parallel()

	a, _ := memwords.NewCorpus(99)
	b, _ := memwords.NewCorpus(99)
	for i := 0; i < 10; i++ {
		wa, _ := a.RandomWord(context.Background(), 8)
		wb, _ := b.RandomWord(context.Background(), 8)
		if wa != wb {
			t.Fatalf("draw %d diverged: %q vs %q", i, wa, wb)
		}
	}
}

func TestDictionary(t *testing.T) {
	t.Parallel()

	dict, err := memwords.NewDictionary()
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}

	all, _ := memwords.Words()
	var sample string
	for w := range all {
		sample = w
		break
	}

	defs, err := dict.Definitions(context.Background(), " "+strings.ToUpper(sample)+" ")
	if err != nil {
		t.Fatalf("Definitions(%q): %v", sample, err)
	}
	if len(defs) == 0 || defs[0] == "" {
		t.Errorf("Definitions(%q) = %v", sample, defs)
	}

	if _, err := dict.Definitions(context.Background(), "xyzzy"); !errors.Is(err, words.ErrNoDefinition) {
		t.Errorf("unknown word: got %v, want ErrNoDefinition", err)
	}
}

func TestSentences(t *testing.T) {
	t.Parallel()

	s, err := memwords.NewSentences()
	if err != nil {
		t.Fatalf("NewSentences: %v", err)
	}

	all, _ := memwords.Words()
	var sample string
	for w := range all {
		sample = w
		break
	}

	got, err := s.Sentence(context.Background(), sample)
	if err != nil {
		t.Fatalf("Sentence(%q): %v", sample, err)
	}
	if !strings.Contains(strings.ToLower(got), sample) {
		t.Errorf("Sentence(%q) = %q does not contain the word", sample, got)
	}

	// Unknown words fall back to a template, keeping Sentence total.
	got, err = s.Sentence(context.Background(), "xyzzy")
	if err != nil {
		t.Fatalf("Sentence(unknown): %v", err)
	}
	if !strings.Contains(got, "xyzzy") {
		t.Errorf("template sentence %q does not contain the word", got)
	}
}
