package words_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spellrush/spellrush/internal/words"
)

// queueCorpus returns its words in order, then repeats the last one.
type queueCorpus struct {
	words []string
	i     int
}

func (c *queueCorpus) RandomWord(ctx context.Context, difficulty int) (string, error) {
	if len(c.words) == 0 {
		return "", words.ErrCorpusEmpty
	}
	w := c.words[min(c.i, len(c.words)-1)]
	c.i++
	return w, nil
}

// mapDict defines exactly the words in its map.
type mapDict map[string][]string

func (d mapDict) Definitions(ctx context.Context, word string) ([]string, error) {
	defs, ok := d[word]
	if !ok {
		return nil, words.ErrNoDefinition
	}
	return defs, nil
}

type staticSentences string

func (s staticSentences) Sentence(ctx context.Context, word string) (string, error) {
	return string(s), nil
}

func TestSurvivalWordSkipsReservedCandidates(t *testing.T) {
	t.Parallel()

	// "menu" is a command token and must never be served.
	corpus := &queueCorpus{words: []string{"menu", "banana"}}
	dict := mapDict{"menu": {"a list of dishes"}, "banana": {"a fruit"}}
	lex := words.NewLexicon(corpus, dict, staticSentences("x"), nil)

	got, err := lex.SurvivalWord(context.Background(), 5)
	if err != nil {
		t.Fatalf("SurvivalWord: %v", err)
	}
	if got != "banana" {
		t.Errorf("got %q, want the non-reserved candidate", got)
	}
}

func TestSurvivalWordSkipsUndefinedCandidates(t *testing.T) {
	t.Parallel()

	corpus := &queueCorpus{words: []string{"xyzzy", "banana"}}
	dict := mapDict{"banana": {"a fruit"}}
	lex := words.NewLexicon(corpus, dict, staticSentences("x"), nil)

	got, err := lex.SurvivalWord(context.Background(), 5)
	if err != nil {
		t.Fatalf("SurvivalWord: %v", err)
	}
	if got != "banana" {
		t.Errorf("got %q, want the defined candidate", got)
	}
}

func TestSurvivalWordGivesUpEventually(t *testing.T) {
	t.Parallel()

	corpus := &queueCorpus{words: []string{"xyzzy"}}
	lex := words.NewLexicon(corpus, mapDict{}, staticSentences("x"), nil)

	_, err := lex.SurvivalWord(context.Background(), 5)
	if !errors.Is(err, words.ErrNoDefinition) {
		t.Errorf("got %v, want ErrNoDefinition after bounded draws", err)
	}
}

func TestDefinitionPick(t *testing.T) {
	t.Parallel()

	dict := mapDict{"banana": {"first", "second", "third"}}

	lex := words.NewLexicon(nil, dict, staticSentences("x"), nil)
	got, err := lex.Definition(context.Background(), "banana")
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if got != "first" {
		t.Errorf("nil pick should choose the first definition, got %q", got)
	}

	lex = words.NewLexicon(nil, dict, staticSentences("x"), func(n int) int { return n - 1 })
	got, _ = lex.Definition(context.Background(), "banana")
	if got != "third" {
		t.Errorf("pick(n-1) should choose the last definition, got %q", got)
	}
}

func TestExampleSentenceMasksTheWord(t *testing.T) {
	t.Parallel()

	lex := words.NewLexicon(nil, mapDict{}, staticSentences("A Banana is yellow, banana!"), nil)
	s, err := lex.ExampleSentence(context.Background(), "banana")
	if err != nil {
		t.Fatalf("ExampleSentence: %v", err)
	}
	if strings.Contains(strings.ToLower(s.Display), "banana") {
		t.Errorf("Display = %q still contains the word", s.Display)
	}
	if !strings.Contains(s.Spoken, "Banana") {
		t.Errorf("Spoken = %q lost the word", s.Spoken)
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sentence string
		word     string
		want     string
	}{
		{"the cat sat", "cat", "the ___ sat"},
		{"Cat and CAT", "cat", "___ and ___"},
		{"no match here", "zebra", "no match here"},
		{"anything", "", "anything"},
		// Case mapping that shrinks in bytes (U+1E9E ẞ -> ß) must not
		// derail the scan past the end of the sentence.
		{"ẞẞẞ uses sample here", "sample", "ẞẞẞ uses ______ here"},
		// Case mapping that grows in bytes (İ) must not shift the match.
		{"İstanbul serves a sample daily", "sample", "İstanbul serves a ______ daily"},
		{"naïve SAMPLE façade", "sample", "naïve ______ façade"},
	}
	for _, tc := range tests {
		if got := words.Mask(tc.sentence, tc.word); got != tc.want {
			t.Errorf("Mask(%q, %q) = %q, want %q", tc.sentence, tc.word, got, tc.want)
		}
	}
}
