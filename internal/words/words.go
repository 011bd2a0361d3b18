// Package words defines the word-supply contract for the quiz engine and the
// [Lexicon] composite that assembles a corpus, a dictionary, and a sentence
// provider into the single Source the engine consumes.
package words

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spellrush/spellrush/internal/intent"
)

// ErrNoDefinition is returned by a [Dictionary] when the word has no usable
// definition. The lexicon treats it as "pick another word".
var ErrNoDefinition = errors.New("words: no definition available")

// ErrCorpusEmpty is returned by a [Corpus] when no word matches the
// requested difficulty at all.
var ErrCorpusEmpty = errors.New("words: corpus has no candidates")

// drawAttempts bounds how many corpus draws the lexicon makes looking for a
// servable word (defined, not a reserved command token).
const drawAttempts = 8

// Sentence is an example sentence in its two renderings.
type Sentence struct {
	// Display has the target word masked (for cards — the player must not
	// read the answer).
	Display string

	// Spoken has the word intact (the player is supposed to hear it).
	Spoken string
}

// Corpus supplies random words by difficulty. Difficulty maps monotonically
// to word length and rarity; implementations decide the exact mapping.
type Corpus interface {
	RandomWord(ctx context.Context, difficulty int) (string, error)
}

// Dictionary supplies definitions for a word.
type Dictionary interface {
	// Definitions returns at least one definition, or [ErrNoDefinition].
	Definitions(ctx context.Context, word string) ([]string, error)
}

// SentenceProvider produces an example sentence containing the word.
type SentenceProvider interface {
	Sentence(ctx context.Context, word string) (string, error)
}

// Source is what the game engine consumes.
type Source interface {
	// SurvivalWord returns a word of roughly the given difficulty that is
	// guaranteed to have retrievable lexical content and that does not
	// collide with a reserved command token.
	SurvivalWord(ctx context.Context, difficulty int) (string, error)

	// Definition returns one definition of word.
	Definition(ctx context.Context, word string) (string, error)

	// ExampleSentence returns an example sentence for word, masked for
	// display and unmasked for speech.
	ExampleSentence(ctx context.Context, word string) (Sentence, error)
}

// Lexicon composes a corpus, a dictionary, and a sentence provider into a
// [Source]. It re-draws from the corpus until a candidate has a definition,
// mirroring how the quiz must never present a word it cannot later explain.
type Lexicon struct {
	corpus    Corpus
	dict      Dictionary
	sentences SentenceProvider
	pick      func(n int) int
}

// Compile-time interface check.
var _ Source = (*Lexicon)(nil)

// NewLexicon creates a Lexicon. pick selects an index in [0,n) when several
// definitions exist; pass nil for a fixed first-definition policy.
func NewLexicon(corpus Corpus, dict Dictionary, sentences SentenceProvider, pick func(n int) int) *Lexicon {
	if pick == nil {
		pick = func(int) int { return 0 }
	}
	return &Lexicon{corpus: corpus, dict: dict, sentences: sentences, pick: pick}
}

// SurvivalWord implements [Source]. A candidate is rejected when it collides
// with a reserved command token or has no retrievable definition; after
// bounded attempts the last error is surfaced.
func (l *Lexicon) SurvivalWord(ctx context.Context, difficulty int) (string, error) {
	var lastErr error
	for attempt := 0; attempt < drawAttempts; attempt++ {
		word, err := l.corpus.RandomWord(ctx, difficulty)
		if err != nil {
			return "", fmt.Errorf("words: draw (difficulty %d): %w", difficulty, err)
		}

		if intent.IsReserved(word) {
			slog.Debug("words: rejected reserved candidate", "word", word)
			continue
		}

		if _, err := l.dict.Definitions(ctx, word); err != nil {
			if errors.Is(err, ErrNoDefinition) {
				slog.Debug("words: rejected undefined candidate", "word", word)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("words: verify %q: %w", word, err)
		}
		return strings.ToLower(word), nil
	}
	if lastErr == nil {
		lastErr = ErrCorpusEmpty
	}
	return "", fmt.Errorf("words: no servable word after %d draws: %w", drawAttempts, lastErr)
}

// Definition implements [Source], choosing among multiple definitions via
// the configured pick function.
func (l *Lexicon) Definition(ctx context.Context, word string) (string, error) {
	defs, err := l.dict.Definitions(ctx, word)
	if err != nil {
		return "", err
	}
	return defs[l.pick(len(defs))], nil
}

// ExampleSentence implements [Source]. The display form masks every
// occurrence of the word with underscores of the same length.
func (l *Lexicon) ExampleSentence(ctx context.Context, word string) (Sentence, error) {
	spoken, err := l.sentences.Sentence(ctx, word)
	if err != nil {
		return Sentence{}, fmt.Errorf("words: sentence for %q: %w", word, err)
	}
	return Sentence{
		Display: Mask(spoken, word),
		Spoken:  spoken,
	}, nil
}

// Mask replaces each occurrence of word in sentence (case-insensitive, whole
// string match on the word's letters) with underscores of equal length.
// Matching compares rune windows under Unicode case folding, so sentences
// whose case mapping changes byte length (İ, ẞ) stay aligned.
func Mask(sentence, word string) string {
	if word == "" {
		return sentence
	}
	runes := []rune(sentence)
	target := []rune(word)
	blank := strings.Repeat("_", len(target))

	var b strings.Builder
	for i := 0; i < len(runes); {
		if i+len(target) <= len(runes) && strings.EqualFold(string(runes[i:i+len(target)]), word) {
			b.WriteString(blank)
			i += len(target)
			continue
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}
