// Package memwords supplies an embedded mini-lexicon: a corpus, dictionary,
// and sentence source that work without a database or network. It backs
// tests and offline local play, and its sentence templates double as the
// fallback behind the LLM sentence provider.
package memwords

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/spellrush/spellrush/internal/words"
)

//go:embed lexicon.tsv
var lexiconTSV string

// entry is one embedded word with its lexical content.
type entry struct {
	word       string
	difficulty int
	definition string
	sentence   string
}

var (
	loadOnce sync.Once
	loadErr  error
	entries  []entry
	byWord   map[string]entry
	byTier   map[int][]string
)

// load parses the embedded TSV once: word, difficulty, definition, sentence.
func load() error {
	loadOnce.Do(func() {
		byWord = make(map[string]entry)
		byTier = make(map[int][]string)

		sc := bufio.NewScanner(strings.NewReader(lexiconTSV))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.Split(line, "\t")
			if len(parts) != 4 {
				loadErr = fmt.Errorf("memwords: malformed lexicon line %q", line)
				return
			}
			var diff int
			if _, err := fmt.Sscanf(parts[1], "%d", &diff); err != nil {
				loadErr = fmt.Errorf("memwords: bad difficulty in line %q: %w", line, err)
				return
			}
			e := entry{
				word:       strings.ToLower(parts[0]),
				difficulty: diff,
				definition: parts[2],
				sentence:   parts[3],
			}
			entries = append(entries, e)
			byWord[e.word] = e
			byTier[e.difficulty] = append(byTier[e.difficulty], e.word)
		}
		if err := sc.Err(); err != nil {
			loadErr = fmt.Errorf("memwords: read lexicon: %w", err)
		}
	})
	return loadErr
}

// Words returns the embedded word list keyed by word with its difficulty,
// in the shape a database corpus seeder accepts.
func Words() (map[string]int, error) {
	if err := load(); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.word] = e.difficulty
	}
	return out, nil
}

// Corpus is a [words.Corpus] over the embedded lexicon.
type Corpus struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Compile-time interface check.
var _ words.Corpus = (*Corpus)(nil)

// NewCorpus returns a Corpus. seed 0 means a time-based seed.
func NewCorpus(seed int64) (*Corpus, error) {
	if err := load(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Corpus{rng: rand.New(rand.NewSource(seed))}, nil
}

// RandomWord picks a random word from the difficulty tier, widening to
// neighbouring tiers when the exact tier is empty.
func (c *Corpus) RandomWord(ctx context.Context, difficulty int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for spread := 0; spread <= 20; spread++ {
		var pool []string
		pool = append(pool, byTier[difficulty-spread]...)
		if spread > 0 {
			pool = append(pool, byTier[difficulty+spread]...)
		}
		if len(pool) > 0 {
			return pool[c.rng.Intn(len(pool))], nil
		}
	}
	return "", words.ErrCorpusEmpty
}

// Dictionary is a [words.Dictionary] over the embedded lexicon.
type Dictionary struct{}

// Compile-time interface check.
var _ words.Dictionary = (*Dictionary)(nil)

// NewDictionary returns a Dictionary over the embedded lexicon.
func NewDictionary() (*Dictionary, error) {
	if err := load(); err != nil {
		return nil, err
	}
	return &Dictionary{}, nil
}

// Definitions returns the embedded definition for word, or
// [words.ErrNoDefinition] for anything outside the lexicon.
func (d *Dictionary) Definitions(ctx context.Context, word string) ([]string, error) {
	e, ok := byWord[strings.ToLower(strings.TrimSpace(word))]
	if !ok {
		return nil, words.ErrNoDefinition
	}
	return []string{e.definition}, nil
}

// Sentences is a [words.SentenceProvider] over the embedded lexicon. Words
// outside the lexicon get a neutral template sentence, which makes Sentences
// a total function — suitable as the terminal fallback behind an LLM
// provider.
type Sentences struct{}

// Compile-time interface check.
var _ words.SentenceProvider = (*Sentences)(nil)

// NewSentences returns a Sentences provider.
func NewSentences() (*Sentences, error) {
	if err := load(); err != nil {
		return nil, err
	}
	return &Sentences{}, nil
}

// Sentence returns the embedded example sentence for word, or a neutral
// template when the word is not in the lexicon.
func (s *Sentences) Sentence(ctx context.Context, word string) (string, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if e, ok := byWord[w]; ok {
		return e.sentence, nil
	}
	return fmt.Sprintf("She was careful to use the word %s correctly.", w), nil
}
