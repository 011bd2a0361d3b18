package words

import (
	"context"

	"github.com/spellrush/spellrush/internal/resilience"
)

// FallbackSentences chains sentence providers behind per-provider circuit
// breakers: when the primary (usually the LLM) fails or its breaker is open,
// the next provider answers. With the embedded template provider as the last
// entry the chain is total — an outage costs sentence quality, never a turn.
type FallbackSentences struct {
	group *resilience.FallbackGroup[SentenceProvider]
}

// Compile-time interface check.
var _ SentenceProvider = (*FallbackSentences)(nil)

// NewFallbackSentences creates a chain with primary as the first entry.
func NewFallbackSentences(primary SentenceProvider, name string, cfg resilience.FallbackConfig) *FallbackSentences {
	return &FallbackSentences{
		group: resilience.NewFallbackGroup(primary, name, cfg),
	}
}

// AddFallback appends a provider tried after all earlier entries.
func (f *FallbackSentences) AddFallback(name string, p SentenceProvider) {
	f.group.AddFallback(name, p)
}

// Sentence implements [SentenceProvider] across the chain.
func (f *FallbackSentences) Sentence(ctx context.Context, word string) (string, error) {
	return resilience.ExecuteWithResult(f.group, func(p SentenceProvider) (string, error) {
		return p.Sentence(ctx, word)
	})
}
