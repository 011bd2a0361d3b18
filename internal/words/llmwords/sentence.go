// Package llmwords implements [words.SentenceProvider] with an LLM behind
// github.com/mozilla-ai/any-llm-go. It is the primary sentence source; the
// engine composes it with the static template provider as a fallback, so a
// provider outage only costs sentence quality, never a turn.
package llmwords

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/spellrush/spellrush/internal/words"
)

// systemPrompt keeps the model on task: one plain sentence, no spelling
// hints that would give the answer away in speech.
const systemPrompt = "You write a single natural example sentence for a vocabulary quiz. " +
	"Use the given word exactly once. Do not define the word, do not spell it, " +
	"do not add quotation marks or any commentary. Reply with the sentence only."

// maxTokens bounds the completion; one sentence never needs more.
const maxTokens = 60

// Provider is a [words.SentenceProvider] backed by an LLM.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// Compile-time interface check.
var _ words.SentenceProvider = (*Provider)(nil)

// New creates a Provider for the named backend. providerName is one of
// "openai", "anthropic", "gemini", "ollama". opts are any-llm-go options
// such as anyllmlib.WithAPIKey or anyllmlib.WithBaseURL; without an API key
// option the backend falls back to its usual environment variable.
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("llmwords: model must not be empty")
	}

	var (
		backend anyllmlib.Provider
		err     error
	)
	switch strings.ToLower(providerName) {
	case "openai":
		backend, err = anyllmoai.New(opts...)
	case "anthropic":
		backend, err = anthropic.New(opts...)
	case "gemini":
		backend, err = gemini.New(opts...)
	case "ollama":
		backend, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("llmwords: unsupported provider %q; supported: openai, anthropic, gemini, ollama", providerName)
	}
	if err != nil {
		return nil, fmt.Errorf("llmwords: create %q backend: %w", providerName, err)
	}

	return &Provider{backend: backend, model: model}, nil
}

// Sentence implements [words.SentenceProvider]. The completion is rejected
// when the model failed to use the word, so the caller's fallback chain can
// take over.
func (p *Provider) Sentence(ctx context.Context, word string) (string, error) {
	mt := maxTokens
	params := anyllmlib.CompletionParams{
		Model: p.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: systemPrompt},
			{Role: anyllmlib.RoleUser, Content: fmt.Sprintf("Word: %s", word)},
		},
		MaxTokens: &mt,
	}

	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llmwords: completion for %q: %w", word, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmwords: empty choices for %q", word)
	}

	sentence := cleanSentence(resp.Choices[0].Message.ContentString())
	if sentence == "" {
		return "", fmt.Errorf("llmwords: blank sentence for %q", word)
	}
	if !strings.Contains(strings.ToLower(sentence), strings.ToLower(word)) {
		return "", fmt.Errorf("llmwords: sentence for %q does not contain the word", word)
	}
	return sentence, nil
}

// cleanSentence strips the wrapping the model sometimes adds despite the
// prompt: surrounding quotes and extra whitespace.
func cleanSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"“”`)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
