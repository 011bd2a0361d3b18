package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidSentenceProviders lists the supported LLM backends for the sentence
// provider. Used by [Validate].
var ValidSentenceProviders = []string{"openai", "anthropic", "gemini", "ollama"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Storage
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			errs = append(errs, fmt.Errorf("storage.postgres_dsn must start with postgres:// or postgresql://"))
		}
	} else {
		slog.Warn("storage.postgres_dsn is empty; challenges and scores live in memory and are lost on restart")
	}

	// Words
	if cfg.Words.Dictionary.APIKey == "" {
		slog.Warn("words.dictionary.api_key is empty; definitions come from the embedded lexicon only")
	}
	if name := cfg.Words.Sentences.Name; name != "" {
		if !slices.Contains(ValidSentenceProviders, name) {
			errs = append(errs, fmt.Errorf("words.sentences.name %q is invalid; valid values: %s",
				name, strings.Join(ValidSentenceProviders, ", ")))
		}
		if cfg.Words.Sentences.Model == "" {
			errs = append(errs, fmt.Errorf("words.sentences.model is required when words.sentences.name is set"))
		}
	} else {
		slog.Warn("words.sentences.name is empty; example sentences come from the embedded templates only")
	}

	// Game
	if cfg.Game.CallTimeout < 0 {
		errs = append(errs, fmt.Errorf("game.call_timeout must not be negative"))
	}
	if cfg.Game.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("game.retry_backoff must not be negative"))
	}

	return errors.Join(errs...)
}
