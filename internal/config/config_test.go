package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spellrush/spellrush/internal/config"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	valid := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	for _, l := range valid {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	invalid := []config.LogLevel{"", "trace", "INFO", "verbose"}
	for _, l := range invalid {
		if l.IsValid() {
			t.Errorf("%q should be invalid", l)
		}
	}
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	t.Parallel()
	// An empty config runs fully on embedded fallbacks; it only warns.
	if err := config.Validate(&config.Config{}); err != nil {
		t.Errorf("empty config should validate, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Server.LogLevel = "bananas"
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if !strings.Contains(err.Error(), "server.log_level") {
		t.Errorf("error should mention server.log_level, got: %v", err)
	}
}

func TestValidate_BadDSN(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Storage.PostgresDSN = "mysql://localhost/quiz"
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected error for non-postgres DSN")
	}
	if !strings.Contains(err.Error(), "storage.postgres_dsn") {
		t.Errorf("error should mention storage.postgres_dsn, got: %v", err)
	}
}

func TestValidate_SentenceProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entry   config.ProviderEntry
		wantErr string
	}{
		{"known provider with model", config.ProviderEntry{Name: "openai", Model: "gpt-4o-mini"}, ""},
		{"unknown provider", config.ProviderEntry{Name: "watson", Model: "x"}, "words.sentences.name"},
		{"missing model", config.ProviderEntry{Name: "anthropic"}, "words.sentences.model"},
		{"empty entry", config.ProviderEntry{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.Config{}
			cfg.Words.Sentences = tc.entry
			err := config.Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error should contain %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_NegativeTimeouts(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Game.CallTimeout = config.Duration(-time.Second)
	cfg.Game.RetryBackoff = config.Duration(-time.Millisecond)
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected errors for negative durations")
	}
	for _, want := range []string{"game.call_timeout", "game.retry_backoff"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Server.LogLevel = "loud"
	cfg.Storage.PostgresDSN = "not-a-dsn"
	cfg.Words.Sentences = config.ProviderEntry{Name: "watson"}
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected joined errors")
	}
	for _, want := range []string{"server.log_level", "storage.postgres_dsn", "words.sentences.name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error should mention %s, got: %v", want, err)
		}
	}
}
