package config_test

import (
	"testing"
	"time"

	"github.com/spellrush/spellrush/internal/config"
)

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.LogLevel = config.LogInfo
	cfg.Server.MetricsAddr = ":9090"
	cfg.Storage.PostgresDSN = "postgres://localhost/spellrush"
	cfg.Words.Sentences = config.ProviderEntry{Name: "openai", Model: "gpt-4o-mini"}
	cfg.Game.CallTimeout = config.Duration(5 * time.Second)
	return cfg
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	a, b := baseConfig(), baseConfig()
	d := config.Diff(a, b)
	if d.LogLevelChanged || d.GameChanged || d.RestartRequired {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	a, b := baseConfig(), baseConfig()
	b.Server.LogLevel = config.LogDebug
	d := config.Diff(a, b)
	if !d.LogLevelChanged {
		t.Fatal("expected LogLevelChanged")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q", d.NewLogLevel)
	}
	if d.RestartRequired {
		t.Error("log level change should not require restart")
	}
}

func TestDiff_GameTuning(t *testing.T) {
	t.Parallel()
	a, b := baseConfig(), baseConfig()
	b.Game.CallTimeout = config.Duration(10 * time.Second)
	d := config.Diff(a, b)
	if !d.GameChanged {
		t.Fatal("expected GameChanged")
	}
	if d.NewGame.CallTimeout.Std() != 10*time.Second {
		t.Errorf("NewGame.CallTimeout = %v", d.NewGame.CallTimeout)
	}
	if d.RestartRequired {
		t.Error("game tuning change should not require restart")
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"storage", func(c *config.Config) { c.Storage.PostgresDSN = "postgres://other/db" }},
		{"words", func(c *config.Config) { c.Words.Sentences.Model = "gpt-4o" }},
		{"metrics addr", func(c *config.Config) { c.Server.MetricsAddr = ":9191" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a, b := baseConfig(), baseConfig()
			tc.mutate(b)
			d := config.Diff(a, b)
			if !d.RestartRequired {
				t.Errorf("expected RestartRequired for %s change", tc.name)
			}
		})
	}
}
