// Command spellrush is the main entry point for the Spellrush quiz bot. It
// wires the word providers, challenge store, and game engine together and
// serves a local console chat session plus an optional metrics listener.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/spellrush/spellrush/internal/bot"
	"github.com/spellrush/spellrush/internal/config"
	"github.com/spellrush/spellrush/internal/game"
	"github.com/spellrush/spellrush/internal/health"
	"github.com/spellrush/spellrush/internal/locale"
	"github.com/spellrush/spellrush/internal/observe"
	"github.com/spellrush/spellrush/internal/resilience"
	"github.com/spellrush/spellrush/internal/store"
	"github.com/spellrush/spellrush/internal/store/memstore"
	pgstore "github.com/spellrush/spellrush/internal/store/postgres"
	"github.com/spellrush/spellrush/internal/words"
	"github.com/spellrush/spellrush/internal/words/dictapi"
	"github.com/spellrush/spellrush/internal/words/llmwords"
	"github.com/spellrush/spellrush/internal/words/memwords"
	pgcorpus "github.com/spellrush/spellrush/internal/words/postgres"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	metricsAddr := flag.String("metrics-addr", "", "metrics/health listen address (overrides server.metrics_addr)")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	haveFile := true
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "spellrush: config file %q not found — continuing with built-in defaults\n", *configPath)
			cfg = &config.Config{}
			haveFile = false
		} else {
			fmt.Fprintf(os.Stderr, "spellrush: %v\n", err)
			return 1
		}
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	slog.Info("spellrush starting",
		"version", version,
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "spellrush",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	backend, err := buildStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise storage", "err", err)
		return 1
	}
	defer backend.close()

	// ── Word source ───────────────────────────────────────────────────────────
	lexicon, wordsSummary, err := buildLexicon(cfg, backend.corpus)
	if err != nil {
		slog.Error("failed to initialise word providers", "err", err)
		return 1
	}

	// ── Engine and bot ────────────────────────────────────────────────────────
	retry := resilience.RetryConfig{
		Timeout: cfg.Game.CallTimeout.Std(),
		Backoff: cfg.Game.RetryBackoff.Std(),
	}
	engine := game.NewEngine(lexicon, backend.store, locale.English(),
		game.WithMetrics(metrics),
		game.WithRetry(retry),
	)
	quiz := bot.New(engine, bot.WithMetrics(metrics))

	// ── Config hot reload ─────────────────────────────────────────────────────
	if haveFile {
		watcher, err := config.NewWatcher(*configPath, func(old, updated *config.Config) {
			d := config.Diff(old, updated)
			if d.LogLevelChanged {
				lvl.Set(slogLevel(d.NewLogLevel))
				slog.Info("log level updated", "level", d.NewLogLevel)
			}
			if d.GameChanged {
				slog.Info("game tuning changed on disk — applies on restart",
					"call_timeout", d.NewGame.CallTimeout.Std(),
					"retry_backoff", d.NewGame.RetryBackoff.Std(),
				)
			}
			if d.RestartRequired {
				slog.Warn("storage or provider configuration changed on disk — restart to apply")
			}
		})
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer watcher.Stop()
		}
	}

	// ── Metrics/health listener (optional) ────────────────────────────────────
	var srv *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		health.New(
			health.StoreChecker(backend.ping),
			health.CorpusChecker(backend.corpus),
		).Register(mux)

		srv = &http.Server{
			Addr:    cfg.Server.MetricsAddr,
			Handler: observe.Middleware(metrics)(mux),
		}
		go func() {
			slog.Info("metrics listener started", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics listener error", "err", err)
			}
		}()
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg, backend.label, wordsSummary)

	player := cfg.Game.PlayerName
	if player == "" {
		player = "player"
	}

	slog.Info("ready — press Ctrl+C to shut down")
	chatLoop(ctx, quiz, player)

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down…")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics listener shutdown error", "err", err)
		}
	}
	slog.Info("goodbye")
	return 0
}

// ── Storage wiring ────────────────────────────────────────────────────────────

// storageBackend bundles the challenge store with the corpus living beside it
// and the handles the health endpoints probe.
type storageBackend struct {
	store  store.ChallengeStore
	ping   health.Pinger
	corpus words.Corpus
	label  string
	close  func()
}

// buildStorage selects PostgreSQL when a DSN is configured and the in-memory
// store otherwise. The Postgres path migrates both schemas and seeds the
// corpus from the embedded lexicon when the table is empty.
func buildStorage(ctx context.Context, cfg *config.Config) (*storageBackend, error) {
	if cfg.Storage.PostgresDSN == "" {
		slog.Info("using in-memory storage")
		st := memstore.New()
		corpus, err := memwords.NewCorpus(cfg.Words.CorpusSeed)
		if err != nil {
			return nil, err
		}
		return &storageBackend{
			store:  st,
			ping:   st,
			corpus: corpus,
			label:  "in-memory",
			close:  func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	st := pgstore.New(pool)
	if err := st.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	corpus := pgcorpus.New(pool)
	if err := corpus.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	n, err := corpus.Count(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if n == 0 {
		seed, err := memwords.Words()
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := corpus.Seed(ctx, seed); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("seeded word corpus from embedded lexicon", "words", len(seed))
	}

	slog.Info("using postgres storage", "words", n)
	return &storageBackend{
		store:  st,
		ping:   st,
		corpus: corpus,
		label:  "postgres",
		close:  pool.Close,
	}, nil
}

// ── Word provider wiring ──────────────────────────────────────────────────────

// wordsSummary labels the chosen dictionary and sentence providers for the
// startup summary.
type wordsSummary struct {
	dictionary string
	sentences  string
}

// buildLexicon assembles the dictionary and sentence providers around the
// given corpus. The external dictionary API is used only when an API key is
// configured; the LLM sentence provider always gets the embedded templates as
// a terminal fallback so an outage never blocks a turn.
func buildLexicon(cfg *config.Config, corpus words.Corpus) (words.Source, wordsSummary, error) {
	summary := wordsSummary{dictionary: "embedded", sentences: "templates"}

	var dict words.Dictionary
	if key := cfg.Words.Dictionary.APIKey; key != "" {
		var opts []dictapi.Option
		if cfg.Words.Dictionary.BaseURL != "" {
			opts = append(opts, dictapi.WithBaseURL(cfg.Words.Dictionary.BaseURL))
		}
		dict = dictapi.New(key, opts...)
		summary.dictionary = "api"
	} else {
		d, err := memwords.NewDictionary()
		if err != nil {
			return nil, summary, err
		}
		dict = d
	}

	templates, err := memwords.NewSentences()
	if err != nil {
		return nil, summary, err
	}

	var sentences words.SentenceProvider = templates
	if entry := cfg.Words.Sentences; entry.Name != "" {
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		llm, err := llmwords.New(entry.Name, entry.Model, opts...)
		if err != nil {
			return nil, summary, fmt.Errorf("create sentence provider %q: %w", entry.Name, err)
		}
		chain := words.NewFallbackSentences(llm, entry.Name, resilience.FallbackConfig{})
		chain.AddFallback("templates", templates)
		sentences = chain
		summary.sentences = entry.Name + " / " + entry.Model
		slog.Info("sentence provider created", "name", entry.Name, "model", entry.Model)
	}

	return words.NewLexicon(corpus, dict, sentences, nil), summary, nil
}

// ── Console chat ──────────────────────────────────────────────────────────────

// chatLoop reads utterances from stdin and prints the bot's prompts until the
// context is cancelled or stdin closes. The "/as <name>" command switches the
// active conversation, which makes it possible to play both sides of a
// challenge from one terminal.
func chatLoop(ctx context.Context, quiz *bot.Bot, player string) {
	lines := readLines(ctx, os.Stdin)

	fmt.Printf("[%s] > ", player)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			switch {
			case text == "":
			case strings.HasPrefix(text, "/as "):
				if name := strings.TrimSpace(strings.TrimPrefix(text, "/as ")); name != "" {
					player = name
					fmt.Printf("— now speaking as %s\n", player)
				}
			default:
				prompt, err := quiz.HandleUtterance(ctx, player, text)
				if err != nil {
					slog.Error("utterance failed", "err", err)
					break
				}
				printPrompt(prompt)
			}
			fmt.Printf("[%s] > ", player)
		}
	}
}

// readLines feeds scanned lines into the returned channel and closes it when
// the reader is exhausted or the context is cancelled. The send honours
// cancellation too, so the feeder goroutine exits even when nothing is
// draining the channel anymore.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// printPrompt renders one outbound turn on the console.
func printPrompt(p game.Prompt) {
	if p.Title != "" {
		fmt.Println(p.Title)
	}
	if p.Subtitle != "" {
		fmt.Println(p.Subtitle)
	}
	if p.SpokenText != "" {
		fmt.Printf("  (spoken) %s\n", p.SpokenText)
	}
	if len(p.Replies) > 0 {
		labels := make([]string, len(p.Replies))
		for i, r := range p.Replies {
			labels[i] = "[" + r.Label + "]"
		}
		fmt.Println("  " + strings.Join(labels, " "))
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, storageLabel string, ws wordsSummary) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Spellrush — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Storage", storageLabel)
	printRow("Dictionary", ws.dictionary)
	printRow("Sentences", ws.sentences)
	if cfg.Server.MetricsAddr != "" {
		printRow("Metrics addr", cfg.Server.MetricsAddr)
	} else {
		printRow("Metrics addr", "(disabled)")
	}
	player := cfg.Game.PlayerName
	if player == "" {
		player = "player"
	}
	printRow("Player", player)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(kind, value string) {
	if len([]rune(value)) > 19 {
		value = string([]rune(value)[:16]) + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
