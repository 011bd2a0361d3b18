package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/spellrush/spellrush/internal/intent"
	"github.com/spellrush/spellrush/internal/locale"
	"github.com/spellrush/spellrush/internal/observe"
	"github.com/spellrush/spellrush/internal/resilience"
	"github.com/spellrush/spellrush/internal/store"
	"github.com/spellrush/spellrush/internal/words"
)

// Difficulty returns the survival difficulty for the word served after turn
// presented words: it climbs one tier per round from 5 and caps at 20.
func Difficulty(turn int) int {
	return 5 + min(turn, 15)
}

// Engine is the conversational state machine. It is stateless between calls:
// [Engine.Handle] takes the conversation's [State], returns the successor,
// and never mutates its input, so a failed transition leaves the caller's
// copy untouched.
type Engine struct {
	source  words.Source
	store   store.ChallengeStore
	coord   *ChallengeCoordinator
	loc     *locale.Catalog
	metrics *observe.Metrics
	retry   resilience.RetryConfig
}

// Option configures an [Engine].
type Option func(*Engine)

// WithMetrics wires metric recording into the engine. Without it no metrics
// are recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRetry overrides the retry policy used for provider and store calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(e *Engine) { e.retry = cfg }
}

// NewEngine creates an Engine over the given word source, challenge store,
// and message catalog.
func NewEngine(source words.Source, st store.ChallengeStore, loc *locale.Catalog, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		store:  st,
		loc:    loc,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.coord = NewChallengeCoordinator(st, e.retry)
	return e
}

// Handle processes one utterance for one conversation. player labels the
// conversation on the leaderboard. The returned State is the successor to
// persist; when a provider call fails the input State comes back unchanged
// together with a retryable prompt.
func (e *Engine) Handle(ctx context.Context, player string, st State, text string) (State, Prompt, error) {
	if err := st.checkInvariants(); err != nil {
		observe.Logger(ctx).Error("game: corrupt state, resetting to idle", "error", err)
		return State{Phase: PhaseIdle}, menuPrompt(e.loc), nil
	}

	in := intent.Recognize(text)
	if e.metrics != nil {
		e.metrics.RecordUtterance(ctx, in.String())
	}

	switch in {
	case intent.Menu:
		return State{Phase: PhaseIdle}, menuPrompt(e.loc), nil

	case intent.StartGame:
		return e.serveNext(ctx, st, State{Mode: ModeSurvival})

	case intent.Challenge:
		return e.createChallenge(ctx, st)

	case intent.Join:
		return State{Phase: PhaseAwaitingToken}, challengeJoinPrompt(e.loc), nil

	case intent.Leaderboard:
		return e.showLeaderboard(ctx, st)

	case intent.Repeat:
		if st.Phase != PhaseAwaitingAnswer {
			return st, noGamePrompt(e.loc), nil
		}
		return st, repeatPrompt(e.loc, st.Turn, st.LastWord), nil

	case intent.Define:
		return e.defineWord(ctx, st)

	case intent.Sentence:
		return e.exampleSentence(ctx, st)

	case intent.Next:
		if st.Phase != PhaseShowingResult {
			return st, noGamePrompt(e.loc), nil
		}
		return e.advance(ctx, player, st)

	case intent.Finish:
		return e.finish(ctx, player, st)

	default: // free text
		switch st.Phase {
		case PhaseAwaitingAnswer:
			return e.judgeAnswer(ctx, st, text)
		case PhaseAwaitingToken:
			return e.joinWithToken(ctx, player, st, text)
		default:
			return st, menuPrompt(e.loc), nil
		}
	}
}

// serveNext draws a fresh word for survival or host play and moves next into
// AwaitingAnswer. On failure the original state orig is returned unchanged.
func (e *Engine) serveNext(ctx context.Context, orig, next State) (State, Prompt, error) {
	difficulty := Difficulty(next.Turn)

	start := time.Now()
	word, err := resilience.DoWithResult(ctx, e.retryNamed("word-source"), func(ctx context.Context) (string, error) {
		return e.source.SurvivalWord(ctx, difficulty)
	})
	e.observeProvider(ctx, "words", "survival_word", start)
	if err != nil {
		return e.providerFailure(ctx, "words", "survival_word", err, orig, resultReplies(e.loc))
	}

	if next.Mode == ModeChallengeHost {
		if err := e.coord.Append(ctx, next.ChallengeToken, word); err != nil {
			return e.providerFailure(ctx, "store", "append_word", err, orig, resultReplies(e.loc))
		}
	}

	next = next.clone()
	next.Turn++
	next.LastWord = word
	next.Phase = PhaseAwaitingAnswer
	if e.metrics != nil {
		e.metrics.RecordRound(ctx, string(next.Mode))
	}
	return next, questionPrompt(e.loc, next.Turn, word), nil
}

// createChallenge reserves a token and puts the conversation into the host
// flow, waiting for "next" to serve the first word.
func (e *Engine) createChallenge(ctx context.Context, st State) (State, Prompt, error) {
	token, err := e.coord.Create(ctx)
	if err != nil {
		return e.providerFailure(ctx, "store", "generate_token", err, st, menuReplies(e.loc))
	}
	if e.metrics != nil {
		e.metrics.ChallengesCreated.Add(ctx, 1)
	}
	next := State{
		Phase:          PhaseShowingResult,
		Mode:           ModeChallengeHost,
		ChallengeToken: token,
	}
	return next, challengeCreatedPrompt(e.loc, token), nil
}

// showLeaderboard renders today's top scores without touching game state.
func (e *Engine) showLeaderboard(ctx context.Context, st State) (State, Prompt, error) {
	entries, err := resilience.DoWithResult(ctx, e.retryNamed("leaderboard"), func(ctx context.Context) ([]store.LeaderboardEntry, error) {
		return e.store.Leaderboard(ctx, store.ScopeToday)
	})
	if err != nil {
		return e.providerFailure(ctx, "store", "leaderboard", err, st, menuReplies(e.loc))
	}
	return st, leaderboardPrompt(e.loc, entries), nil
}

// defineWord fetches a definition for the pending word; state is untouched.
func (e *Engine) defineWord(ctx context.Context, st State) (State, Prompt, error) {
	if st.Phase != PhaseAwaitingAnswer {
		return st, noGamePrompt(e.loc), nil
	}
	start := time.Now()
	def, err := resilience.DoWithResult(ctx, e.retryNamed("dictionary"), func(ctx context.Context) (string, error) {
		return e.source.Definition(ctx, st.LastWord)
	})
	e.observeProvider(ctx, "words", "definition", start)
	if err != nil {
		return e.providerFailure(ctx, "words", "definition", err, st, roundReplies(e.loc))
	}
	return st, definitionPrompt(e.loc, st.Turn, def), nil
}

// exampleSentence fetches a usage example for the pending word; state is
// untouched.
func (e *Engine) exampleSentence(ctx context.Context, st State) (State, Prompt, error) {
	if st.Phase != PhaseAwaitingAnswer {
		return st, noGamePrompt(e.loc), nil
	}
	start := time.Now()
	sen, err := resilience.DoWithResult(ctx, e.retryNamed("sentence"), func(ctx context.Context) (words.Sentence, error) {
		return e.source.ExampleSentence(ctx, st.LastWord)
	})
	e.observeProvider(ctx, "words", "sentence", start)
	if err != nil {
		return e.providerFailure(ctx, "words", "sentence", err, st, roundReplies(e.loc))
	}
	return st, sentencePrompt(e.loc, st.Turn, sen), nil
}

// advance serves the next round after a result. Guests replay the host's
// recorded sequence and end when it is exhausted.
func (e *Engine) advance(ctx context.Context, player string, st State) (State, Prompt, error) {
	if st.Mode != ModeChallengeGuest {
		next := st.clone()
		next.LastWord = ""
		return e.serveNext(ctx, st, next)
	}

	rec, err := e.coord.Fetch(ctx, st.ChallengeToken)
	if err != nil {
		return e.providerFailure(ctx, "store", "fetch", err, st, resultReplies(e.loc))
	}
	word, ok := GuestWord(rec, st.Turn)
	if !ok {
		return e.finishGuest(ctx, player, st, rec)
	}

	next := st.clone()
	next.Turn++
	next.LastWord = word
	next.Phase = PhaseAwaitingAnswer
	if e.metrics != nil {
		e.metrics.RecordRound(ctx, string(next.Mode))
	}
	return next, questionPrompt(e.loc, next.Turn, word), nil
}

// judgeAnswer scores free text against the pending word and shows the result.
// The pending word is resolved exactly once.
func (e *Engine) judgeAnswer(ctx context.Context, st State, text string) (State, Prompt, error) {
	correct := Judge(text, st.LastWord)
	closeMiss := !correct && NearMiss(text, st.LastWord)

	next := st.clone()
	next.AnsweredWords = append(next.AnsweredWords, st.LastWord)
	if correct {
		next.Score++
	}
	next.LastWord = ""
	next.Phase = PhaseShowingResult

	if e.metrics != nil {
		e.metrics.RecordAnswer(ctx, correct)
	}
	return next, resultPrompt(e.loc, correct, closeMiss, st.LastWord, next.Score, next.Turn), nil
}

// joinWithToken reads a 4-digit token in AwaitingToken. An unknown or
// malformed token keeps the conversation in AwaitingToken for a retry.
func (e *Engine) joinWithToken(ctx context.Context, player string, st State, text string) (State, Prompt, error) {
	token := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ".!?"))
	if !store.ValidToken(token) {
		return st, badTokenPrompt(e.loc, token), nil
	}

	rec, err := e.coord.Fetch(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return st, badTokenPrompt(e.loc, token), nil
	}
	if err != nil {
		return e.providerFailure(ctx, "store", "fetch", err, st, menuReplies(e.loc))
	}

	if e.metrics != nil {
		e.metrics.ChallengesJoined.Add(ctx, 1)
	}

	joined := State{Mode: ModeChallengeGuest, ChallengeToken: token}
	word, ok := GuestWord(rec, 0)
	if !ok {
		// The host has not played a single round yet.
		return e.finishGuest(ctx, player, joined, rec)
	}

	joined.Turn = 1
	joined.LastWord = word
	joined.Phase = PhaseAwaitingAnswer
	if e.metrics != nil {
		e.metrics.RecordRound(ctx, string(joined.Mode))
	}
	return joined, questionPrompt(e.loc, joined.Turn, word), nil
}

// finish ends the active game, persisting the result. Finishing with nothing
// active is answered with the menu.
func (e *Engine) finish(ctx context.Context, player string, st State) (State, Prompt, error) {
	if st.Phase == PhaseAwaitingToken {
		return State{Phase: PhaseIdle}, menuPrompt(e.loc), nil
	}
	if !st.Active() {
		return st, noGamePrompt(e.loc), nil
	}

	if st.Mode == ModeChallengeGuest {
		rec, err := e.coord.Fetch(ctx, st.ChallengeToken)
		if err != nil {
			return e.providerFailure(ctx, "store", "fetch", err, st, resultReplies(e.loc))
		}
		return e.finishGuest(ctx, player, st, rec)
	}

	if err := e.saveResult(ctx, player, st); err != nil {
		return e.providerFailure(ctx, "store", "save_result", err, st, resultReplies(e.loc))
	}
	if st.Mode == ModeChallengeHost {
		// After the result row: a duplicated row is benign, a lost final
		// score is not.
		if err := e.coord.Finalize(ctx, st.ChallengeToken, st.Score); err != nil {
			return e.providerFailure(ctx, "store", "finalize", err, st, resultReplies(e.loc))
		}
	}

	next := st.clone()
	next.Phase = PhaseFinished
	next.LastWord = ""
	return next, finishPrompt(e.loc, st.Score, st.Turn), nil
}

// finishGuest ends a guest run with the score comparison against the host.
func (e *Engine) finishGuest(ctx context.Context, player string, st State, rec store.ChallengeRecord) (State, Prompt, error) {
	if err := e.saveResult(ctx, player, st); err != nil {
		return e.providerFailure(ctx, "store", "save_result", err, st, resultReplies(e.loc))
	}

	next := st.clone()
	next.Phase = PhaseFinished
	next.LastWord = ""
	if rec.Score != nil {
		v := *rec.Score
		next.OpponentScore = &v
	}

	key, args := Outcome(st.Score, rec.Score)
	return next, challengeEndPrompt(e.loc, key, args), nil
}

// saveResult persists a finished game for the leaderboard.
func (e *Engine) saveResult(ctx context.Context, player string, st State) error {
	res := store.Result{
		Player: player,
		Score:  st.Score,
		Turns:  st.Turn,
		Token:  st.ChallengeToken,
		Words:  append([]string(nil), st.AnsweredWords...),
	}
	return resilience.Do(ctx, e.retryNamed("save-result"), func(ctx context.Context) error {
		return e.store.SaveResult(ctx, res)
	})
}

// providerFailure logs and counts a failed provider call and hands the
// original state back with a retryable prompt.
func (e *Engine) providerFailure(ctx context.Context, provider, kind string, err error, st State, replies []Reply) (State, Prompt, error) {
	observe.Logger(ctx).Error("game: provider call failed",
		"provider", provider, "kind", kind, "error", err)
	if e.metrics != nil {
		e.metrics.RecordProviderError(ctx, provider, kind)
	}
	return st, providerErrorPrompt(e.loc, replies), nil
}

// observeProvider records the latency of one provider call.
func (e *Engine) observeProvider(ctx context.Context, provider, kind string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.ProviderDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", provider), observe.Attr("kind", kind)))
}

// retryNamed labels the shared retry policy for one call site.
func (e *Engine) retryNamed(name string) resilience.RetryConfig {
	cfg := e.retry
	cfg.Name = name
	return cfg
}
