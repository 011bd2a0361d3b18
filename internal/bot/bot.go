// Package bot is the transport-session layer: it owns the per-conversation
// game state between turns and dispatches each inbound utterance through the
// game engine. Transports (console, chat connectors) talk to [Bot] only.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spellrush/spellrush/internal/game"
	"github.com/spellrush/spellrush/internal/observe"
)

// conversation holds one conversation's state. Its mutex serializes turns:
// chat turns for one conversation are processed one at a time, so the engine
// never sees concurrent mutation of the same State.
type conversation struct {
	mu    sync.Mutex
	state game.State
}

// Bot maps conversation IDs to game state and runs the engine per turn.
type Bot struct {
	engine  *game.Engine
	metrics *observe.Metrics

	mu    sync.Mutex
	convs map[string]*conversation
}

// Option configures a [Bot].
type Option func(*Bot)

// WithMetrics wires metric recording into the bot.
func WithMetrics(m *observe.Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// New creates a Bot over the given engine.
func New(engine *game.Engine, opts ...Option) *Bot {
	b := &Bot{
		engine: engine,
		convs:  make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// conversationFor returns the conversation for id, creating it on first use.
func (b *Bot) conversationFor(id string) *conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.convs[id]
	if !ok {
		c = &conversation{state: game.State{Phase: game.PhaseIdle}}
		b.convs[id] = c
	}
	return c
}

// HandleUtterance processes one chat turn for one conversation and returns
// the outbound prompt. The successor state is persisted only when the engine
// succeeds; on error the conversation keeps its previous state and the
// caller may resubmit the same utterance.
func (b *Bot) HandleUtterance(ctx context.Context, conversationID, text string) (game.Prompt, error) {
	if conversationID == "" {
		return game.Prompt{}, fmt.Errorf("bot: conversation ID must not be empty")
	}

	ctx, span := observe.StartSpan(ctx, "bot.handle_utterance")
	defer span.End()

	c := b.conversationFor(conversationID)
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	wasActive := c.state.Active()

	next, prompt, err := b.engine.Handle(ctx, conversationID, c.state, text)
	if err != nil {
		observe.Logger(ctx).Error("bot: turn failed",
			"conversation", conversationID, "error", err)
		return game.Prompt{}, fmt.Errorf("bot: handle utterance: %w", err)
	}
	c.state = next

	if b.metrics != nil {
		b.metrics.UtteranceDuration.Record(ctx, time.Since(start).Seconds())
		switch isActive := next.Active(); {
		case isActive && !wasActive:
			b.metrics.ActiveConversations.Add(ctx, 1)
		case !isActive && wasActive:
			b.metrics.ActiveConversations.Add(ctx, -1)
		}
	}

	observe.Logger(ctx).Debug("bot: turn handled",
		"conversation", conversationID,
		"phase", string(next.Phase),
		"turn", next.Turn,
		"score", next.Score)
	return prompt, nil
}

// Snapshot returns a copy of the conversation's current state. The second
// return is false when the conversation is unknown.
func (b *Bot) Snapshot(conversationID string) (game.State, bool) {
	b.mu.Lock()
	c, ok := b.convs[conversationID]
	b.mu.Unlock()
	if !ok {
		return game.State{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, true
}

// Reset drops the conversation's state, returning it to the menu.
func (b *Bot) Reset(conversationID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.convs, conversationID)
}
