// Package game implements the conversational quiz core: the per-conversation
// [State], the answer judge, the [Engine] state machine that turns incoming
// utterances into state transitions and outbound prompts, and the challenge
// coordinator for asynchronous two-player games.
package game

import "fmt"

// Mode selects the word source and end condition for a game.
type Mode string

const (
	// ModeSurvival is solo play against an escalating difficulty ladder.
	ModeSurvival Mode = "survival"

	// ModeChallengeHost is the token-creating side of a challenge: words are
	// drawn fresh and appended to the shared challenge record.
	ModeChallengeHost Mode = "challenge_host"

	// ModeChallengeGuest is the joining side: words are replayed from the
	// host's recorded sequence.
	ModeChallengeGuest Mode = "challenge_guest"
)

// Phase is the engine state for a conversation.
type Phase string

const (
	// PhaseIdle means no game is active; the menu is the current surface.
	PhaseIdle Phase = "idle"

	// PhaseAwaitingAnswer means a word has been presented and the next free
	// text utterance is judged as an answer.
	PhaseAwaitingAnswer Phase = "awaiting_answer"

	// PhaseShowingResult means the round result has been shown and the engine
	// waits for an explicit "next" or "finish".
	PhaseShowingResult Phase = "showing_result"

	// PhaseAwaitingToken means the conversation is joining a challenge and
	// the next utterance is read as a 4-digit token.
	PhaseAwaitingToken Phase = "awaiting_token"

	// PhaseFinished means the last game ended; its summary is still visible
	// but only menu-level intents do anything.
	PhaseFinished Phase = "finished"
)

// State is the complete game state of one conversation. It is a value: the
// engine takes a State, returns a new one, and never mutates the input, so a
// failed transition leaves the caller's copy untouched. The transport-session
// layer (internal/bot) persists it between turns.
type State struct {
	// Phase is the current engine state.
	Phase Phase

	// Mode determines the word source and end condition. Meaningful only
	// while a game is active.
	Mode Mode

	// Turn counts presented words. It is incremented when a word is served
	// and never decreases. The displayed round number equals Turn (1-based).
	Turn int

	// Score counts correct answers. Score <= Turn always holds.
	Score int

	// LastWord is the word awaiting an answer. Non-empty exactly while a
	// result has not yet been judged for the current turn.
	LastWord string

	// AnsweredWords lists resolved words, correct or not, in play order.
	AnsweredWords []string

	// ChallengeToken identifies the shared challenge record. Set iff Mode is
	// a challenge variant.
	ChallengeToken string

	// OpponentScore caches the other participant's final score when it was
	// available at last read. Nil means not yet available — which is never
	// rendered as zero.
	OpponentScore *int
}

// Active reports whether a game is in progress (a word served or pending).
func (s State) Active() bool {
	switch s.Phase {
	case PhaseAwaitingAnswer, PhaseShowingResult:
		return true
	}
	return false
}

// clone returns a deep copy of s. AnsweredWords and OpponentScore are the
// only fields with reference semantics.
func (s State) clone() State {
	out := s
	if s.AnsweredWords != nil {
		out.AnsweredWords = append([]string(nil), s.AnsweredWords...)
	}
	if s.OpponentScore != nil {
		v := *s.OpponentScore
		out.OpponentScore = &v
	}
	return out
}

// checkInvariants validates the structural invariants of s. A violation is a
// programming error in the engine, not a user error.
func (s State) checkInvariants() error {
	if s.Turn < 0 || s.Score < 0 {
		return fmt.Errorf("game: negative counters (turn=%d score=%d)", s.Turn, s.Score)
	}
	if s.Score > s.Turn {
		return fmt.Errorf("game: score %d exceeds turn %d", s.Score, s.Turn)
	}
	if len(s.AnsweredWords) > s.Turn {
		return fmt.Errorf("game: %d answered words for %d turns", len(s.AnsweredWords), s.Turn)
	}
	if s.Phase == PhaseAwaitingAnswer && s.LastWord == "" {
		return fmt.Errorf("game: awaiting answer with no word pending")
	}
	return nil
}
