// Package intent maps raw chat utterances onto a closed set of intent tags.
//
// Recognition is deliberately dumb: a fixed table of case-insensitive trigger
// patterns, checked in declaration order, first match wins. Anything that
// matches no pattern is [None] and is treated by the game engine as free text
// (usually an answer attempt). Keeping the recognizer a pure function with no
// state is what lets the engine hold a single unambiguous (phase, intent)
// transition table.
package intent

import (
	"regexp"
	"strings"
)

// Intent is a recognized trigger tag. The zero value is [None].
type Intent int

const (
	// None means the utterance matched no trigger phrase and should be
	// treated as free text by the current game phase.
	None Intent = iota

	// Menu opens or returns to the main menu ("menu", "help").
	Menu

	// StartGame begins a fresh survival game ("new game", "start game").
	StartGame

	// Challenge starts creating a challenge for a friend ("challenge",
	// "multiplayer", "invite").
	Challenge

	// Join accepts a challenge token from a friend ("join", "accept
	// challenge").
	Join

	// Leaderboard shows today's top scores ("leaderboard", "high scores",
	// "winners").
	Leaderboard

	// Repeat re-reads the current word without advancing the round.
	Repeat

	// Define asks for a definition of the current word.
	Define

	// Sentence asks for an example sentence using the current word.
	Sentence

	// Next advances to the next round after a result has been shown.
	Next

	// Finish ends the current game and records the final score.
	Finish
)

// String returns the snake_case tag name, used in logs and metrics.
func (i Intent) String() string {
	switch i {
	case Menu:
		return "menu"
	case StartGame:
		return "start_game"
	case Challenge:
		return "challenge"
	case Join:
		return "join"
	case Leaderboard:
		return "leaderboard"
	case Repeat:
		return "repeat"
	case Define:
		return "define"
	case Sentence:
		return "sentence"
	case Next:
		return "next"
	case Finish:
		return "finish"
	default:
		return "none"
	}
}

// trigger pairs a compiled pattern with the intent it produces.
type trigger struct {
	re     *regexp.Regexp
	intent Intent
}

// triggers is the recognition table. Order matters: more specific phrases
// ("next round") sit above the generic ones that could swallow them.
var triggers = []trigger{
	{regexp.MustCompile(`(?i)^(menu|help|main menu|back to menu)$`), Menu},
	{regexp.MustCompile(`(?i)^(new game|start( a)?( new)? game|start|play)$`), StartGame},
	{regexp.MustCompile(`(?i)^(challenge( a friend)?|multiplayer|invite)$`), Challenge},
	{regexp.MustCompile(`(?i)^(join( challenge)?|accept( challenge)?|enter (code|token))$`), Join},
	{regexp.MustCompile(`(?i)^(leaderboard|high scores?|winners?|top scores?)$`), Leaderboard},
	{regexp.MustCompile(`(?i)^(repeat|say (it |that )?again|again please)$`), Repeat},
	{regexp.MustCompile(`(?i)^(define|definition|what does it mean|meaning)$`), Define},
	{regexp.MustCompile(`(?i)^(sentence|example( sentence)?|use it in a sentence)$`), Sentence},
	{regexp.MustCompile(`(?i)^(next( round| word)?|another( one)?|continue)$`), Next},
	{regexp.MustCompile(`(?i)^(finish|done|stop|end game|give up|quit)$`), Finish},
}

// Reserved lists the single-word command tokens that must never be served as
// quiz words: a served word equal to one of these would make the player's
// answer indistinguishable from a command.
var Reserved = []string{
	"menu", "help", "start", "play", "challenge", "multiplayer", "invite",
	"join", "accept", "leaderboard", "winners", "repeat", "again",
	"define", "definition", "meaning", "sentence", "example",
	"next", "another", "continue", "finish", "done", "stop", "quit",
}

// Recognize classifies text. Leading/trailing whitespace and a trailing
// punctuation mark are ignored, so "Next round!" still triggers [Next].
func Recognize(text string) Intent {
	t := strings.TrimSpace(text)
	t = strings.TrimRight(t, ".!?")
	t = strings.TrimSpace(t)
	if t == "" {
		return None
	}
	for _, tr := range triggers {
		if tr.re.MatchString(t) {
			return tr.intent
		}
	}
	return None
}

// IsReserved reports whether word (case-insensitive) collides with a command
// token. Word sources use it to reject ambiguous candidates.
func IsReserved(word string) bool {
	w := strings.ToLower(strings.TrimSpace(word))
	for _, r := range Reserved {
		if w == r {
			return true
		}
	}
	return false
}
