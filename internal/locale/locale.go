// Package locale turns message keys plus arguments into display text and
// spoken (SSML) text. The engine never embeds user-facing strings directly;
// it asks the catalog, so adding a language means adding a message map.
package locale

import (
	"fmt"
	"log/slog"
)

// Catalog resolves message keys for one language. Catalogs are read-only
// after construction and safe for concurrent use.
type Catalog struct {
	lang     string
	messages map[string]string
}

// English returns the built-in English catalog.
func English() *Catalog {
	return &Catalog{lang: "en", messages: english}
}

// Lang returns the catalog's BCP 47 language tag.
func (c *Catalog) Lang() string { return c.lang }

// Text resolves key and formats it with args. An unknown key resolves to the
// key itself so a missing message is visible in the transcript instead of
// silently blank.
func (c *Catalog) Text(key string, args ...any) string {
	tmpl, ok := c.messages[key]
	if !ok {
		slog.Warn("locale: unknown message key", "lang", c.lang, "key", key)
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Speak resolves key like [Catalog.Text] and wraps the result in SSML speech
// markup for voice surfaces.
func (c *Catalog) Speak(key string, args ...any) string {
	return Markup(c.Text(key, args...))
}

// english is the built-in message catalog. Keys ending in _title/_subtitle
// render on cards; the rest are shared between display and speech.
var english = map[string]string{
	"menu_title":    "Spellrush",
	"menu_subtitle": "Spell your way to the top. What would you like to do?",
	"menu_ssml":     "Welcome to Spellrush! Say new game, challenge a friend, or leaderboard.",

	"question_title":    "Round %d",
	"question_subtitle": "Spell the word you hear. Say repeat, define or sentence for help.",
	"question_ssml":     "Round %d. Your word is: %s.",

	"repeat_ssml": "Once more: %s.",

	"definition_subtitle": "Definition: %s",
	"definition_ssml":     "Here is the definition: %s. Now spell the word.",

	"sentence_subtitle": "Example: %s",
	"sentence_ssml":     "For example: %s. Now spell the word.",

	"answer_correct_title":    "Correct!",
	"answer_correct_subtitle": "%q is right. Score %d of %d.",
	"answer_correct_ssml":     "That's right! %s. Your score is %d out of %d.",

	"answer_wrong_title":    "Not quite",
	"answer_wrong_subtitle": "The word was %q. Score %d of %d.",
	"answer_wrong_ssml":     "Sorry, the word was %s, spelled %s. Your score is %d out of %d.",

	"answer_close_subtitle": "So close! The word was %q. Score %d of %d.",
	"answer_close_ssml":     "So close! The word was %s, spelled %s. Your score is %d out of %d.",

	"finish_title":    "Game over",
	"finish_subtitle": "Final score: %d of %d.",
	"finish_ssml":     "Game over. You scored %d out of %d rounds.",

	"challenge_created_title":    "Challenge ready",
	"challenge_created_subtitle": "Share code %s with a friend, then play your rounds.",
	"challenge_created_ssml":     "Your challenge code is %s. Share it with a friend, then say next to play your rounds.",

	"challenge_join_title":    "Join a challenge",
	"challenge_join_subtitle": "What is the 4-digit challenge code?",
	"challenge_join_ssml":     "Tell me the four digit challenge code.",

	"challenge_bad_token_subtitle": "I couldn't find challenge %s. Try the code again, or say menu.",
	"challenge_bad_token_ssml":     "I couldn't find a challenge with code %s. Say the code again, or say menu to go back.",

	"challenge_result_win":     "You won! %d against %d.",
	"challenge_result_loss":    "You lost, %d against %d.",
	"challenge_result_draw":    "It's a draw at %d each.",
	"challenge_result_pending": "Your opponent hasn't finished yet. You scored %d.",

	"challenge_exhausted_subtitle": "That was every word in this challenge.",
	"challenge_exhausted_ssml":     "That was the last word in this challenge.",

	"leaderboard_title": "Today's leaderboard",
	"leaderboard_empty": "No scores yet today. Start a game and claim the top spot!",
	"leaderboard_ssml":  "Here are today's top scores.",

	"provider_error_subtitle": "I couldn't fetch a word just now. Please try again.",
	"provider_error_ssml":     "Sorry, I couldn't fetch a word just now. Please try again.",

	"no_game_subtitle": "There's no game running. Say new game to start one.",
	"no_game_ssml":     "There's no game running. Say new game to start one.",

	"btn_new_game":    "New game",
	"btn_challenge":   "Challenge a friend",
	"btn_join":        "Join a challenge",
	"btn_leaderboard": "Leaderboard",
	"btn_menu":        "Back to menu",
	"btn_repeat":      "Repeat",
	"btn_define":      "Define",
	"btn_sentence":    "Sentence",
	"btn_next":        "Next round",
	"btn_finish":      "Finish",
}
