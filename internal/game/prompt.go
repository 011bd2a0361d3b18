package game

import (
	"fmt"
	"strings"

	"github.com/spellrush/spellrush/internal/locale"
	"github.com/spellrush/spellrush/internal/store"
	"github.com/spellrush/spellrush/internal/words"
)

// Reply is one suggested action the transport may render as a button. Value
// is a trigger phrase the intent recognizer accepts verbatim.
type Reply struct {
	Label string
	Value string
}

// Prompt is the outbound side of one chat turn: what to speak, what to show,
// and which follow-up actions to suggest. The transport decides how much of
// it to render.
type Prompt struct {
	SpokenText string
	Title      string
	Subtitle   string
	Replies    []Reply
}

// menuReplies are the suggested actions on the main menu.
func menuReplies(loc *locale.Catalog) []Reply {
	return []Reply{
		{Label: loc.Text("btn_new_game"), Value: "new game"},
		{Label: loc.Text("btn_challenge"), Value: "challenge"},
		{Label: loc.Text("btn_join"), Value: "join"},
		{Label: loc.Text("btn_leaderboard"), Value: "leaderboard"},
	}
}

// roundReplies are the suggested actions while a word awaits an answer.
func roundReplies(loc *locale.Catalog) []Reply {
	return []Reply{
		{Label: loc.Text("btn_repeat"), Value: "repeat"},
		{Label: loc.Text("btn_define"), Value: "define"},
		{Label: loc.Text("btn_sentence"), Value: "sentence"},
		{Label: loc.Text("btn_finish"), Value: "finish"},
	}
}

// resultReplies are the suggested actions after a round result.
func resultReplies(loc *locale.Catalog) []Reply {
	return []Reply{
		{Label: loc.Text("btn_next"), Value: "next"},
		{Label: loc.Text("btn_finish"), Value: "finish"},
	}
}

func menuPrompt(loc *locale.Catalog) Prompt {
	return Prompt{
		SpokenText: loc.Speak("menu_ssml"),
		Title:      loc.Text("menu_title"),
		Subtitle:   loc.Text("menu_subtitle"),
		Replies:    menuReplies(loc),
	}
}

func noGamePrompt(loc *locale.Catalog) Prompt {
	return Prompt{
		SpokenText: loc.Speak("no_game_ssml"),
		Title:      loc.Text("menu_title"),
		Subtitle:   loc.Text("no_game_subtitle"),
		Replies:    menuReplies(loc),
	}
}

// questionPrompt presents a word. The word appears only in the spoken text —
// showing it on the card would hand the player the spelling.
func questionPrompt(loc *locale.Catalog, round int, word string) Prompt {
	return Prompt{
		SpokenText: loc.Speak("question_ssml", round, word),
		Title:      loc.Text("question_title", round),
		Subtitle:   loc.Text("question_subtitle"),
		Replies:    roundReplies(loc),
	}
}

func repeatPrompt(loc *locale.Catalog, round int, word string) Prompt {
	return Prompt{
		SpokenText: loc.Speak("repeat_ssml", word),
		Title:      loc.Text("question_title", round),
		Subtitle:   loc.Text("question_subtitle"),
		Replies:    roundReplies(loc),
	}
}

func definitionPrompt(loc *locale.Catalog, round int, definition string) Prompt {
	return Prompt{
		SpokenText: loc.Speak("definition_ssml", definition),
		Title:      loc.Text("question_title", round),
		Subtitle:   loc.Text("definition_subtitle", definition),
		Replies:    roundReplies(loc),
	}
}

func sentencePrompt(loc *locale.Catalog, round int, s words.Sentence) Prompt {
	return Prompt{
		SpokenText: loc.Speak("sentence_ssml", s.Spoken),
		Title:      loc.Text("question_title", round),
		Subtitle:   loc.Text("sentence_subtitle", s.Display),
		Replies:    roundReplies(loc),
	}
}

// resultPrompt renders a judged answer. closeMiss selects the gentler
// wrong-answer wording; it is ignored when correct.
func resultPrompt(loc *locale.Catalog, correct, closeMiss bool, word string, score, turn int) Prompt {
	if correct {
		return Prompt{
			SpokenText: loc.Speak("answer_correct_ssml", word, score, turn),
			Title:      loc.Text("answer_correct_title"),
			Subtitle:   loc.Text("answer_correct_subtitle", word, score, turn),
			Replies:    resultReplies(loc),
		}
	}
	spelled := Spell(word)
	if closeMiss {
		return Prompt{
			SpokenText: loc.Speak("answer_close_ssml", word, spelled, score, turn),
			Title:      loc.Text("answer_wrong_title"),
			Subtitle:   loc.Text("answer_close_subtitle", word, score, turn),
			Replies:    resultReplies(loc),
		}
	}
	return Prompt{
		SpokenText: loc.Speak("answer_wrong_ssml", word, spelled, score, turn),
		Title:      loc.Text("answer_wrong_title"),
		Subtitle:   loc.Text("answer_wrong_subtitle", word, score, turn),
		Replies:    resultReplies(loc),
	}
}

func finishPrompt(loc *locale.Catalog, score, turns int) Prompt {
	return Prompt{
		SpokenText: loc.Speak("finish_ssml", score, turns),
		Title:      loc.Text("finish_title"),
		Subtitle:   loc.Text("finish_subtitle", score, turns),
		Replies:    menuReplies(loc),
	}
}

func challengeCreatedPrompt(loc *locale.Catalog, token string) Prompt {
	return Prompt{
		SpokenText: loc.Speak("challenge_created_ssml", token),
		Title:      loc.Text("challenge_created_title"),
		Subtitle:   loc.Text("challenge_created_subtitle", token),
		Replies: []Reply{
			{Label: loc.Text("btn_next"), Value: "next"},
			{Label: loc.Text("btn_menu"), Value: "menu"},
		},
	}
}

func challengeJoinPrompt(loc *locale.Catalog) Prompt {
	return Prompt{
		SpokenText: loc.Speak("challenge_join_ssml"),
		Title:      loc.Text("challenge_join_title"),
		Subtitle:   loc.Text("challenge_join_subtitle"),
		Replies: []Reply{
			{Label: loc.Text("btn_menu"), Value: "menu"},
		},
	}
}

func badTokenPrompt(loc *locale.Catalog, token string) Prompt {
	return Prompt{
		SpokenText: loc.Speak("challenge_bad_token_ssml", token),
		Title:      loc.Text("challenge_join_title"),
		Subtitle:   loc.Text("challenge_bad_token_subtitle", token),
		Replies: []Reply{
			{Label: loc.Text("btn_menu"), Value: "menu"},
		},
	}
}

// challengeEndPrompt renders the guest's end of run: word exhaustion plus the
// score comparison against the host.
func challengeEndPrompt(loc *locale.Catalog, outcomeKey string, args []any) Prompt {
	comparison := loc.Text(outcomeKey, args...)
	return Prompt{
		SpokenText: locale.Markup(loc.Text("challenge_exhausted_ssml") + " " + comparison),
		Title:      loc.Text("finish_title"),
		Subtitle:   loc.Text("challenge_exhausted_subtitle") + " " + comparison,
		Replies:    menuReplies(loc),
	}
}

func leaderboardPrompt(loc *locale.Catalog, entries []store.LeaderboardEntry) Prompt {
	if len(entries) == 0 {
		return Prompt{
			SpokenText: loc.Speak("leaderboard_empty"),
			Title:      loc.Text("leaderboard_title"),
			Subtitle:   loc.Text("leaderboard_empty"),
			Replies:    menuReplies(loc),
		}
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s — %d", i+1, e.Player, e.Score)
	}
	return Prompt{
		SpokenText: loc.Speak("leaderboard_ssml"),
		Title:      loc.Text("leaderboard_title"),
		Subtitle:   b.String(),
		Replies:    menuReplies(loc),
	}
}

// providerErrorPrompt tells the player to resubmit. Replies come from the
// caller so the suggested retry matches the failed action.
func providerErrorPrompt(loc *locale.Catalog, replies []Reply) Prompt {
	return Prompt{
		SpokenText: loc.Speak("provider_error_ssml"),
		Title:      loc.Text("menu_title"),
		Subtitle:   loc.Text("provider_error_subtitle"),
		Replies:    replies,
	}
}
