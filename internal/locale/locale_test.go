package locale_test

import (
	"strings"
	"testing"

	"github.com/spellrush/spellrush/internal/locale"
)

func TestText(t *testing.T) {
	t.Parallel()

	loc := locale.English()
	if got := loc.Text("finish_subtitle", 3, 5); got != "Final score: 3 of 5." {
		t.Errorf("Text = %q", got)
	}
	if got := loc.Text("menu_title"); got != "Spellrush" {
		t.Errorf("Text = %q", got)
	}
}

func TestTextUnknownKeyReturnsKey(t *testing.T) {
	t.Parallel()

	if got := locale.English().Text("no_such_key"); got != "no_such_key" {
		t.Errorf("unknown key resolved to %q", got)
	}
}

func TestSpeakWrapsSSML(t *testing.T) {
	t.Parallel()

	got := locale.English().Speak("question_ssml", 2, "sample")
	if !strings.HasPrefix(got, "<speak>") || !strings.HasSuffix(got, "</speak>") {
		t.Errorf("Speak = %q, want SSML envelope", got)
	}
	if !strings.Contains(got, "sample") {
		t.Errorf("Speak = %q, want the word inside", got)
	}
}

func TestMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"hello", "<speak>hello</speak>"},
		{"  hello  ", "<speak>hello</speak>"},
		{"<speak>done</speak>", "<speak>done</speak>"}, // idempotent
		{"a & b", "<speak>a &amp; b</speak>"},
		{`say "hi"`, "<speak>say &quot;hi&quot;</speak>"},
	}
	for _, tc := range tests {
		if got := locale.Markup(tc.in); got != tc.want {
			t.Errorf("Markup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLang(t *testing.T) {
	t.Parallel()

	if got := locale.English().Lang(); got != "en" {
		t.Errorf("Lang = %q", got)
	}
}
