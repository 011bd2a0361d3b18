package game

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// nearMissThreshold is the minimum Jaro-Winkler similarity between the
// normalized answer and target for [NearMiss] to fire when the phonetic
// codes do not overlap.
const nearMissThreshold = 0.84

// Normalize lowercases s and strips whitespace and the punctuation set
// " .,?!-". Spoken answers arrive with all of those: "S-A-M-P-L-E", "s a m
// p l e." and "sample!" all normalize to "sample".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '.', ',', '?', '!', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Judge reports whether raw is a correct answer for target. The target must
// appear as a substring of the normalized input: this tolerates letter-by-
// letter spelling, filler words, and plain pronunciation, all of which
// produce a superstring of the target. An input that normalizes to the empty
// string is never correct.
func Judge(raw, target string) bool {
	in := Normalize(raw)
	want := Normalize(target)
	if in == "" || want == "" {
		return false
	}
	return strings.Contains(in, want)
}

// NearMiss reports whether raw, while wrong, is close enough to target that
// the player likely knew the word: the Double Metaphone codes overlap, or the
// Jaro-Winkler similarity of the normalized strings reaches the threshold.
// Used only to pick feedback text — never for scoring.
func NearMiss(raw, target string) bool {
	in := Normalize(raw)
	want := Normalize(target)
	if in == "" || want == "" || in == want {
		return false
	}

	p1, s1 := matchr.DoubleMetaphone(in)
	p2, s2 := matchr.DoubleMetaphone(want)
	if p1 != "" && (p1 == p2 || p1 == s2) {
		return true
	}
	if s1 != "" && (s1 == p2 || s1 == s2) {
		return true
	}

	return matchr.JaroWinkler(in, want, false) >= nearMissThreshold
}

// Spell returns word with its letters separated by single spaces, for
// reading a word back letter by letter ("s a m p l e").
func Spell(word string) string {
	runes := []rune(strings.TrimSpace(word))
	parts := make([]string, 0, len(runes))
	for _, r := range runes {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}
