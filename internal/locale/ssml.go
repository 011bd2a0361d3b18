package locale

import "strings"

// Markup wraps plain text in an SSML <speak> envelope, escaping the XML
// special characters. Text that is already wrapped is returned unchanged.
func Markup(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "<speak>") {
		return trimmed
	}
	return "<speak>" + escape(trimmed) + "</speak>"
}

// escape replaces the five XML special characters.
func escape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
