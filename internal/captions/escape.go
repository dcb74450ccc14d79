package captions

import "strings"

var drawtextEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `'\\\''`,
	":", `\:`,
)

// EscapeDrawtext prepares word text for a single-quoted drawtext text option
// inside a filter_complex string. Apostrophes close the quote, emit an escaped
// quote, and reopen; colons and backslashes are escaped so they survive option
// parsing. The drawtext filter runs with expansion=none, so '%' stays literal.
func EscapeDrawtext(text string) string {
	return drawtextEscaper.Replace(singleLine(text))
}

// sanitizeASS neutralizes override-block delimiters and escapes backslashes
// so word text cannot inject ASS markup.
func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return singleLine(s)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
