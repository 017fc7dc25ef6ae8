package normalize

import (
	"html"
	"regexp"
	"strings"
)

var (
	brTagRe      = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	multiSpaceRe = regexp.MustCompile("[ \t ]{2,}")
	multiLineRe  = regexp.MustCompile(`\n{3,}`)
)

// zero-width characters that survive encoding round-trips
var zeroWidth = strings.NewReplacer(
	"​", "",
	"‌", "",
	"‍", "",
	"\uFEFF", "",
)

// CleanText normalizes raw review text: HTML breaks become newlines,
// residual tags and entities are stripped, zero-width and control
// characters are removed, and whitespace is collapsed.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = brTagRe.ReplaceAllString(s, "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = zeroWidth.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\t' || ch >= 32 {
			b.WriteRune(ch)
		}
	}
	s = b.String()

	s = strings.ReplaceAll(s, "\r", "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = multiLineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
