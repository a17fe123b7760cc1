package core

import "strings"

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// SanitizeText strips control characters, collapses surrounding whitespace,
// and truncates to max runes. Escape sequences from hostile task data must
// never reach the terminal.
func SanitizeText(s string, max int) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7f:
			// drop
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	runes := []rune(out)
	if max > 0 && len(runes) > max {
		out = string(runes[:max])
	}
	return out
}
