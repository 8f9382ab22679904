package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes a hyphen. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-_")
	if out == "" {
		return "unknown"
	}
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return out
}

// NormalizeTitle lowercases a title and collapses whitespace and punctuation
// so near-identical titles compare equal.
func NormalizeTitle(title string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// TitlePrefixMatch reports whether the normalized forms of a and b share a
// prefix of at least minWords words. Used as the lossy-tolerant fallback
// when action items carry no id.
func TitlePrefixMatch(a, b string, minWords int) bool {
	wa := strings.Fields(NormalizeTitle(a))
	wb := strings.Fields(NormalizeTitle(b))
	if minWords < 1 {
		minWords = 1
	}
	if len(wa) < minWords || len(wb) < minWords {
		// Short titles must match in full.
		return len(wa) > 0 && len(wa) == len(wb) && strings.Join(wa, " ") == strings.Join(wb, " ")
	}
	for i := 0; i < minWords; i++ {
		if wa[i] != wb[i] {
			return false
		}
	}
	return true
}

// DisplayName renders an entity token as a human-readable name.
func DisplayName(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(token))
}
