// Package compare holds the pure token logic behind dataset uploads and analysis:
// normalization of raw comma separated text, reference comparison, cross-upload
// frequency and numeric totals.
package compare

import (
	"strings"
	"unicode"
)

var bracketStripper = strings.NewReplacer(
	"[", "",
	"]", "",
	"{", "",
	"}", "",
	"(", "",
	")", "",
)

// Normalize strips bracket characters and rejoins the non-empty trimmed comma
// separated tokens with single commas. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.Join(Tokenize(bracketStripper.Replace(raw)), ",")
}

// byteOrderMark is left at the start of text files saved by some editors.
const byteOrderMark = '\uFEFF'

func isPadding(r rune) bool {
	return unicode.IsSpace(r) || r == byteOrderMark
}

// Tokenize splits on commas, trims whitespace and byte order marks from every
// piece and drops empty ones.
func Tokenize(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimFunc(part, isPadding); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}
