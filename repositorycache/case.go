package repositorycache

import (
	"strings"
	"unicode"
)

// toSnake turns a reflected type name into a cache namespace. Anything that
// is not a letter or digit separates words, so pointer and generic
// decorations never reach a key.
func toSnake(s string) string {
	return strings.Join(splitWords(s), "_")
}

// splitWords breaks s on separators, lower to upper transitions, the last
// capital of an acronym ("HTTPServer" is http, server) and letter/digit
// boundaries. Words are lower cased.
func splitWords(s string) []string {
	runes := []rune(s)
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
				flush()
			case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				flush()
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
