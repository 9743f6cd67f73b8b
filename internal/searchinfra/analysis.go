package searchinfra

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// words lowercases s and splits it on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// edgeGrams returns the edge n-grams of every word, as the autocomplete
// analyzer indexes them.
func edgeGrams(ws []string, a query.Analyzer) map[string]bool {
	grams := make(map[string]bool)
	for _, w := range ws {
		runes := []rune(w)
		for n := a.MinGram; n <= a.MaxGram && n <= len(runes); n++ {
			grams[string(runes[:n])] = true
		}
	}
	return grams
}

// autoFuzziness mirrors the AUTO edit distance: exact for 1-2 characters,
// one edit for 3-5 and two edits above.
func autoFuzziness(term string) int {
	switch n := len([]rune(term)); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

func sharesPrefix(a, b string, n int) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < n || len(rb) < n {
		return false
	}
	return string(ra[:n]) == string(rb[:n])
}

// fuzzyMatch reports whether term is within the allowed edit distance of
// some gram and returns the closest distance.
func fuzzyMatch(term string, grams map[string]bool, prefixLength int) (int, bool) {
	if grams[term] {
		return 0, true
	}
	max := autoFuzziness(term)
	if max == 0 {
		return 0, false
	}
	best := -1
	for g := range grams {
		if !sharesPrefix(term, g, prefixLength) {
			continue
		}
		if d := levenshtein.ComputeDistance(term, g); d <= max && (best < 0 || d < best) {
			best = d
		}
	}
	return best, best >= 0
}

// phraseMatch reports whether terms occur in order in ws with at most slop
// positions skipped in total.
func phraseMatch(ws, terms []string, slop int) bool {
	if len(terms) == 0 {
		return false
	}
	for start, w := range ws {
		if w != terms[0] {
			continue
		}
		pos, gaps, ok := start, 0, true
		for _, t := range terms[1:] {
			next := -1
			for j := pos + 1; j < len(ws) && j-pos-1+gaps <= slop; j++ {
				if ws[j] == t {
					next = j
					break
				}
			}
			if next < 0 {
				ok = false
				break
			}
			gaps += next - pos - 1
			pos = next
		}
		if ok {
			return true
		}
	}
	return false
}

// phrasePrefixMatch requires every term but the last to match consecutive
// words and the last to prefix the following word.
func phrasePrefixMatch(ws, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	last := len(terms) - 1
	for start := 0; start+last < len(ws); start++ {
		ok := true
		for i, t := range terms[:last] {
			if ws[start+i] != t {
				ok = false
				break
			}
		}
		if ok && strings.HasPrefix(ws[start+last], terms[last]) {
			return true
		}
	}
	return false
}
