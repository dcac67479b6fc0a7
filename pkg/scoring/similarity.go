package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// maxTokenEdits is the largest Levenshtein distance at which two tokens still
// count as the same word.
const maxTokenEdits = 1

// relatedPrefixLen is the number of leading runes two long tokens must share
// to be considered related.
const relatedPrefixLen = 3

// Similarity returns the fraction of token pairs that match between expected
// and actual. Both strings are split on whitespace; every (expected, actual)
// pair whose Levenshtein distance is at most one counts as a match, and the
// match count is divided by the larger token count.
//
// Matches are counted over the full cross product, so a repeated token can
// match more than once and "hello hello mars" scores 2/3 against "hello
// world there". Left uncapped that count can exceed the token total ("ab ab"
// against itself is 4/2); the cap at 1.0 is a deliberate departure from plain
// over-counting that keeps the result a fraction. Below the cap the
// over-count stands. Two empty inputs are identical and yield 1.0.
func Similarity(expected, actual string) float64 {
	exp := strings.Fields(expected)
	act := strings.Fields(actual)

	longest := max(len(exp), len(act))
	if longest == 0 {
		return 1.0
	}

	matches := 0
	for _, e := range exp {
		for _, a := range act {
			if matchr.Levenshtein(e, a) <= maxTokenEdits {
				matches++
			}
		}
	}
	return min(float64(matches)/float64(longest), 1.0)
}

// IsRelated reports whether actual is loosely related to expected: some token
// of one is a substring of a token of the other, or two tokens longer than
// three runes share their first three runes. The comparison is
// case-insensitive.
func IsRelated(expected, actual string) bool {
	exp := strings.Fields(strings.ToLower(expected))
	act := strings.Fields(strings.ToLower(actual))

	for _, e := range exp {
		for _, a := range act {
			if strings.Contains(e, a) || strings.Contains(a, e) {
				return true
			}
			if sharePrefix(e, a, relatedPrefixLen) {
				return true
			}
		}
	}
	return false
}

// sharePrefix reports whether a and b are both longer than n runes and begin
// with the same n runes.
func sharePrefix(a, b string, n int) bool {
	if utf8.RuneCountInString(a) <= n || utf8.RuneCountInString(b) <= n {
		return false
	}
	ra, rb := []rune(a), []rune(b)
	for i := range n {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}
