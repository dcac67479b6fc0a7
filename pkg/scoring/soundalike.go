package scoring

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// SoundsAlike reports whether recognized is a homophone of expected, such as
// "no" heard for "know". Both must have the same number of words and every
// word pair must share a Double Metaphone code. Texts that are equal after
// lower-casing and stripping punctuation do not count.
//
// The result is informational. It does not change any score; recognizers
// legitimately return either spelling.
func SoundsAlike(expected, recognized string) bool {
	exp := words(expected)
	rec := words(recognized)
	if len(exp) == 0 || len(exp) != len(rec) {
		return false
	}
	if strings.Join(exp, " ") == strings.Join(rec, " ") {
		return false
	}
	for i := range exp {
		if !shareCode(exp[i], rec[i]) {
			return false
		}
	}
	return true
}

// words lower-cases s and splits it into words with surrounding punctuation
// removed.
func words(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// shareCode reports whether a and b have a Double Metaphone code in common.
// Words without a code (no consonants) only match themselves.
func shareCode(a, b string) bool {
	if a == b {
		return true
	}
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return false
}
