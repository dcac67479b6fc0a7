package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/enunciate/pkg/types"
)

// PhoneticFallbackScore replaces the phonetic signal when [ScorePhonetic]
// faults.
const PhoneticFallbackScore = 40

// complexSymbols are the IPA characters that mark a transcription as hard.
// The set is matched per character, so the affricates tʃ and dʒ also make
// any transcription containing a plain t or d complex.
const complexSymbols = "θðʃʒtdŋ"

// Complexity classifies how hard a practice item is to pronounce.
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// WordComplexity classifies item by length, syllable count and the presence
// of hard IPA symbols in its phonetic transcription.
func WordComplexity(item types.PracticeItem) Complexity {
	length := runeLen(item.Text)
	syllables := SyllableCount(item.Text)

	switch {
	case length > 10 || syllables > 3 || strings.ContainsAny(item.Phonetic, complexSymbols):
		return Complex
	case length > 6 || syllables > 2:
		return Medium
	default:
		return Simple
	}
}

// AudioQualityFactor is the penalty applied to the phonetic baseline for
// recordings that are too short or too small to be reliable.
func AudioQualityFactor(meta types.RecordingMetadata) int {
	switch {
	case meta.DurationSeconds < 0.5 || meta.SizeBytes < 1000:
		return -15
	case meta.DurationSeconds < 1.0 || meta.SizeBytes < 3000:
		return -5
	default:
		return 0
	}
}

// ScorePhonetic produces the difficulty baseline signal in [20, 85]. It does
// not look at the transcript: the value reflects how hard the item is and
// how usable the recording looks.
func ScorePhonetic(item types.PracticeItem, meta types.RecordingMetadata) (int, error) {
	if strings.TrimSpace(item.Text) == "" {
		return 0, ErrEmptyText
	}
	meta = meta.Sanitized()

	score := 50.0
	switch item.Difficulty {
	case types.Beginner:
		score += 15
	case types.Advanced:
		score -= 10
	}

	switch WordComplexity(item) {
	case Simple:
		score += 10
	case Complex:
		score -= 5
	}

	score += float64(AudioQualityFactor(meta))
	return clamp(int(math.Round(score)), 20, 85), nil
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
