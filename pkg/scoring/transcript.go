package scoring

import (
	"math"
	"strings"

	"github.com/MrWong99/enunciate/pkg/types"
)

// Unrelated transcripts that score below unrelatedFloor are capped at
// unrelatedCap so an accidental partial match cannot lift them.
const (
	unrelatedFloor = 30
	unrelatedCap   = 25
)

// TranscriptScore is the result of comparing a recognized transcript with
// the expected text.
type TranscriptScore struct {
	Score      int
	Similarity float64
}

// ScoreTranscript scores how closely recognized matches expected. Both
// strings are lower-cased and trimmed, compared with [Similarity] and scaled
// to 0–100. A low score for a transcript that is not even [IsRelated] to the
// expected text is capped at 25.
func ScoreTranscript(expected, recognized string) TranscriptScore {
	exp := strings.ToLower(strings.TrimSpace(expected))
	rec := strings.ToLower(strings.TrimSpace(recognized))

	sim := Similarity(exp, rec)
	score := int(math.Round(sim * 100))
	if score < unrelatedFloor && !IsRelated(exp, rec) {
		score = min(score, unrelatedCap)
	}
	return TranscriptScore{
		Score:      clamp(score, 0, 100),
		Similarity: sim,
	}
}

// Recognize builds a [types.RecognitionResult] for a final transcript.
// Transcript producers call it once per attempt and hand the result to the
// engine.
func Recognize(expected, recognized string, confidence float64) types.RecognitionResult {
	ts := ScoreTranscript(expected, recognized)
	return types.RecognitionResult{
		RecognizedText: strings.TrimSpace(recognized),
		ExpectedText:   expected,
		Similarity:     ts.Similarity,
		Score:          ts.Score,
		Confidence:     confidence,
		SoundsAlike:    SoundsAlike(expected, recognized),
	}
}
