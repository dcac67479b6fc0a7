package scoring

import (
	"math"
	"strings"

	"github.com/MrWong99/enunciate/pkg/types"
)

// secondsPerSyllable is the assumed speaking rate used to derive an expected
// recording duration from the practice text.
const secondsPerSyllable = 0.5

// Audio signal weights. They are part of the heuristic, not configuration.
const (
	audioDurationWeight = 0.4
	audioQualityWeight  = 0.3
	audioSilenceWeight  = 0.3
)

// AudioFallbackScore replaces the audio signal when [ScoreAudio] faults.
const AudioFallbackScore = 35

// SyllableCount approximates the number of syllables in text by counting the
// vowels a, e, i, o and u. It never returns less than one.
func SyllableCount(text string) int {
	n := 0
	for _, r := range strings.ToLower(text) {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			n++
		}
	}
	return max(n, 1)
}

// ExpectedDuration returns the duration in seconds a natural pronunciation
// of text is assumed to take.
func ExpectedDuration(text string) float64 {
	return float64(SyllableCount(text)) * secondsPerSyllable
}

// AnalyzeDuration scores how close actual is to expected (both in seconds).
func AnalyzeDuration(expected, actual float64) int {
	if expected <= 0 {
		return 50
	}
	ratio := actual / expected
	switch {
	case ratio >= 0.8 && ratio <= 1.5:
		return 90
	case ratio >= 0.6 && ratio <= 2.0:
		return 70
	default:
		return 50
	}
}

// AnalyzeAudioQuality scores a recording by whether it is long enough and
// carries enough bytes to plausibly contain speech.
func AnalyzeAudioQuality(meta types.RecordingMetadata) int {
	goodDuration := meta.DurationSeconds > 0.5
	reasonableSize := meta.SizeBytes > 1000
	decentSize := meta.SizeBytes > 5000

	switch {
	case goodDuration && decentSize:
		return 90
	case goodDuration && reasonableSize:
		return 75
	case goodDuration || reasonableSize:
		return 50
	default:
		return 20
	}
}

// AnalyzeSilence estimates how much of the recording is silence from its
// byte rate. Compressed silence encodes to very few bytes per second.
func AnalyzeSilence(meta types.RecordingMetadata) int {
	if meta.DurationSeconds < 0.3 {
		return 10
	}
	bytesPerSecond := float64(meta.SizeBytes) / meta.DurationSeconds
	switch {
	case bytesPerSecond < 1000:
		return 25
	case bytesPerSecond > 3000:
		return 85
	default:
		return 60
	}
}

// ScoreAudio combines the duration, quality and silence heuristics into the
// audio analysis signal, in the range [10, 100].
func ScoreAudio(item types.PracticeItem, meta types.RecordingMetadata) (int, error) {
	if strings.TrimSpace(item.Text) == "" {
		return 0, ErrEmptyText
	}
	meta = meta.Sanitized()

	duration := AnalyzeDuration(ExpectedDuration(item.Text), meta.DurationSeconds)
	quality := AnalyzeAudioQuality(meta)
	silence := AnalyzeSilence(meta)

	total := float64(duration)*audioDurationWeight +
		float64(quality)*audioQualityWeight +
		float64(silence)*audioSilenceWeight
	return clamp(int(math.Round(total)), 10, 100), nil
}

// ── No-transcript speech estimates ──────────────────────────────────────────

// SpeechFallbackFloor is used as the speech signal when the no-transcript
// estimate itself faults. It equals the lower bound of [FallbackSpeech].
const SpeechFallbackFloor = 25

// FallbackSpeech estimates the speech recognition signal from recording
// metadata alone, for attempts where no transcript exists. The result lies
// in [25, 85].
func FallbackSpeech(item types.PracticeItem, meta types.RecordingMetadata) (int, error) {
	if strings.TrimSpace(item.Text) == "" {
		return 0, ErrEmptyText
	}
	meta = meta.Sanitized()

	score := 45
	score += recordingQualityBonus(meta)
	score += durationAccuracyBonus(ExpectedDuration(item.Text), meta.DurationSeconds)

	switch item.Difficulty {
	case types.Beginner:
		score += 8
	case types.Advanced:
		score += 12
	}

	if runeLen(item.Text) > 10 || SyllableCount(item.Text) > 3 {
		score += 8
	}
	return clamp(score, 25, 85), nil
}

func recordingQualityBonus(meta types.RecordingMetadata) int {
	d, s := meta.DurationSeconds, meta.SizeBytes
	switch {
	case d > 1.0 && s > 5000:
		return 15
	case d > 0.5 && s > 2000:
		return 10
	case d > 0.3 && s > 1000:
		return 5
	default:
		return -5
	}
}

// durationAccuracyBonus rewards recordings whose length is near the expected
// pronunciation length. A zero-length recording falls through to the last
// bucket like any other far-off ratio.
func durationAccuracyBonus(expected, actual float64) int {
	if expected <= 0 {
		return 0
	}
	ratio := actual / expected
	switch {
	case ratio >= 0.7 && ratio <= 1.8:
		return 10
	case ratio >= 0.4 && ratio <= 2.5:
		return 5
	default:
		return 0
	}
}

// BasicSpeech is an alternative no-transcript estimate with a higher base
// and a wider range, [35, 90]. It treats a missing duration as one second.
func BasicSpeech(item types.PracticeItem, meta types.RecordingMetadata) (int, error) {
	if strings.TrimSpace(item.Text) == "" {
		return 0, ErrEmptyText
	}
	meta = meta.Sanitized()

	duration := meta.DurationSeconds
	if duration == 0 {
		duration = 1
	}

	score := 60
	ratio := duration / ExpectedDuration(item.Text)
	switch {
	case ratio >= 0.7 && ratio <= 1.5:
		score += 15
	case ratio >= 0.5 && ratio <= 2.0:
		score += 8
	}
	if meta.SizeBytes > 1000 {
		score += 10
	}

	switch item.Difficulty {
	case types.Beginner:
		score += 8
	case types.Advanced:
		score -= 5
	}
	return clamp(score, 35, 90), nil
}
