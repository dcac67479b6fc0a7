// Package types defines the value types shared by the scoring engine, the
// practice catalog, the HTTP API and the CLI.
//
// Everything here is plain data. Scorers read these values and produce new
// ones; nothing in this package holds state or performs I/O.
package types

import (
	"fmt"
	"math"
)

// Difficulty is the learner-facing difficulty level of a [PracticeItem].
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Difficulties lists all valid difficulty levels in ascending order.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// IsValid reports whether d is one of the known difficulty levels.
func (d Difficulty) IsValid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// ItemKind distinguishes single words from multi-word phrases.
type ItemKind string

const (
	KindWord   ItemKind = "word"
	KindPhrase ItemKind = "phrase"
)

// IsValid reports whether k is a known item kind.
func (k ItemKind) IsValid() bool {
	return k == KindWord || k == KindPhrase
}

// PracticeItem is a word or phrase the learner is asked to pronounce.
// Items are reference data and are never mutated after loading.
type PracticeItem struct {
	ID         int        `json:"id" yaml:"id"`
	Text       string     `json:"text" yaml:"text"`
	Kind       ItemKind   `json:"kind" yaml:"kind"`
	Definition string     `json:"definition,omitempty" yaml:"definition"`
	Category   string     `json:"category,omitempty" yaml:"category"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`

	// Phonetic is the IPA transcription, e.g. "/prəˌnʌnsiˈeɪʃən/".
	Phonetic string `json:"phonetic,omitempty" yaml:"phonetic"`

	// AudioPath points at a reference recording. Optional.
	AudioPath string `json:"audio_path,omitempty" yaml:"audio_path"`
}

// RecordingMetadata is the coarse description of a captured attempt.
// The scorers never look at waveform samples, only at these two numbers.
type RecordingMetadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`
}

// Sanitized returns a copy of m where negative, NaN or infinite values are
// replaced by zero.
func (m RecordingMetadata) Sanitized() RecordingMetadata {
	if math.IsNaN(m.DurationSeconds) || math.IsInf(m.DurationSeconds, 0) || m.DurationSeconds < 0 {
		m.DurationSeconds = 0
	}
	if m.SizeBytes < 0 {
		m.SizeBytes = 0
	}
	return m
}

// RecognitionResult is the outcome of comparing a recognized transcript with
// the expected text. A nil *RecognitionResult means no transcript arrived.
type RecognitionResult struct {
	RecognizedText string  `json:"recognized_text"`
	ExpectedText   string  `json:"expected_text"`
	Similarity     float64 `json:"similarity"`
	Score          int     `json:"score"`

	// Confidence is reported by the transcript producer (0.0–1.0).
	Confidence float64 `json:"confidence"`

	// SoundsAlike marks a transcript that is a homophone of the expected
	// text. It does not affect scoring.
	SoundsAlike bool `json:"sounds_alike,omitempty"`
}

// Tier is the qualitative feedback bucket derived from the final accuracy.
type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierNeedsImprovement Tier = "needsImprovement"
)

// SpeechSource records which path produced the speech recognition signal.
type SpeechSource string

const (
	// SourceTranscript means the speech score came from transcript similarity.
	SourceTranscript SpeechSource = "transcript"

	// SourceFallback means no usable transcript existed and the speech score
	// was estimated from recording metadata.
	SourceFallback SpeechSource = "fallback"
)

// ScoreBreakdown is the result of one scoring pass. It is a value; once
// returned it is never changed.
type ScoreBreakdown struct {
	SpeechRecognition int          `json:"speech_recognition"`
	AudioAnalysis     int          `json:"audio_analysis"`
	Phonetic          int          `json:"phonetic"`
	FinalAccuracy     int          `json:"final_accuracy"`
	Tier              Tier         `json:"tier"`
	SpeechSource      SpeechSource `json:"speech_source"`
}

// String renders a compact single-line summary, used by the CLI and logs.
func (b ScoreBreakdown) String() string {
	return fmt.Sprintf("final=%d tier=%s speech=%d(%s) audio=%d phonetic=%d",
		b.FinalAccuracy, b.Tier, b.SpeechRecognition, b.SpeechSource, b.AudioAnalysis, b.Phonetic)
}
