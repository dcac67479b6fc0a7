package stt

import "time"

// Transcript is the result of transcribing one recording.
type Transcript struct {
	// Text is the transcribed speech. Empty when nothing was recognised.
	Text string

	// Confidence is the overall confidence score (0.0–1.0). Zero if the
	// provider does not report one.
	Confidence float64

	// Language is the detected or requested language, when known.
	Language string

	// Duration is the length of the transcribed audio.
	Duration time.Duration
}

// IsEmpty reports whether t carries no recognised text.
func (t Transcript) IsEmpty() bool { return t.Text == "" }
