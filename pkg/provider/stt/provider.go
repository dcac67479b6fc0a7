// Package stt defines the Provider interface for batch speech-to-text
// backends.
//
// A learner's attempt is short (a word or phrase, a few seconds at most), so
// providers transcribe a whole recording in one request rather than
// streaming. Implementations must be safe for concurrent use.
package stt

import "context"

// Request is one recording to transcribe.
type Request struct {
	// PCM is signed 16-bit little-endian audio.
	PCM []byte

	// SampleRate is the audio sample rate in Hz. Most providers expect
	// 16000; see [github.com/MrWong99/enunciate/pkg/audio] for conversion.
	SampleRate int

	// Channels is the number of interleaved channels. 1 = mono.
	Channels int

	// Language is the BCP-47 language tag (e.g., "en"). Empty lets the
	// provider auto-detect, if supported.
	Language string

	// Prompt is an optional decoding hint such as the vocabulary domain.
	// Providers that support prompting forward it unchanged.
	Prompt string
}

// Provider transcribes recordings.
type Provider interface {
	// Transcribe returns the transcript of req. A silent recording yields an
	// empty [Transcript] and a nil error.
	Transcribe(ctx context.Context, req Request) (Transcript, error)
}
