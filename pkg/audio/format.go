// Package audio contains the small amount of PCM arithmetic the server needs:
// deriving recording metadata from raw audio and preparing it for speech
// recognition. All functions operate on signed 16-bit little-endian PCM.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MrWong99/enunciate/pkg/types"
)

// bytesPerSample is fixed at 2 for 16-bit PCM.
const bytesPerSample = 2

// DefaultSilenceRMS is the root-mean-square level (in 16-bit PCM units) below
// which a buffer is treated as silent. The maximum for 16-bit audio is
// 32 767; 300 corresponds to near-silence.
const DefaultSilenceRMS = 300.0

// Format describes the sample rate and channel count of a PCM buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// RecognitionFormat is what speech recognition providers expect: 16 kHz mono.
var RecognitionFormat = Format{SampleRate: 16000, Channels: 1}

// Validate checks that f describes a supported layout.
func (f Format) Validate() error {
	var errs []error
	if f.SampleRate < 8000 || f.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample rate %d out of range [8000, 192000]", f.SampleRate))
	}
	if f.Channels != 1 && f.Channels != 2 {
		errs = append(errs, fmt.Errorf("channels %d unsupported; want 1 or 2", f.Channels))
	}
	return errors.Join(errs...)
}

// BytesPerSecond returns the PCM data rate of f.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * bytesPerSample
}

// Duration returns the playback length of pcm in format f.
// Returns 0 for an invalid format.
func (f Format) Duration(pcm []byte) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(int64(len(pcm)) * int64(time.Second) / int64(bps))
}

// String returns e.g. "48000Hz stereo".
func (f Format) String() string {
	ch := "mono"
	if f.Channels == 2 {
		ch = "stereo"
	} else if f.Channels > 2 {
		ch = fmt.Sprintf("%dch", f.Channels)
	}
	return fmt.Sprintf("%dHz %s", f.SampleRate, ch)
}

// Metadata derives the recording metadata the scorers consume from a raw
// PCM buffer.
func Metadata(pcm []byte, f Format) types.RecordingMetadata {
	return types.RecordingMetadata{
		DurationSeconds: f.Duration(pcm).Seconds(),
		SizeBytes:       int64(len(pcm)),
	}
}

// RMS returns the root-mean-square energy of pcm in PCM sample units.
// Returns 0 for buffers shorter than one sample.
func RMS(pcm []byte) float64 {
	n := len(pcm) / bytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// IsSilent reports whether the RMS energy of pcm is below threshold.
func IsSilent(pcm []byte, threshold float64) bool {
	return RMS(pcm) < threshold
}
