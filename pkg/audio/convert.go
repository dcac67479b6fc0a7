package audio

import (
	"fmt"
	"log/slog"
)

// Convert returns pcm re-encoded from format from into format to. Stereo is
// downmixed before resampling so only one channel has to be interpolated.
// An odd byte count is rejected as corrupt.
func Convert(pcm []byte, from, to Format) ([]byte, error) {
	if len(pcm)%bytesPerSample != 0 {
		return nil, fmt.Errorf("audio: odd byte count %d in 16-bit PCM", len(pcm))
	}
	if err := from.Validate(); err != nil {
		return nil, fmt.Errorf("audio: source format: %w", err)
	}
	if err := to.Validate(); err != nil {
		return nil, fmt.Errorf("audio: target format: %w", err)
	}
	if from == to {
		return pcm, nil
	}

	slog.Debug("audio: converting", "from", from, "to", to, "bytes", len(pcm))

	out := pcm
	channels := from.Channels
	if channels == 2 && to.Channels == 1 {
		out = StereoToMono(out)
		channels = 1
	}
	if from.SampleRate != to.SampleRate {
		if channels == 1 {
			out = ResampleMono16(out, from.SampleRate, to.SampleRate)
		} else {
			out = MonoToStereo(ResampleMono16(StereoToMono(out), from.SampleRate, to.SampleRate))
		}
	}
	if channels == 1 && to.Channels == 2 {
		out = MonoToStereo(out)
	}
	return out, nil
}

// MonoToStereo duplicates each int16 mono sample into a stereo L+R pair.
func MonoToStereo(pcm []byte) []byte {
	out := make([]byte, (len(pcm)/2)*4)
	for i := 0; i+1 < len(pcm); i += 2 {
		lo, hi := pcm[i], pcm[i+1]
		j := i * 2
		out[j], out[j+1] = lo, hi
		out[j+2], out[j+3] = lo, hi
	}
	return out
}

// StereoToMono averages L+R per stereo frame (4 bytes) to produce mono output.
func StereoToMono(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := range frames {
		l := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		r := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		avg := max(-32768, min((l+r)/2, 32767))

		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// ResampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using
// linear interpolation. If the rates match or are invalid, pcm is returned
// unchanged.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstSamples {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		s1 := s0
		if srcIdx+1 < srcSamples {
			s1 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		}

		v := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}
