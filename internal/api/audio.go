package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/audio"
	"github.com/MrWong99/enunciate/pkg/provider/stt"
	"github.com/MrWong99/enunciate/pkg/types"
)

// maxAudioBody caps raw PCM uploads at two minutes of 48 kHz stereo.
const maxAudioBody = 2 * 60 * 48000 * 2 * 2

// submitAudio accepts raw signed 16-bit little-endian PCM as the body.
// Query parameters: item_id (required), sample_rate (default 16000) and
// channels (default 1). The audio is transcribed when a transcriber is
// configured; a transcription failure scores the attempt without a
// transcript.
func (s *Server) submitAudio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID, err := strconv.Atoi(q.Get("item_id"))
	if err != nil {
		writeError(w, r, badRequest("item_id must be an integer"))
		return
	}
	format := audio.RecognitionFormat
	if v := q.Get("sample_rate"); v != "" {
		if format.SampleRate, err = strconv.Atoi(v); err != nil {
			writeError(w, r, badRequest("sample_rate must be an integer"))
			return
		}
	}
	if v := q.Get("channels"); v != "" {
		if format.Channels, err = strconv.Atoi(v); err != nil {
			writeError(w, r, badRequest("channels must be an integer"))
			return
		}
	}
	if err := format.Validate(); err != nil {
		writeError(w, r, badRequest("%v", err))
		return
	}

	pcm, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, badRequest("audio body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, badRequest("read audio: %v", err))
		return
	}
	if len(pcm)%2 != 0 {
		writeError(w, r, badRequest("odd byte count %d in 16-bit PCM", len(pcm)))
		return
	}

	item, err := s.catalog.Get(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a := practice.Attempt{Item: item, Metadata: audio.Metadata(pcm, format)}
	// Reject over-long recordings before paying for transcription.
	if err := s.coach.Validate(a); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.manager.Get(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	a.Recognition = s.transcribe(r.Context(), item, pcm, format)
	s.submit(w, r, a)
}

// transcribe returns the recognition result for pcm, or nil when there is no
// transcriber, the audio is silent or transcription fails.
func (s *Server) transcribe(ctx context.Context, item types.PracticeItem, pcm []byte, format audio.Format) *types.RecognitionResult {
	if s.transcriber == nil || len(pcm) == 0 {
		return nil
	}
	log := observe.Logger(ctx)

	mono, err := audio.Convert(pcm, format, audio.RecognitionFormat)
	if err != nil {
		log.Warn("api: audio conversion failed", "format", format, "err", err)
		return nil
	}

	ctx, span := observe.StartSpan(ctx, "api.transcribe", observe.Attr("language", s.language))
	defer span.End()

	start := time.Now()
	tr, err := s.transcriber.Transcribe(ctx, stt.Request{
		PCM:        mono,
		SampleRate: audio.RecognitionFormat.SampleRate,
		Channels:   audio.RecognitionFormat.Channels,
		Language:   s.language,
		Prompt:     s.prompt,
	})
	if err != nil {
		log.Warn("api: transcription failed, scoring without transcript",
			"item_id", item.ID, "elapsed", time.Since(start), "err", err)
		return nil
	}
	log.Debug("api: transcribed", "item_id", item.ID, "text", tr.Text, "elapsed", time.Since(start))
	return recognize(item, tr.Text, tr.Confidence)
}
