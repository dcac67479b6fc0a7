package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrWong99/enunciate/internal/catalog"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

// attemptRequest is the JSON form of a practice attempt. Either ItemID or
// Item selects what was pronounced; a blank Transcript means none arrived.
type attemptRequest struct {
	ItemID          int                 `json:"item_id,omitempty"`
	Item            *types.PracticeItem `json:"item,omitempty"`
	DurationSeconds float64             `json:"duration_seconds"`
	SizeBytes       int64               `json:"size_bytes"`
	Transcript      string              `json:"transcript,omitempty"`
	Confidence      float64             `json:"confidence,omitempty"`
}

// scoreResponse is returned by POST /v1/score.
type scoreResponse struct {
	Item        types.PracticeItem       `json:"item"`
	Recognition *types.RecognitionResult `json:"recognition,omitempty"`
	Breakdown   types.ScoreBreakdown     `json:"breakdown"`
	Feedback    practice.Feedback        `json:"feedback"`
}

// attempt resolves the request's item and builds the attempt.
func (s *Server) attempt(ctx context.Context, req attemptRequest) (practice.Attempt, error) {
	var item types.PracticeItem
	switch {
	case req.Item != nil && req.ItemID != 0:
		return practice.Attempt{}, badRequest("give either item_id or item, not both")
	case req.Item != nil:
		item = *req.Item
		if item.Kind == "" {
			item.Kind = types.KindWord
			if strings.Contains(strings.TrimSpace(item.Text), " ") {
				item.Kind = types.KindPhrase
			}
		}
		if err := catalog.ValidateContent(item); err != nil {
			return practice.Attempt{}, badRequest("invalid item: %v", err)
		}
	case req.ItemID != 0:
		var err error
		if item, err = s.catalog.Get(ctx, req.ItemID); err != nil {
			return practice.Attempt{}, err
		}
	default:
		return practice.Attempt{}, badRequest("item_id or item is required")
	}

	a := practice.Attempt{
		Item:     item,
		Metadata: types.RecordingMetadata{DurationSeconds: req.DurationSeconds, SizeBytes: req.SizeBytes},
	}
	a.Recognition = recognize(item, req.Transcript, req.Confidence)
	return a, nil
}

// recognize compares transcript with the item text; a blank transcript
// yields nil.
func recognize(item types.PracticeItem, transcript string, confidence float64) *types.RecognitionResult {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}
	rec := scoring.Recognize(item.Text, transcript, confidence)
	return &rec
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.attempt(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	b := s.scorer.Score(r.Context(), scoring.Input{
		Item:        a.Item,
		Recording:   a.Metadata.Sanitized(),
		Recognition: a.Recognition,
	})
	writeJSON(w, http.StatusOK, scoreResponse{
		Item:        a.Item,
		Recognition: a.Recognition,
		Breakdown:   b,
		Feedback:    s.coach.Feedback(b),
	})
}
