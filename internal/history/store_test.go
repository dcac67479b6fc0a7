package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/types"
)

func delivered(id string, final int) practice.Recording {
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return practice.Recording{
		ID:          id,
		SessionID:   "s1",
		Item:        types.PracticeItem{ID: 6, Text: "hello", Difficulty: types.Beginner},
		Metadata:    types.RecordingMetadata{DurationSeconds: 1.2, SizeBytes: 4000},
		Recognition: &types.RecognitionResult{RecognizedText: "hello"},
		State:       practice.StateDelivered,
		Breakdown:   &types.ScoreBreakdown{FinalAccuracy: final, Tier: types.TierExcellent},
		Feedback:    &practice.Feedback{Tier: types.TierExcellent, Message: "Great"},
		DeliveredAt: &at,
	}
}

func TestFileStore_AppendAndReadAll(t *testing.T) {
	t.Parallel()

	fs := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	ctx := context.Background()
	if err := fs.Append(ctx, delivered("r1", 90)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := fs.Append(ctx, delivered("r2", 72)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	recs, err := fs.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].RecordingID != "r1" || recs[1].Breakdown.FinalAccuracy != 72 {
		t.Errorf("records = %+v", recs)
	}
	if recs[0].RecognizedAs != "hello" || recs[0].Message != "Great" {
		t.Errorf("record fields = %+v", recs[0])
	}
	if !recs[0].Timestamp.Equal(*delivered("r1", 90).DeliveredAt) {
		t.Errorf("Timestamp = %v, want delivery time", recs[0].Timestamp)
	}
}

func TestFileStore_RejectsUndelivered(t *testing.T) {
	t.Parallel()

	fs := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	rec := delivered("r1", 90)
	rec.State = practice.StateFused
	if err := fs.Append(context.Background(), rec); err == nil {
		t.Fatal("expected error for undelivered recording, got nil")
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	t.Parallel()

	recs, err := NewFileStore(filepath.Join(t.TempDir(), "none.jsonl")).ReadAll()
	if err != nil || recs != nil {
		t.Errorf("ReadAll = %v, %v; want nil, nil", recs, err)
	}
}

func TestFileStore_CorruptLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.jsonl")
	if err := os.WriteFile(path, []byte("{\"recording_id\":\"r1\"}\n\nnot json\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileStore(path).ReadAll()
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("err = %v, want error mentioning line 3", err)
	}
}

func TestFileStore_ConcurrentAppends(t *testing.T) {
	t.Parallel()

	fs := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fs.Append(context.Background(), delivered("r", i)); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	recs, err := fs.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 20 {
		t.Errorf("len = %d, want 20", len(recs))
	}
}
