package practice_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

// ---- helpers ----------------------------------------------------------------

func hello() types.PracticeItem {
	return types.PracticeItem{ID: 6, Text: "hello", Kind: types.KindWord, Difficulty: types.Beginner, Category: "greetings"}
}

func helloAttempt(transcript string) practice.Attempt {
	a := practice.Attempt{
		Item:     hello(),
		Metadata: types.RecordingMetadata{DurationSeconds: 1.0, SizeBytes: 4000},
	}
	if transcript != "" {
		rec := scoring.Recognize("hello", transcript, 0.9)
		a.Recognition = &rec
	}
	return a
}

func newEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	e, err := scoring.New(scoring.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("scoring.New: %v", err)
	}
	return e
}

func practiceConfig(delay time.Duration) config.PracticeConfig {
	cfg := config.Default().Practice
	cfg.FeedbackDelay = delay
	return cfg
}

// fixedScorer returns the same breakdown for every pass.
type fixedScorer struct {
	b types.ScoreBreakdown
}

func (f fixedScorer) Score(context.Context, scoring.Input) types.ScoreBreakdown { return f.b }
func (f fixedScorer) Thresholds() scoring.Thresholds                             { return scoring.DefaultThresholds() }

// memJournal collects appended recordings.
type memJournal struct {
	mu   sync.Mutex
	recs []practice.Recording
}

func (j *memJournal) Append(_ context.Context, rec practice.Recording) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return nil
}

func (j *memJournal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.recs)
}

func newCoach(t *testing.T, scorer practice.Scorer, delay time.Duration, opts ...practice.CoachOption) (*practice.Coach, *practice.Manager) {
	t.Helper()
	mgr := practice.NewManager(3)
	opts = append([]practice.CoachOption{practice.WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	c := practice.NewCoach(mgr, scorer, practiceConfig(delay), opts...)
	t.Cleanup(c.Close)
	return c, mgr
}
