package practice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/types"
)

func TestManager_CreateGetDelete(t *testing.T) {
	t.Parallel()

	mgr := practice.NewManager(3)
	s := mgr.Create(context.Background())
	if s.ID() == "" {
		t.Fatal("session ID is empty")
	}
	if mgr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", mgr.Len())
	}

	got, err := mgr.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v; want the created session", got, err)
	}

	if err := mgr.Delete(context.Background(), s.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := mgr.Get(s.ID()); !errors.Is(err, practice.ErrSessionNotFound) {
		t.Errorf("Get after delete err = %v, want ErrSessionNotFound", err)
	}
	if err := mgr.Delete(context.Background(), s.ID()); !errors.Is(err, practice.ErrSessionNotFound) {
		t.Errorf("second Delete err = %v, want ErrSessionNotFound", err)
	}
}

func TestManager_UniqueIDs(t *testing.T) {
	t.Parallel()

	mgr := practice.NewManager(3)
	seen := make(map[string]bool)
	for range 50 {
		id := mgr.Create(context.Background()).ID()
		if seen[id] {
			t.Fatalf("duplicate session ID %s", id)
		}
		seen[id] = true
	}
}

func TestManager_WithClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	mgr := practice.NewManager(3, practice.WithClock(func() time.Time { return at }))
	if got := mgr.Create(context.Background()).CreatedAt(); !got.Equal(at) {
		t.Errorf("CreatedAt() = %v, want %v", got, at)
	}
}

func TestManager_MaxRecordingsFloor(t *testing.T) {
	t.Parallel()

	mgr := practice.NewManager(0)
	if mgr.MaxRecordings() != 1 {
		t.Errorf("MaxRecordings() = %d, want 1", mgr.MaxRecordings())
	}
	mgr.SetMaxRecordings(5)
	if mgr.MaxRecordings() != 5 {
		t.Errorf("MaxRecordings() = %d, want 5", mgr.MaxRecordings())
	}
}

func TestSession_KeepsNewestAndEvicts(t *testing.T) {
	t.Parallel()

	c, mgr := newCoach(t, fixedScorer{b: types.ScoreBreakdown{FinalAccuracy: 80, Tier: types.TierGood}}, 0)
	s := mgr.Create(context.Background())

	var ids []string
	for range 4 {
		rec, err := c.Submit(context.Background(), s.ID(), helloAttempt(""))
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	got := s.Recordings()
	if len(got) != 3 {
		t.Fatalf("len(Recordings()) = %d, want 3", len(got))
	}
	for i, want := range []string{ids[3], ids[2], ids[1]} {
		if got[i].ID != want {
			t.Errorf("Recordings()[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
	if _, err := s.Recording(ids[0]); !errors.Is(err, practice.ErrRecordingNotFound) {
		t.Errorf("evicted recording err = %v, want ErrRecordingNotFound", err)
	}
}

func TestSession_LimitChangeAppliesOnNextAdd(t *testing.T) {
	t.Parallel()

	c, mgr := newCoach(t, fixedScorer{b: types.ScoreBreakdown{Tier: types.TierGood}}, 0)
	s := mgr.Create(context.Background())
	for range 3 {
		if _, err := c.Submit(context.Background(), s.ID(), helloAttempt("")); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	cfg := c.Config()
	cfg.MaxRecordings = 1
	c.SetConfig(cfg)
	if len(s.Recordings()) != 3 {
		t.Fatalf("limit change evicted eagerly")
	}

	if _, err := c.Submit(context.Background(), s.ID(), helloAttempt("")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n := len(s.Recordings()); n != 1 {
		t.Errorf("len(Recordings()) = %d, want 1", n)
	}
}

func TestSession_DeleteAndClear(t *testing.T) {
	t.Parallel()

	c, mgr := newCoach(t, fixedScorer{b: types.ScoreBreakdown{Tier: types.TierGood}}, 0)
	s := mgr.Create(context.Background())
	first, _ := c.Submit(context.Background(), s.ID(), helloAttempt(""))
	_, _ = c.Submit(context.Background(), s.ID(), helloAttempt(""))

	if err := s.Delete(first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(first.ID); !errors.Is(err, practice.ErrRecordingNotFound) {
		t.Errorf("second Delete err = %v, want ErrRecordingNotFound", err)
	}
	if n := s.Clear(); n != 1 {
		t.Errorf("Clear() = %d, want 1", n)
	}
	if n := len(s.Recordings()); n != 0 {
		t.Errorf("len(Recordings()) after Clear = %d, want 0", n)
	}
}

func TestSession_SnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	c, mgr := newCoach(t, newEngine(t), 0)
	s := mgr.Create(context.Background())
	rec, err := c.Submit(context.Background(), s.ID(), helloAttempt("hello"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rec.Breakdown.FinalAccuracy = 0
	rec.Feedback.Message = "mutated"
	rec.Recognition.RecognizedText = "mutated"

	again, _ := s.Recording(rec.ID)
	if again.Breakdown.FinalAccuracy != 90 {
		t.Errorf("stored FinalAccuracy = %d, want 90", again.Breakdown.FinalAccuracy)
	}
	if again.Feedback.Message == "mutated" || again.Recognition.RecognizedText == "mutated" {
		t.Error("mutating a snapshot changed the stored recording")
	}
}

func TestSession_SubscribeClosedOnDelete(t *testing.T) {
	t.Parallel()

	mgr := practice.NewManager(3)
	s := mgr.Create(context.Background())
	ch, cancel := s.Subscribe()
	defer cancel()

	if err := mgr.Delete(context.Background(), s.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received a value, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed after session delete")
	}

	// Subscribing to a deleted session yields a closed channel.
	ch2, cancel2 := s.Subscribe()
	defer cancel2()
	if _, ok := <-ch2; ok {
		t.Error("Subscribe on deleted session returned an open channel")
	}
}

func TestSession_UnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	s := practice.NewManager(3).Create(context.Background())
	ch, cancel := s.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
}
