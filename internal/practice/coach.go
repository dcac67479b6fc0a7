package practice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Scorer runs one scoring pass. *scoring.Engine satisfies it; the
// application passes a wrapper that follows engine hot-swaps.
type Scorer interface {
	Score(ctx context.Context, in scoring.Input) types.ScoreBreakdown
	Thresholds() scoring.Thresholds
}

var _ Scorer = (*scoring.Engine)(nil)

// Journal persists delivered recordings.
type Journal interface {
	Append(ctx context.Context, rec Recording) error
}

// Attempt is a learner's recording submitted for scoring.
type Attempt struct {
	Item        types.PracticeItem
	Metadata    types.RecordingMetadata
	Recognition *types.RecognitionResult
}

// Coach turns attempts into delivered recordings. All methods are safe for
// concurrent use.
type Coach struct {
	manager  *Manager
	scorer   Scorer
	settings atomic.Pointer[config.PracticeConfig]
	journal  Journal
	metrics  *observe.Metrics
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
	closed  bool
}

// CoachOption configures a [Coach].
type CoachOption func(*Coach)

// WithRand sets the random source used to pick tips.
func WithRand(r *rand.Rand) CoachOption {
	return func(c *Coach) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithJournal appends every delivered recording to j.
func WithJournal(j Journal) CoachOption {
	return func(c *Coach) {
		c.journal = j
	}
}

// WithCoachMetrics counts submitted recordings.
func WithCoachMetrics(m *observe.Metrics) CoachOption {
	return func(c *Coach) {
		c.metrics = m
	}
}

// NewCoach returns a Coach that stores recordings in mgr's sessions and
// scores them with scorer.
func NewCoach(mgr *Manager, scorer Scorer, cfg config.PracticeConfig, opts ...CoachOption) *Coach {
	c := &Coach{
		manager: mgr,
		scorer:  scorer,
		now:     mgr.now,
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x656e756e)),
		pending: make(map[string]*time.Timer),
	}
	for _, o := range opts {
		o(c)
	}
	c.SetConfig(cfg)
	return c
}

// SetConfig replaces the practice settings. Attempts already waiting for
// their delayed pass keep their schedule.
func (c *Coach) SetConfig(cfg config.PracticeConfig) {
	cfg.Tips = append([]string(nil), cfg.Tips...)
	c.settings.Store(&cfg)
	c.manager.SetMaxRecordings(cfg.MaxRecordings)
}

// Config returns the current practice settings.
func (c *Coach) Config() config.PracticeConfig {
	return *c.settings.Load()
}

// Validate checks an attempt against the current settings.
func (c *Coach) Validate(a Attempt) error {
	cfg := c.settings.Load()
	if limit := cfg.MaxRecordingDuration.Seconds(); limit > 0 && a.Metadata.DurationSeconds > limit {
		return fmt.Errorf("%w: recording lasts %.1fs, the limit is %s",
			ErrInvalidAttempt, a.Metadata.DurationSeconds, cfg.MaxRecordingDuration)
	}
	return nil
}

// Submit stores the attempt in the session as a captured recording and
// schedules its scoring pass. With no feedback delay the pass runs before
// Submit returns and the delivered recording is returned; otherwise the
// captured recording is returned and the result reaches the session's
// subscribers later.
func (c *Coach) Submit(ctx context.Context, sessionID string, a Attempt) (Recording, error) {
	if err := c.Validate(a); err != nil {
		return Recording{}, err
	}
	s, err := c.manager.Get(sessionID)
	if err != nil {
		return Recording{}, err
	}

	rec := &Recording{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Item:        a.Item,
		Metadata:    a.Metadata,
		Recognition: a.Recognition,
		CapturedAt:  c.now().UTC(),
		State:       StateCaptured,
	}
	captured := rec.snapshot()

	evicted, err := s.add(rec)
	if err != nil {
		return Recording{}, err
	}
	for _, e := range evicted {
		slog.DebugContext(ctx, "practice: recording evicted",
			"session_id", sessionID, "recording_id", e.ID, "state", e.State)
	}
	if c.metrics != nil {
		c.metrics.RecordRecording(ctx, a.Item.Kind)
	}

	delay := c.settings.Load().FeedbackDelay
	if delay <= 0 {
		return c.deliver(ctx, s, captured)
	}
	if !c.schedule(context.WithoutCancel(ctx), s, captured, delay) {
		return c.deliver(ctx, s, captured)
	}
	return captured, nil
}

// schedule runs the pass for rec after delay. It reports false when the
// coach is closed and the pass must run inline.
func (c *Coach) schedule(ctx context.Context, s *Session, rec Recording, delay time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	c.pending[rec.ID] = time.AfterFunc(delay, func() {
		defer c.wg.Done()
		c.mu.Lock()
		delete(c.pending, rec.ID)
		c.mu.Unlock()

		if _, err := c.deliver(ctx, s, rec); err != nil {
			slog.DebugContext(ctx, "practice: delayed pass skipped",
				"session_id", rec.SessionID, "recording_id", rec.ID, "err", err)
		}
	})
	return true
}

// deliver runs the scoring pass for rec. If the recording disappears from
// the session in the meantime the pass stops and the error says why.
func (c *Coach) deliver(ctx context.Context, s *Session, rec Recording) (Recording, error) {
	meta := rec.Metadata.Sanitized()
	if _, err := s.update(rec.ID, func(r *Recording) error {
		r.Metadata = meta
		return r.advance(StateSignalsComputed)
	}); err != nil {
		return Recording{}, err
	}

	b := c.scorer.Score(ctx, scoring.Input{
		Item:        rec.Item,
		Recording:   meta,
		Recognition: rec.Recognition,
	})
	if _, err := s.update(rec.ID, func(r *Recording) error {
		r.Breakdown = &b
		return r.advance(StateFused)
	}); err != nil {
		return Recording{}, err
	}

	fb := c.Feedback(b)
	delivered, err := s.update(rec.ID, func(r *Recording) error {
		now := c.now().UTC()
		r.Feedback = &fb
		r.DeliveredAt = &now
		return r.advance(StateDelivered)
	})
	if err != nil {
		return Recording{}, err
	}

	slog.InfoContext(ctx, "practice: feedback delivered",
		"session_id", delivered.SessionID,
		"recording_id", delivered.ID,
		"item_id", delivered.Item.ID,
		"final_accuracy", b.FinalAccuracy,
		"tier", b.Tier,
	)
	if c.journal != nil {
		if err := c.journal.Append(ctx, delivered); err != nil {
			slog.WarnContext(ctx, "practice: journal append failed", "recording_id", delivered.ID, "err", err)
		}
	}
	return delivered, nil
}

// Feedback composes the learner-facing text for b with the current
// settings.
func (c *Coach) Feedback(b types.ScoreBreakdown) Feedback {
	cfg := c.settings.Load()
	return Compose(b, c.scorer.Thresholds(), cfg.Messages, func() string { return c.pickTip(cfg.Tips) })
}

func (c *Coach) pickTip(tips []string) string {
	if len(tips) == 0 {
		return ""
	}
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return tips[c.rng.IntN(len(tips))]
}

// Pending returns the number of scheduled passes that have not started.
func (c *Coach) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close cancels scheduled passes that have not started and waits for running
// ones. Later submissions are scored inline.
func (c *Coach) Close() {
	c.mu.Lock()
	c.closed = true
	for id, t := range c.pending {
		if t.Stop() {
			c.wg.Done()
		}
		delete(c.pending, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}
