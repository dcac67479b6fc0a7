// Package practice keeps learners' practice sessions and turns captured
// attempts into delivered feedback.
//
// A [Manager] owns the sessions. Each [Session] keeps its most recent
// recordings, newest first, and evicts the oldest once the configured limit
// is reached. A [Coach] accepts attempts, runs the scoring pass either
// immediately or after the configured feedback delay, and attaches tiered
// feedback text to the result.
//
// Recordings move through [StateCaptured], [StateSignalsComputed],
// [StateFused] and [StateDelivered], strictly forward. Callers only ever see
// copies; a delivered recording never changes again.
package practice

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrWong99/enunciate/pkg/types"
)

var (
	// ErrSessionNotFound is returned when a session ID is unknown or the
	// session was deleted.
	ErrSessionNotFound = errors.New("practice: session not found")

	// ErrRecordingNotFound is returned when a recording ID is unknown to a
	// session, including recordings that were evicted.
	ErrRecordingNotFound = errors.New("practice: recording not found")

	// ErrInvalidAttempt wraps every validation failure of [Attempt].
	ErrInvalidAttempt = errors.New("practice: invalid attempt")

	// errBackwards guards the state machine.
	errBackwards = errors.New("practice: state transition must move forward")
)

// State is the lifecycle stage of a [Recording].
type State string

const (
	StateCaptured        State = "captured"
	StateSignalsComputed State = "signals_computed"
	StateFused           State = "fused"
	StateDelivered       State = "delivered"
)

func (s State) rank() int {
	switch s {
	case StateCaptured:
		return 1
	case StateSignalsComputed:
		return 2
	case StateFused:
		return 3
	case StateDelivered:
		return 4
	default:
		return 0
	}
}

// Feedback is the learner-facing text attached to a delivered recording.
type Feedback struct {
	Tier    types.Tier `json:"tier"`
	Message string     `json:"message"`
	Tip     string     `json:"tip,omitempty"`
}

// Recording is one practice attempt and, once delivered, its result.
type Recording struct {
	ID          string                   `json:"id"`
	SessionID   string                   `json:"session_id"`
	Item        types.PracticeItem       `json:"item"`
	Metadata    types.RecordingMetadata  `json:"metadata"`
	Recognition *types.RecognitionResult `json:"recognition,omitempty"`
	CapturedAt  time.Time                `json:"captured_at"`
	State       State                    `json:"state"`
	Breakdown   *types.ScoreBreakdown    `json:"breakdown,omitempty"`
	Feedback    *Feedback                `json:"feedback,omitempty"`
	DeliveredAt *time.Time               `json:"delivered_at,omitempty"`
}

// advance moves r to next. Staying in place or moving back is an error.
func (r *Recording) advance(next State) error {
	if next.rank() <= r.State.rank() {
		return fmt.Errorf("%w: %s -> %s", errBackwards, r.State, next)
	}
	r.State = next
	return nil
}

// snapshot returns a deep copy that shares nothing with r.
func (r *Recording) snapshot() Recording {
	c := *r
	if r.Recognition != nil {
		rec := *r.Recognition
		c.Recognition = &rec
	}
	if r.Breakdown != nil {
		b := *r.Breakdown
		c.Breakdown = &b
	}
	if r.Feedback != nil {
		f := *r.Feedback
		c.Feedback = &f
	}
	if r.DeliveredAt != nil {
		t := *r.DeliveredAt
		c.DeliveredAt = &t
	}
	return c
}
