package practice

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind misses deliveries rather than stalling scoring.
const subscriberBuffer = 16

// Session holds one learner's recent recordings. All methods are safe for
// concurrent use.
type Session struct {
	id        string
	createdAt time.Time
	limit     func() int

	mu         sync.Mutex
	recordings []*Recording // newest first
	subs       map[int]chan Recording
	nextSub    int
	closed     bool
}

func newSession(id string, createdAt time.Time, limit func() int) *Session {
	return &Session{
		id:        id,
		createdAt: createdAt,
		limit:     limit,
		subs:      make(map[int]chan Recording),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// add prepends rec and returns snapshots of the recordings evicted to stay
// within the limit, oldest last.
func (s *Session) add(rec *Recording) ([]Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionNotFound
	}

	s.recordings = slices.Insert(s.recordings, 0, rec)

	limit := max(s.limit(), 1)
	if len(s.recordings) <= limit {
		return nil, nil
	}
	var evicted []Recording
	for _, r := range s.recordings[limit:] {
		evicted = append(evicted, r.snapshot())
	}
	clear(s.recordings[limit:])
	s.recordings = s.recordings[:limit]
	return evicted, nil
}

// Recordings returns copies of the kept recordings, newest first.
func (s *Session) Recordings() []Recording {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recording, len(s.recordings))
	for i, r := range s.recordings {
		out[i] = r.snapshot()
	}
	return out
}

// Recording returns a copy of the recording with the given ID.
func (s *Session) Recording(id string) (Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Recording{}, ErrRecordingNotFound
	}
	return s.recordings[i].snapshot(), nil
}

// Delete removes one recording. A pending scoring pass for it becomes a
// no-op.
func (s *Session) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrRecordingNotFound
	}
	s.recordings = slices.Delete(s.recordings, i, i+1)
	return nil
}

// Clear removes every recording and returns how many there were.
func (s *Session) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.recordings)
	clear(s.recordings)
	s.recordings = s.recordings[:0]
	return n
}

// Subscribe returns a channel that receives every recording delivered from
// now on, and a function that ends the subscription. The channel is closed
// when the subscription ends or the session is deleted.
func (s *Session) Subscribe() (<-chan Recording, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Recording, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// update applies fn to the live recording with the given ID under the
// session lock and returns a snapshot of the result. When fn moves the
// recording to StateDelivered the snapshot is broadcast to subscribers.
func (s *Session) update(id string, fn func(*Recording) error) (Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Recording{}, ErrSessionNotFound
	}
	i := s.index(id)
	if i < 0 {
		return Recording{}, ErrRecordingNotFound
	}
	r := s.recordings[i]
	if err := fn(r); err != nil {
		return Recording{}, err
	}
	snap := r.snapshot()
	if snap.State == StateDelivered {
		s.broadcast(snap)
	}
	return snap, nil
}

// broadcast must be called with s.mu held.
func (s *Session) broadcast(rec Recording) {
	for id, ch := range s.subs {
		select {
		case ch <- rec:
		default:
			slog.Warn("practice: subscriber too slow, dropping delivery",
				"session_id", s.id, "subscriber", id, "recording_id", rec.ID)
		}
	}
}

// close ends every subscription and rejects further changes.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	clear(s.recordings)
	s.recordings = nil
}

// index must be called with s.mu held.
func (s *Session) index(id string) int {
	return slices.IndexFunc(s.recordings, func(r *Recording) bool { return r.ID == id })
}
