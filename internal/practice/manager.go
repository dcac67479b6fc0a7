package practice

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/enunciate/internal/observe"
)

// Manager owns all open practice sessions. All methods are safe for
// concurrent use.
type Manager struct {
	limit   atomic.Int64
	metrics *observe.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// ManagerOption configures a [Manager].
type ManagerOption func(*Manager)

// WithManagerMetrics tracks the number of open sessions.
func WithManagerMetrics(m *observe.Metrics) ManagerOption {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// WithClock overrides the clock used for session and recording timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(mgr *Manager) {
		if now != nil {
			mgr.now = now
		}
	}
}

// NewManager returns a Manager whose sessions keep at most maxRecordings
// recordings each. Values below 1 are raised to 1.
func NewManager(maxRecordings int, opts ...ManagerOption) *Manager {
	m := &Manager{
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	m.SetMaxRecordings(maxRecordings)
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetMaxRecordings changes the per-session limit. Existing sessions apply
// it on their next added recording.
func (m *Manager) SetMaxRecordings(n int) {
	m.limit.Store(int64(max(n, 1)))
}

// MaxRecordings returns the current per-session limit.
func (m *Manager) MaxRecordings() int {
	return int(m.limit.Load())
}

// Create opens a new session.
func (m *Manager) Create(ctx context.Context) *Session {
	s := newSession(uuid.NewString(), m.now().UTC(), m.MaxRecordings)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveSessions.Add(ctx, 1)
	}
	slog.DebugContext(ctx, "practice: session created", "session_id", s.id)
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets a session. Its subscribers' channels are closed
// and pending scoring passes for its recordings become no-ops.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.close()
	if m.metrics != nil {
		m.metrics.ActiveSessions.Add(ctx, -1)
	}
	slog.DebugContext(ctx, "practice: session deleted", "session_id", id)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll deletes every session. Used on shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	if m.metrics != nil && len(sessions) > 0 {
		m.metrics.ActiveSessions.Add(ctx, -int64(len(sessions)))
	}
}
