package stream

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
	"github.com/JaiminPatel345/glowup-sub000/internal/frame"
	"github.com/JaiminPatel345/glowup-sub000/internal/metrics"
)

// DefaultMaxSessions is the default global connection cap.
const DefaultMaxSessions = 100

// Registry owns all live sessions and enforces the global connection cap.
// The cap counter is the single truly shared value; it is maintained with a
// lock-free CAS loop so a rejected registration leaves no side effects.
type Registry struct {
	clock         clockwork.Clock
	queueCapacity int

	current atomic.Int64
	max     int64

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a registry capped at maxSessions live sessions, each
// with a frame queue of queueCapacity.
func NewRegistry(maxSessions int, queueCapacity int, clock clockwork.Clock) *Registry {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Registry{
		clock:         clock,
		queueCapacity: queueCapacity,
		max:           int64(maxSessions),
		sessions:      make(map[string]*Session),
	}
}

// Register creates and tracks a session for the given channel. It fails with
// a CapacityError, touching nothing, when the live-session count is at the
// cap; the caller must reject the connection.
func (r *Registry) Register(channel Channel, sessionID, userID string) (*Session, error) {
	if !r.acquireSlot() {
		metrics.SessionsTotal.WithLabelValues("rejected").Inc()
		return nil, errors.CapacityError("server at maximum capacity").
			WithContext("max_sessions", r.max)
	}

	session := newSession(channel, sessionID, userID, r.queueCapacity, r.clock)

	r.mu.Lock()
	if _, exists := r.sessions[sessionID]; exists {
		r.mu.Unlock()
		session.Close(1011, "duplicate session id")
		r.releaseSlot()
		return nil, errors.ProtocolError("session id already registered").
			WithContext("session_id", sessionID)
	}
	r.sessions[sessionID] = session
	r.mu.Unlock()

	metrics.SessionsTotal.WithLabelValues("accepted").Inc()
	metrics.ActiveSessions.Set(float64(r.Count()))
	metrics.CapacityUtilization.Set(r.capacityPct())

	slog.Info("Session registered", "session_id", sessionID, "user_id", userID, "active", r.Count())
	return session, nil
}

// Unregister destroys a session: cancels its tasks, closes its queue, drops
// its references, and releases the cap slot. Idempotent and safe on unknown
// ids.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	session, exists := r.sessions[sessionID]
	if exists {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if !exists {
		return
	}

	session.Close(1000, "session ended")
	session.SetReference(ReferenceStyle, nil)
	session.SetReference(ReferenceColor, nil)
	r.releaseSlot()

	duration := r.clock.Since(session.ConnectedAt)
	metrics.ActiveSessions.Set(float64(r.Count()))
	metrics.CapacityUtilization.Set(r.capacityPct())
	metrics.SessionDuration.Observe(duration.Seconds())

	slog.Info("Session unregistered",
		"session_id", sessionID,
		"duration", duration,
		"frames_processed", session.FramesProcessed(),
	)
}

// Get returns the session for the given id, or (nil, false).
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	return session, ok
}

// UpdateReference sets or clears a session's reference image. Unknown ids
// are ignored.
func (r *Registry) UpdateReference(sessionID string, kind ReferenceKind, f *frame.Frame) {
	if session, ok := r.Get(sessionID); ok {
		session.SetReference(kind, f)
	}
}

// RecordCompletion increments a session's frame counters after a successful
// transform. Unknown ids are ignored.
func (r *Registry) RecordCompletion(sessionID string, d time.Duration) {
	if session, ok := r.Get(sessionID); ok {
		session.recordCompletion(d)
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the current live sessions. The slice is a copy; the
// sessions are shared.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Shutdown force-closes and unregisters every live session.
func (r *Registry) Shutdown(code int, reason string) {
	for _, session := range r.Snapshot() {
		session.Close(code, reason)
		r.Unregister(session.ID)
	}
}

func (r *Registry) acquireSlot() bool {
	for {
		current := r.current.Load()
		if current >= r.max {
			return false
		}
		if r.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (r *Registry) releaseSlot() {
	r.current.Add(-1)
}

func (r *Registry) capacityPct() float64 {
	if r.max == 0 {
		return 0
	}
	return float64(r.current.Load()) / float64(r.max) * 100
}
