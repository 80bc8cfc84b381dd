package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
	"github.com/JaiminPatel345/glowup-sub000/internal/metrics"
)

// IdleReaper periodically force-closes sessions that have gone silent past
// the idle timeout. It is the only component allowed to terminate a session
// the client did not end itself; without it a silent client leaks a queue, a
// worker, and a registry slot forever.
type IdleReaper struct {
	registry *Registry
	clock    clockwork.Clock
	interval time.Duration
	timeout  time.Duration
}

// NewIdleReaper creates a reaper scanning every interval for sessions idle
// longer than timeout.
func NewIdleReaper(registry *Registry, clock clockwork.Clock, interval, timeout time.Duration) *IdleReaper {
	return &IdleReaper{
		registry: registry,
		clock:    clock,
		interval: interval,
		timeout:  timeout,
	}
}

// Run starts the periodic scan loop. It blocks until ctx is cancelled.
func (r *IdleReaper) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.reap(ctx)
		}
	}
}

// reap closes and unregisters every session silent past the timeout.
func (r *IdleReaper) reap(ctx context.Context) {
	now := r.clock.Now()
	for _, session := range r.registry.Snapshot() {
		idle := now.Sub(session.LastActivity())
		if idle <= r.timeout {
			continue
		}

		slog.InfoContext(ctx, "Reaping idle session",
			"session_id", session.ID,
			"idle", idle,
			"timeout", r.timeout,
		)
		session.Close(errors.CloseCodeIdleTimeout, "idle timeout")
		r.registry.Unregister(session.ID)
		metrics.SessionsReaped.Inc()
	}
}
