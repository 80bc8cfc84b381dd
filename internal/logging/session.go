package logging

import (
	"context"
	"fmt"
	"log/slog"
)

type sessionKey struct{}

// WithSessionID returns a new context carrying the given session ID.
// Log records emitted through the context-aware slog calls pick it up
// automatically.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionID extracts the session ID from ctx, returning ("", false) if not
// present.
func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// SessionHandler wraps an existing slog.Handler to automatically inject a
// "session_id" attribute when the context carries one.
type SessionHandler struct {
	inner slog.Handler
}

// NewSessionHandler creates a session-aware handler wrapping the given handler.
func NewSessionHandler(inner slog.Handler) *SessionHandler {
	return &SessionHandler{inner: inner}
}

func (h *SessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *SessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := SessionID(ctx); ok {
		r.AddAttrs(slog.String("session_id", id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("session handler: %w", err)
	}
	return nil
}

func (h *SessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SessionHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *SessionHandler) WithGroup(name string) slog.Handler {
	return &SessionHandler{inner: h.inner.WithGroup(name)}
}
