package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/JaiminPatel345/glowup-sub000/internal/errors"
	"github.com/JaiminPatel345/glowup-sub000/internal/metrics"
	"github.com/JaiminPatel345/glowup-sub000/internal/stream"
	"github.com/JaiminPatel345/glowup-sub000/internal/version"
)

// workerStopTimeout bounds how long a finished handler waits for its
// transform worker to drain after the session is unregistered.
const workerStopTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // clients connect from arbitrary app origins
	},
}

// handleStream admits one streaming connection: per-IP limits, upgrade,
// registration against the global cap, then the session's controller loop
// until the client disconnects or the session is reaped.
func (s *Server) handleStream(c echo.Context) error {
	ip := c.RealIP()
	if ok, reason := s.limits.Acquire(ip); !ok {
		metrics.ConnectionsRejected.WithLabelValues(string(reason)).Inc()
		slog.Warn("Connection rejected", "reason", reason, "ip", ip)
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many connections"})
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}
	channel := newWSChannel(conn)

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = "anonymous"
	}
	sessionID := uuid.NewString()

	session, err := s.registry.Register(channel, sessionID, userID)
	if err != nil {
		streamErr := errors.AsStreamError(err)
		metrics.ConnectionsRejected.WithLabelValues("global_limit").Inc()
		slog.Warn("Connection rejected", "reason", "global_limit", "ip", ip)
		_ = channel.Close(streamErr.CloseCode(), streamErr.Message)
		return nil
	}

	worker := stream.NewTransformWorker(session, s.registry, s.transformer, s.clock, s.config.TargetFrameLatency)
	go worker.Run(session.Context())

	controller := stream.NewSessionController(session, s.registry, s.clock)
	if runErr := controller.Run(session.Context()); runErr != nil {
		slog.Debug("Session loop ended", "session_id", sessionID, "error", runErr)
	}

	s.registry.Unregister(sessionID)

	select {
	case <-worker.Done():
	case <-time.After(workerStopTimeout):
		slog.Warn("Transform worker did not stop in time", "session_id", sessionID)
	}

	return nil
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleReadiness reports 503 once the global cap is reached, so a load
// balancer stops routing new clients here while live sessions continue.
func (s *Server) handleReadiness(c echo.Context) error {
	active := s.registry.Count()
	body := map[string]any{
		"status":          "ready",
		"active_sessions": active,
		"max_connections": s.config.MaxConnections,
	}
	if active >= s.config.MaxConnections {
		body["status"] = "at_capacity"
		return c.JSON(503, body)
	}
	return c.JSON(200, body)
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(200, s.stats.Collect())
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}
