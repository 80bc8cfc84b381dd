package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/JaiminPatel345/glowup-sub000/internal/config"
	"github.com/JaiminPatel345/glowup-sub000/internal/stream"
	"github.com/JaiminPatel345/glowup-sub000/internal/transform"
)

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	registry    *stream.Registry
	transformer transform.Transformer
	limits      *ConnectionLimits
	stats       *stream.StatsAggregator
	clock       clockwork.Clock
	startTime   time.Time
}

func NewServer(cfg *config.Config, registry *stream.Registry, transformer transform.Transformer, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:        e,
		config:      cfg,
		registry:    registry,
		transformer: transformer,
		limits:      NewConnectionLimits(cfg.MaxConnectionsPerIP, cfg.ConnectionsPerSecond, cfg.ConnectionBurst),
		stats:       stream.NewStatsAggregator(registry),
		clock:       clock,
		startTime:   clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
