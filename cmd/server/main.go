package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/JaiminPatel345/glowup-sub000/internal/config"
	streamerrors "github.com/JaiminPatel345/glowup-sub000/internal/errors"
	"github.com/JaiminPatel345/glowup-sub000/internal/logging"
	"github.com/JaiminPatel345/glowup-sub000/internal/retry"
	"github.com/JaiminPatel345/glowup-sub000/internal/server"
	"github.com/JaiminPatel345/glowup-sub000/internal/stream"
	"github.com/JaiminPatel345/glowup-sub000/internal/transform"
	"github.com/JaiminPatel345/glowup-sub000/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, registry *stream.Registry, stopReaper context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Stop accepting new connections first, then close the live sessions
		// with the shutdown code so clients know not to blame the network.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopReaper()
		registry.Shutdown(streamerrors.CloseCodeShutdown, "server shutting down")

		close(done)
	}()

	return done
}

// probeTransformService checks that the inference endpoint answers before
// the server starts taking connections. A dead endpoint is logged, not
// fatal: sessions connect fine and frames fail per-frame until it recovers.
func probeTransformService(transformer *transform.HTTPTransformer) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	policy := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Transform service probe failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	err := retry.DoVoid(ctx, policy, func(error) bool { return true }, func() error {
		return transformer.Healthcheck(ctx)
	})
	if err != nil {
		slog.Warn("Transform service not reachable at startup", "error", err)
		return
	}
	slog.Info("Transform service reachable")
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	registry := stream.NewRegistry(cfg.MaxConnections, cfg.FrameQueueCapacity, clock)
	transformer := transform.NewHTTPTransformer(cfg.TransformURL, cfg.TransformTimeout)
	probeTransformService(transformer)

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	reaper := stream.NewIdleReaper(registry, clock, cfg.ReapInterval, cfg.IdleTimeout)
	go reaper.Run(reaperCtx)

	srv := server.NewServer(cfg, registry, transformer, clock)

	done := runGracefulShutdown(srv, registry, stopReaper)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
