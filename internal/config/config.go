// Package config loads and validates the server configuration from the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// MaxConnections caps live sessions across the whole process. A
	// connection rejected at the cap never enters the registry.
	MaxConnections int `env:"MAX_CONNECTIONS" default:"100"`

	// FrameQueueCapacity bounds the per-session backlog of unprocessed
	// frames. When full, the oldest queued frame is evicted.
	FrameQueueCapacity int `env:"FRAME_QUEUE_CAPACITY" default:"10"`

	// IdleTimeout is how long a session may stay silent before the reaper
	// force-closes it.
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" default:"5m"`
	ReapInterval time.Duration `env:"REAP_INTERVAL" default:"60s"`

	// TargetFrameLatency is the per-frame processing budget. Metrics-only,
	// never enforced.
	TargetFrameLatency time.Duration `env:"TARGET_FRAME_LATENCY" default:"200ms"`

	TransformURL     string        `env:"TRANSFORM_URL"`
	TransformTimeout time.Duration `env:"TRANSFORM_TIMEOUT" default:"30s"`

	MaxConnectionsPerIP  int     `env:"MAX_CONNECTIONS_PER_IP" default:"10"`
	ConnectionsPerSecond float64 `env:"CONNECTIONS_PER_SECOND" default:"10"`
	ConnectionBurst      int     `env:"CONNECTION_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.TransformURL == "" {
		return fmt.Errorf("TRANSFORM_URL is required")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.FrameQueueCapacity <= 0 {
		return fmt.Errorf("FRAME_QUEUE_CAPACITY must be positive, got %d", cfg.FrameQueueCapacity)
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("IDLE_TIMEOUT must be positive, got %v", cfg.IdleTimeout)
	}
	if cfg.ReapInterval <= 0 {
		return fmt.Errorf("REAP_INTERVAL must be positive, got %v", cfg.ReapInterval)
	}
	return nil
}
