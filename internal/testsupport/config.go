package testsupport

import (
	"path/filepath"
	"testing"

	"verdandi/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Worker.ID = "test-worker"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWorkerID overrides the worker identity on the test config.
func WithWorkerID(id string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Worker.ID = id
	}
}

// WithFastRetry zeroes the backoff delays so retry paths run instantly.
func WithFastRetry() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Retry.BaseDelaySeconds = 0
		cfg.Retry.MaxDelaySeconds = 0
	}
}

// WithReservationTTL overrides the reservation TTL on the test config.
func WithReservationTTL(hours int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Discovery.ReservationTTLHours = hours
	}
}
