package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"verdandi/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndFillsWorkerID(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "verdandi")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Worker.ID == "" {
		t.Fatal("expected worker id to be generated")
	}
	if cfg.Retry.MaxRetries != config.Default().Retry.MaxRetries {
		t.Fatalf("unexpected max retries: %d", cfg.Retry.MaxRetries)
	}
	if cfg.Discovery.FingerprintThreshold != 0.6 {
		t.Fatalf("unexpected fingerprint threshold: %v", cfg.Discovery.FingerprintThreshold)
	}
	if cfg.Discovery.EmbeddingThreshold != 0.82 {
		t.Fatalf("unexpected embedding threshold: %v", cfg.Discovery.EmbeddingThreshold)
	}
	if cfg.VectorMemory.Collection != "idea_embeddings" {
		t.Fatalf("unexpected vector collection: %q", cfg.VectorMemory.Collection)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}

	if cfg.DatabasePath() != filepath.Join(wantData, "verdandi.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.LockPath() != filepath.Join(wantData, "worker.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "verdandi.toml")

	type payload struct {
		Worker struct {
			ID string `toml:"id"`
		} `toml:"worker"`
		Retry struct {
			MaxRetries       int     `toml:"max_retries"`
			BaseDelaySeconds float64 `toml:"base_delay_seconds"`
		} `toml:"retry"`
		Discovery struct {
			MaxIdeas        int     `toml:"max_ideas"`
			DisruptionRatio float64 `toml:"disruption_ratio"`
		} `toml:"discovery"`
	}
	custom := payload{}
	custom.Worker.ID = "bench-3"
	custom.Retry.MaxRetries = 5
	custom.Retry.BaseDelaySeconds = 2.5
	custom.Discovery.MaxIdeas = 7
	custom.Discovery.DisruptionRatio = 0.5
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Worker.ID != "bench-3" {
		t.Fatalf("expected worker id from file, got %q", cfg.Worker.ID)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Fatalf("expected max retries 5, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelaySeconds != 2.5 {
		t.Fatalf("expected base delay 2.5, got %v", cfg.Retry.BaseDelaySeconds)
	}
	if cfg.Discovery.MaxIdeas != 7 {
		t.Fatalf("expected max ideas 7, got %d", cfg.Discovery.MaxIdeas)
	}
	if cfg.Discovery.DisruptionRatio != 0.5 {
		t.Fatalf("expected disruption ratio 0.5, got %v", cfg.Discovery.DisruptionRatio)
	}
	// Unspecified sections keep their defaults.
	if cfg.Discovery.ReservationTTLHours != config.Default().Discovery.ReservationTTLHours {
		t.Fatalf("expected default reservation TTL, got %d", cfg.Discovery.ReservationTTLHours)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "reservation_ttl_hours") {
		t.Fatalf("sample config missing reservation TTL: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Discovery.ReservationTTLHours != 24 {
		t.Fatalf("expected sample TTL 24, got %d", cfg.Discovery.ReservationTTLHours)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}

	cfg = config.Default()
	cfg.Discovery.FingerprintThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range fingerprint threshold")
	}

	cfg = config.Default()
	cfg.Discovery.EmbeddingThreshold = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative embedding threshold")
	}

	cfg = config.Default()
	cfg.Retry.BaseDelaySeconds = 10
	cfg.Retry.MaxDelaySeconds = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max delay below base delay")
	}
}
