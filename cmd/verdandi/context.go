package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"verdandi/internal/config"
	"verdandi/internal/embedding"
	"verdandi/internal/logging"
	"verdandi/internal/pipeline"
	"verdandi/internal/reservation"
	"verdandi/internal/step"
	"verdandi/internal/steps"
	"verdandi/internal/store"
	"verdandi/internal/vectormem"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the shared SQLite store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// withWorkerLock additionally holds the per-worker advisory lock, so two
// invocations on the same host cannot run discovery or a pipeline sweep
// concurrently.
func (c *commandContext) withWorkerLock(fn func(*config.Config, *store.Store) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		lock := flock.New(cfg.LockPath())
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire worker lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another verdandi worker already holds %s", cfg.LockPath())
		}
		defer lock.Unlock()
		return fn(cfg, st)
	})
}

func (c *commandContext) newLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) newRegistry() (*step.Registry, error) {
	return steps.DefaultRegistry(steps.Options{RequireReview: true})
}

func (c *commandContext) newRunner(cfg *config.Config, st *store.Store, trial bool) (*pipeline.Runner, error) {
	registry, err := c.newRegistry()
	if err != nil {
		return nil, fmt.Errorf("build stage registry: %w", err)
	}
	logger := c.newLogger(cfg)
	memory := vectormem.New(cfg, logger)
	return pipeline.NewRunner(cfg, pipeline.Options{
		Store:     st,
		Registry:  registry,
		Memory:    memory,
		Embedder:  embedding.New(cfg),
		Logger:    logger,
		TrialMode: trial,
	}), nil
}

func (c *commandContext) newReservations(cfg *config.Config, st *store.Store) *reservation.Manager {
	logger := c.newLogger(cfg)
	memory := vectormem.New(cfg, logger)
	return reservation.NewManager(st, memory, logger, cfg.Discovery.ReservationTTLHours)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
