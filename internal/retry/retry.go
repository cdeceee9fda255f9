package retry

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"verdandi/internal/config"
	"verdandi/internal/logging"
	"verdandi/internal/services"
)

// Policy holds the backoff parameters for one executor.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// DefaultPolicy matches the shipped configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   60 * time.Second,
		Jitter:     true,
	}
}

// PolicyFromConfig translates the retry configuration section.
func PolicyFromConfig(cfg config.Retry) Policy {
	return Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Duration(cfg.BaseDelaySeconds * float64(time.Second)),
		MaxDelay:   time.Duration(cfg.MaxDelaySeconds * float64(time.Second)),
		Jitter:     cfg.Jitter,
	}
}

// Stats tallies retry activity for one operation name.
type Stats struct {
	Retries     int64
	Exhaustions int64
}

// Executor runs operations with exponential backoff. The delay doubles each
// attempt up to MaxDelay; with jitter enabled it is scaled by a uniform
// factor in [0.5, 1.5) so concurrent workers do not retry in lockstep.
type Executor struct {
	policy Policy
	logger *slog.Logger

	mu    sync.Mutex
	stats map[string]*Stats
}

// NewExecutor builds an executor with the given policy.
func NewExecutor(policy Policy, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		policy: policy,
		logger: logging.NewComponentLogger(logger, "retry"),
		stats:  make(map[string]*Stats),
	}
}

// Run executes fn, retrying transient failures until the budget is spent.
// Errors that services.IsRetryable rejects propagate immediately without
// consuming any retries. After MaxRetries+1 failed attempts Run returns an
// ExhaustedError wrapping the last failure. Context cancellation during a
// backoff sleep aborts the loop with the context's error.
func (e *Executor) Run(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= e.policy.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !services.IsRetryable(err) {
			return err
		}
		lastErr = err
		if attempt == e.policy.MaxRetries {
			break
		}

		e.countRetry(operation)
		delay := e.backoff(attempt)
		e.logger.Warn("retrying operation",
			logging.String("operation", operation),
			logging.Int("attempt", attempt+1),
			logging.Int("max_retries", e.policy.MaxRetries),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}

	e.countExhaustion(operation)
	return &ExhaustedError{
		Operation: operation,
		Attempts:  e.policy.MaxRetries + 1,
		Err:       lastErr,
	}
}

// OperationStats returns a copy of the tallies for one operation name.
func (e *Executor) OperationStats(operation string) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if stats, ok := e.stats[operation]; ok {
		return *stats
	}
	return Stats{}
}

func (e *Executor) backoff(attempt int) time.Duration {
	delay := e.policy.BaseDelay << attempt
	if e.policy.MaxDelay > 0 && (delay > e.policy.MaxDelay || delay < 0) {
		delay = e.policy.MaxDelay
	}
	if e.policy.Jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	}
	return delay
}

func (e *Executor) countRetry(operation string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statsFor(operation).Retries++
}

func (e *Executor) countExhaustion(operation string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statsFor(operation).Exhaustions++
}

func (e *Executor) statsFor(operation string) *Stats {
	stats, ok := e.stats[operation]
	if !ok {
		stats = &Stats{}
		e.stats[operation] = stats
	}
	return stats
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
