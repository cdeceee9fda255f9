package retry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"verdandi/internal/logging"
)

// Breaker is a per-operation circuit breaker. It trips after a run of
// consecutive failures and refuses further calls until a quiet period has
// elapsed since the last failure, at which point it closes again on its own.
// State is in-memory only and resets with the process.
type Breaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration
	logger           *slog.Logger

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	open        bool
}

// NewBreaker builds a breaker for one operation name.
func NewBreaker(name string, failureThreshold int, resetTimeout time.Duration, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 60 * time.Second
	}
	return &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		logger:           logging.NewComponentLogger(logger, "breaker"),
	}
}

// IsOpen reports the breaker state, auto-resetting to closed once the reset
// timeout has passed since the last failure.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isOpenLocked()
}

func (b *Breaker) isOpenLocked() bool {
	if b.open && time.Since(b.lastFailure) > b.resetTimeout {
		b.logger.Info("circuit breaker auto-reset", logging.String("name", b.name))
		b.open = false
		b.failures = 0
	}
	return b.open
}

// RecordSuccess resets the consecutive-failure count and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

// RecordFailure counts a failure, tripping the breaker once the streak
// reaches the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = time.Now()
	if b.failures >= b.failureThreshold {
		if !b.open {
			b.logger.Warn("circuit breaker tripped",
				logging.String("name", b.name),
				logging.Int("failures", b.failures))
		}
		b.open = true
	}
}

// Call executes fn when the breaker is closed, recording the outcome. An
// open breaker fails fast with CircuitOpenError without invoking fn.
func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if b.IsOpen() {
		return &CircuitOpenError{Name: b.name}
	}
	if err := fn(ctx); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// BreakerSet lazily builds one breaker per operation name with shared
// thresholds. It is the per-runner breaker map; each process keeps its own.
type BreakerSet struct {
	failureThreshold int
	resetTimeout     time.Duration
	logger           *slog.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewBreakerSet builds an empty set with shared tuning.
func NewBreakerSet(failureThreshold int, resetTimeout time.Duration, logger *slog.Logger) *BreakerSet {
	return &BreakerSet{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		logger:           logger,
		breakers:         make(map[string]*Breaker),
	}
}

// Get returns the breaker for a name, creating it on first use.
func (s *BreakerSet) Get(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	breaker, ok := s.breakers[name]
	if !ok {
		breaker = NewBreaker(name, s.failureThreshold, s.resetTimeout, s.logger)
		s.breakers[name] = breaker
	}
	return breaker
}
