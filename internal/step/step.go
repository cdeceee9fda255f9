package step

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"verdandi/internal/store"
)

// DiscoveryStage is reserved for idea discovery. It is invoked only by the
// discovery batch loop, never walked during a normal pipeline run.
const DiscoveryStage = 0

// Step is one unit of pipeline work. Implementations are opaque to the
// runner, which sequences them purely by stage number.
type Step interface {
	// Name is the stable identifier used for checkpoints, log events and
	// the per-stage circuit breaker.
	Name() string
	// StepNumber orders the step within the pipeline, starting at 1.
	// Number 0 is reserved for discovery.
	StepNumber() int
	// Run executes the stage and returns a JSON-serializable result.
	Run(ctx context.Context, sc *Context) (any, error)
	// IsComplete reports whether the stage already has a persisted result
	// and can be skipped on resume.
	IsComplete(ctx context.Context, sc *Context) bool
	// ShouldSkip reports whether the stage does not apply to this
	// experiment at all.
	ShouldSkip(ctx context.Context, sc *Context) bool
}

// Context carries everything a step may read during one execution. Prior
// results are read-only; steps communicate forward exclusively through their
// returned result.
type Context struct {
	Experiment    *store.Experiment
	Prior         PriorResults
	CorrelationID string
	WorkerID      string
	TrialMode     bool
	ExcludeTitles []string
	Logger        *slog.Logger
}

// HasResult reports whether a stage already produced a result for this
// experiment. It is the default IsComplete check.
func (c *Context) HasResult(stageName string) bool {
	_, ok := c.Prior.Get(stageName)
	return ok
}

// PriorResults holds the serialized outputs of previously completed stages,
// keyed by stage name.
type PriorResults map[string]json.RawMessage

// PriorResultsFrom indexes persisted stage results by name.
func PriorResultsFrom(results []store.StageResult) PriorResults {
	prior := make(PriorResults, len(results))
	for _, result := range results {
		prior[result.StageName] = json.RawMessage(result.Payload)
	}
	return prior
}

// Get returns the raw payload for a stage name.
func (p PriorResults) Get(stageName string) (json.RawMessage, bool) {
	payload, ok := p[stageName]
	return payload, ok
}

// Decode unmarshals a prior stage's payload into T. A missing stage yields
// ErrMissingPrerequisite so the caller can tell "not run yet" apart from a
// corrupt payload.
func Decode[T any](prior PriorResults, stageName string) (T, error) {
	var decoded T
	payload, ok := prior.Get(stageName)
	if !ok {
		return decoded, fmt.Errorf("stage %q: %w", stageName, ErrMissingPrerequisite)
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return decoded, fmt.Errorf("decode %q result: %w", stageName, err)
	}
	return decoded, nil
}
