package steps

import (
	"context"

	"verdandi/internal/step"
)

// DiscoveryStep generates one idea candidate per run. It is registered at
// stage 0 and only ever invoked by the discovery batch loop, which supplies
// the strategy for each slot.
type DiscoveryStep struct {
	base
	source IdeaSource
}

// NewDiscoveryStep builds the stage-0 step over an idea source.
func NewDiscoveryStep(source IdeaSource) *DiscoveryStep {
	return &DiscoveryStep{
		base:   base{name: StageIdeaDiscovery, number: NumberIdeaDiscovery},
		source: source,
	}
}

// Run discovers with the default disruption lens. The batch loop prefers
// RunWithStrategy.
func (s *DiscoveryStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	return s.RunWithStrategy(ctx, sc, DisruptionStrategy)
}

// RunWithStrategy discovers one candidate through the given lens, honoring
// the context's exclusion list.
func (s *DiscoveryStep) RunWithStrategy(ctx context.Context, sc *step.Context, strategy Strategy) (*IdeaCandidate, error) {
	return s.source.Discover(ctx, DiscoveryRequest{
		Strategy:      strategy,
		ExcludeTitles: sc.ExcludeTitles,
		WorkerID:      sc.WorkerID,
	})
}

// Discovery never checkpoints against prior results; every invocation should
// produce a fresh candidate.
func (s *DiscoveryStep) IsComplete(context.Context, *step.Context) bool { return false }
