package steps

import (
	"context"
	"errors"

	"verdandi/internal/services"
	"verdandi/internal/step"
)

// ResearchStep compiles market research for the discovered idea.
type ResearchStep struct {
	base
	researcher Researcher
}

// NewResearchStep builds the deep-research stage.
func NewResearchStep(researcher Researcher) *ResearchStep {
	return &ResearchStep{
		base:       base{name: StageDeepResearch, number: NumberDeepResearch},
		researcher: researcher,
	}
}

func (s *ResearchStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	idea, err := step.Decode[IdeaCandidate](sc.Prior, StageIdeaDiscovery)
	if err != nil {
		return nil, err
	}

	report, err := s.researcher.Research(ctx, idea)
	if err != nil {
		if errors.Is(err, services.ErrAllSourcesFailed) {
			// Every backend is down; leave the error retryable so the
			// stage's retry budget gets a chance at recovery.
			return nil, services.Wrap(services.ErrTransient, "steps", "deep_research",
				"all research sources failed", err)
		}
		return nil, err
	}
	return report, nil
}
