package steps

import (
	"context"

	"verdandi/internal/step"
)

// DefinitionStep turns a go-scored idea into a concrete MVP definition.
type DefinitionStep struct {
	base
	planner Planner
}

// NewDefinitionStep builds the MVP-definition stage.
func NewDefinitionStep(planner Planner) *DefinitionStep {
	return &DefinitionStep{
		base:    base{name: StageMVPDefinition, number: NumberMVPDefinition},
		planner: planner,
	}
}

func (s *DefinitionStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	idea, err := step.Decode[IdeaCandidate](sc.Prior, StageIdeaDiscovery)
	if err != nil {
		return nil, err
	}
	score, err := step.Decode[PreBuildScore](sc.Prior, StageScoring)
	if err != nil {
		return nil, err
	}
	return s.planner.DefineMVP(ctx, idea, score)
}
