package steps

import (
	"context"
	"fmt"

	"verdandi/internal/step"
)

// DefaultGoThreshold is the minimum weighted score for a go decision.
const DefaultGoThreshold = 70

// ScoringStep turns the research report into a quantified go/no-go decision.
type ScoringStep struct {
	base
	scorer    Scorer
	threshold int
}

// NewScoringStep builds the scoring stage. A non-positive threshold uses
// DefaultGoThreshold.
func NewScoringStep(scorer Scorer, threshold int) *ScoringStep {
	if threshold <= 0 {
		threshold = DefaultGoThreshold
	}
	return &ScoringStep{
		base:      base{name: StageScoring, number: NumberScoring},
		scorer:    scorer,
		threshold: threshold,
	}
}

func (s *ScoringStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	idea, err := step.Decode[IdeaCandidate](sc.Prior, StageIdeaDiscovery)
	if err != nil {
		return nil, err
	}
	report, err := step.Decode[ResearchReport](sc.Prior, StageDeepResearch)
	if err != nil {
		return nil, err
	}

	components, reasoning, err := s.scorer.Score(ctx, idea, report, guidanceFor(idea.DiscoveryType))
	if err != nil {
		return nil, err
	}

	weighted := 0.0
	for _, component := range components {
		weighted += float64(component.Score) * component.Weight
	}
	total := int(weighted)

	decision := DecisionNoGo
	if total >= s.threshold {
		decision = DecisionGo
	}

	return &PreBuildScore{
		Components: components,
		Total:      total,
		Threshold:  s.threshold,
		Decision:   decision,
		Reasoning:  fmt.Sprintf("score %d/100 against threshold %d: %s", total, s.threshold, reasoning),
	}, nil
}

func guidanceFor(discoveryType DiscoveryType) string {
	switch discoveryType {
	case DiscoveryMoonshot:
		return MoonshotStrategy.ScoringGuidance
	default:
		return DisruptionStrategy.ScoringGuidance
	}
}
