package steps

import (
	"context"

	"verdandi/internal/step"
)

// LandingStep publishes a landing page for the defined MVP.
type LandingStep struct {
	base
	publisher Publisher
}

// NewLandingStep builds the landing-page stage.
func NewLandingStep(publisher Publisher) *LandingStep {
	return &LandingStep{
		base:      base{name: StageLandingPage, number: NumberLandingPage},
		publisher: publisher,
	}
}

func (s *LandingStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	mvp, err := step.Decode[MVPDefinition](sc.Prior, StageMVPDefinition)
	if err != nil {
		return nil, err
	}
	return s.publisher.Publish(ctx, mvp)
}
