package steps

import (
	"context"

	"verdandi/internal/step"
)

// AnalyticsStep wires visitor tracking into the live deployment.
type AnalyticsStep struct {
	base
	configurer AnalyticsConfigurer
}

// NewAnalyticsStep builds the analytics-setup stage.
func NewAnalyticsStep(configurer AnalyticsConfigurer) *AnalyticsStep {
	return &AnalyticsStep{
		base:       base{name: StageAnalyticsSetup, number: NumberAnalyticsSetup},
		configurer: configurer,
	}
}

func (s *AnalyticsStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	deployment, err := step.Decode[Deployment](sc.Prior, StageDeployment)
	if err != nil {
		return nil, err
	}
	return s.configurer.Configure(ctx, deployment)
}
