package steps

import (
	"context"

	"verdandi/internal/step"
)

// DistributionStep announces the live site on social channels and submits
// it for search indexing.
type DistributionStep struct {
	base
	distributor Distributor
}

// NewDistributionStep builds the distribution stage.
func NewDistributionStep(distributor Distributor) *DistributionStep {
	return &DistributionStep{
		base:        base{name: StageDistribution, number: NumberDistribution},
		distributor: distributor,
	}
}

func (s *DistributionStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	idea, err := step.Decode[IdeaCandidate](sc.Prior, StageIdeaDiscovery)
	if err != nil {
		return nil, err
	}
	deployment, err := step.Decode[Deployment](sc.Prior, StageDeployment)
	if err != nil {
		return nil, err
	}
	return s.distributor.Distribute(ctx, idea, deployment)
}
