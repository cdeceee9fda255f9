package steps

import (
	"context"

	"verdandi/internal/step"
)

// DeploymentStep pushes the published landing page to its hosting provider.
// It only runs after the review gate, so nothing goes live unapproved.
type DeploymentStep struct {
	base
	deployer Deployer
}

// NewDeploymentStep builds the deployment stage.
func NewDeploymentStep(deployer Deployer) *DeploymentStep {
	return &DeploymentStep{
		base:     base{name: StageDeployment, number: NumberDeployment},
		deployer: deployer,
	}
}

func (s *DeploymentStep) Run(ctx context.Context, sc *step.Context) (any, error) {
	mvp, err := step.Decode[MVPDefinition](sc.Prior, StageMVPDefinition)
	if err != nil {
		return nil, err
	}
	page, err := step.Decode[LandingPage](sc.Prior, StageLandingPage)
	if err != nil {
		return nil, err
	}
	return s.deployer.Deploy(ctx, mvp, page)
}
