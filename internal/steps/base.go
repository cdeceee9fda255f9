package steps

import (
	"context"

	"verdandi/internal/step"
)

// base supplies the naming and default checkpoint behavior shared by every
// stage.
type base struct {
	name   string
	number int
}

func (b base) Name() string    { return b.name }
func (b base) StepNumber() int { return b.number }

// IsComplete reports a persisted result for this stage.
func (b base) IsComplete(_ context.Context, sc *step.Context) bool {
	return sc.HasResult(b.name)
}

func (b base) ShouldSkip(context.Context, *step.Context) bool { return false }
