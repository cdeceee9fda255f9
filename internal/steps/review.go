package steps

import (
	"context"

	"verdandi/internal/step"
	"verdandi/internal/store"
)

// ReviewStep pauses the pipeline for human approval before anything costly
// happens. The runner reacts to a not-approved result by parking the
// experiment in awaiting_review.
type ReviewStep struct {
	base
	required bool
}

// NewReviewStep builds the human-review stage. With required false the stage
// is skipped entirely.
func NewReviewStep(required bool) *ReviewStep {
	return &ReviewStep{
		base:     base{name: StageHumanReview, number: NumberHumanReview},
		required: required,
	}
}

// ShouldSkip skips review in trial mode, when review is disabled, or when
// the experiment was already approved.
func (s *ReviewStep) ShouldSkip(_ context.Context, sc *step.Context) bool {
	if sc.TrialMode || !s.required {
		return true
	}
	return sc.Experiment != nil && sc.Experiment.Status == store.StatusApproved
}

func (s *ReviewStep) Run(_ context.Context, sc *step.Context) (any, error) {
	if sc.TrialMode || !s.required {
		reason := "trial mode"
		if !s.required {
			reason = "human review disabled"
		}
		return &ReviewResult{Approved: true, Skipped: true, Reason: reason}, nil
	}
	if sc.Experiment != nil && sc.Experiment.Status == store.StatusApproved {
		return &ReviewResult{Approved: true, Reason: "previously approved"}, nil
	}
	return &ReviewResult{Approved: false, Reason: "awaiting human review"}, nil
}
