package services_test

import (
	"context"
	"testing"

	"verdandi/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithExperimentID(ctx, 42)
	ctx = services.WithStep(ctx, "research")
	ctx = services.WithWorkerID(ctx, "bench-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ExperimentIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected experiment id: %v %v", id, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "research" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
	if worker, ok := services.WorkerIDFromContext(ctx); !ok || worker != "bench-1" {
		t.Fatalf("unexpected worker id: %v %v", worker, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStepBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStep(ctx, "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
}
