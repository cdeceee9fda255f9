package services_test

import (
	"errors"
	"strings"
	"testing"

	"verdandi/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "research", "fetch", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"research", "fetch", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "scoring", "evaluate", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "ideation", "decode", "invalid", nil)
	if services.IsRetryable(validationErr) {
		t.Fatal("expected validation error to be permanent")
	}
	configErr := services.Wrap(services.ErrConfiguration, "embedding", "client", "missing url", nil)
	if services.IsRetryable(configErr) {
		t.Fatal("expected configuration error to be permanent")
	}
	transientErr := services.Wrap(services.ErrTransient, "research", "fetch", "connection reset", errors.New("io"))
	if !services.IsRetryable(transientErr) {
		t.Fatal("expected transient error to be retryable")
	}
	timeoutErr := services.Wrap(services.ErrTimeout, "scoring", "evaluate", "deadline", nil)
	if !services.IsRetryable(timeoutErr) {
		t.Fatal("expected timeout error to be retryable")
	}
	if services.IsRetryable(nil) {
		t.Fatal("expected nil error to be non-retryable")
	}
}
