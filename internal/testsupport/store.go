package testsupport

import (
	"context"
	"testing"

	"verdandi/internal/config"
	"verdandi/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewExperiment creates a pending experiment for tests using the provided store.
func NewExperiment(t testing.TB, st *store.Store, title string) *store.Experiment {
	t.Helper()

	exp, err := st.CreateExperiment(context.Background(), title, "test summary", "test-worker")
	if err != nil {
		t.Fatalf("store.CreateExperiment: %v", err)
	}
	return exp
}
