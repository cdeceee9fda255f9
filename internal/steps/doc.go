// Package steps implements the concrete pipeline stages, from idea discovery
// through human review. Each stage is a thin adapter between the step
// contract and a collaborator interface, so the expensive work (generation,
// research, scoring) stays swappable.
package steps
