// Package pipeline contains the orchestrator that advances experiments
// through their stages. Execution is checkpoint-and-resume: stage completion
// is read back from persisted results, so re-running a partially finished
// experiment continues where it stopped. The discovery batch loop lives here
// too, pairing idea generation with two-tier dedup and atomic topic claims.
package pipeline
