// Package step defines the contract between the pipeline runner and its
// stages: the Step interface, the per-execution Context with read-only prior
// results, and the Registry mapping stage numbers to implementations.
package step
