// Package services defines shared utilities consumed by the pipeline step
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp experiment IDs, step names, worker identity,
//     and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures as
//     retryable or permanent.
//
// Use these helpers when wiring new step logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
