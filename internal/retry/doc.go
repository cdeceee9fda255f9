// Package retry provides exponential-backoff retries and per-operation
// circuit breakers. The two compose with the breaker inside the retry loop,
// so a consistently failing operation trips its breaker even while a single
// call's retry budget is still being spent.
package retry
