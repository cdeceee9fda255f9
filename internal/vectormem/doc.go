// Package vectormem provides best-effort semantic similarity search over idea
// embeddings, backed by a Qdrant-compatible HTTP service.
//
// The backend is optional and eventually consistent. Callers must treat it as
// an accelerator for dedup and novelty scoring, never as the source of truth;
// the reservation claim alone guarantees the no-duplicate invariant. All
// operations fail soft and log instead of propagating errors.
package vectormem
