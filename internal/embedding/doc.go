// Package embedding computes text embeddings through an OpenAI-compatible
// HTTP service. Embeddings feed the semantic dedup tier and novelty scoring;
// when no provider is configured those features degrade gracefully.
package embedding
