package embedding

import "context"

// Provider computes text embeddings for semantic dedup. The provider is
// optional; when unavailable the dedup pipeline degrades to fingerprint-only
// comparison and full novelty.
type Provider interface {
	Available() bool
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Disabled is the Provider used when no embedding service is configured.
type Disabled struct{}

func (Disabled) Available() bool { return false }

func (Disabled) Embed(context.Context, string) ([]float64, error) {
	return nil, nil
}
