package vectormem

import "context"

// Match is a single result from a similarity search.
type Match struct {
	TopicKey    string
	Description string
	Similarity  float64
}

// Memory provides indexed semantic search over idea embeddings. Every method
// fails soft: on any backend failure it returns empty or neutral results so
// the dedup pipeline degrades instead of aborting. The reservation claim, not
// this index, is the guarantor of the no-duplicate invariant.
type Memory interface {
	IsAvailable(ctx context.Context) bool
	StoreEmbedding(ctx context.Context, topicKey string, vector []float64, payload map[string]any) bool
	FindSimilar(ctx context.Context, vector []float64, threshold float64, limit int, statusFilter []string) []Match
	ComputeNovelty(ctx context.Context, vector []float64, statusFilter []string) float64
	UpdateStatus(ctx context.Context, topicKey, status string) bool
}

// Noop is the Memory used when no vector backend is configured.
type Noop struct{}

func (Noop) IsAvailable(context.Context) bool { return false }

func (Noop) StoreEmbedding(context.Context, string, []float64, map[string]any) bool { return false }

func (Noop) FindSimilar(context.Context, []float64, float64, int, []string) []Match { return nil }

func (Noop) ComputeNovelty(context.Context, []float64, []string) float64 { return 1.0 }

func (Noop) UpdateStatus(context.Context, string, string) bool { return false }
