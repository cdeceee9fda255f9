package vectormem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"verdandi/internal/config"
	"verdandi/internal/logging"
)

const availabilityTTL = 60 * time.Second

// pointNamespace seeds deterministic UUIDv5 point IDs so re-storing a topic
// key overwrites its previous point instead of accumulating duplicates.
var pointNamespace = uuid.MustParse("7f8c2a4e-9d13-4b6a-8a2f-5c1e0d9b3f72")

// Client talks to a Qdrant-compatible vector search service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	vectorSize int
	client     *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	available   bool
	checkedAt   time.Time
	collections bool
}

// New builds a Memory from configuration. When no URL is configured the Noop
// implementation is returned.
func New(cfg *config.Config, logger *slog.Logger) Memory {
	url := strings.TrimRight(strings.TrimSpace(cfg.VectorMemory.URL), "/")
	if url == "" {
		return Noop{}
	}

	timeout := time.Duration(cfg.VectorMemory.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    url,
		apiKey:     cfg.VectorMemory.APIKey,
		collection: cfg.VectorMemory.Collection,
		vectorSize: cfg.VectorMemory.VectorSize,
		client:     &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "vectormem"),
	}
}

// PointID derives the deterministic point identifier for a topic key.
func PointID(topicKey string) string {
	return uuid.NewSHA1(pointNamespace, []byte(topicKey)).String()
}

// IsAvailable reports whether the backend is reachable. The result is cached
// for sixty seconds so pipeline hot paths do not hammer the health endpoint.
func (c *Client) IsAvailable(ctx context.Context) bool {
	c.mu.Lock()
	if !c.checkedAt.IsZero() && time.Since(c.checkedAt) < availabilityTTL {
		available := c.available
		c.mu.Unlock()
		return available
	}
	c.mu.Unlock()

	var result struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s/exists", c.collection), nil, &result)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkedAt = time.Now()
	c.available = err == nil
	if err != nil {
		c.logger.Warn("vector memory health check failed", logging.Error(err))
	}
	return c.available
}

// StoreEmbedding upserts an idea embedding with its payload metadata.
// Returns false (after logging) on any failure.
func (c *Client) StoreEmbedding(ctx context.Context, topicKey string, vector []float64, payload map[string]any) bool {
	if len(vector) == 0 {
		return false
	}
	if !c.ensureCollection(ctx) {
		return false
	}

	full := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		full[k] = v
	}
	full["topic_key"] = topicKey

	body := map[string]any{
		"points": []map[string]any{{
			"id":      PointID(topicKey),
			"vector":  vector,
			"payload": full,
		}},
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", c.collection), body, nil); err != nil {
		c.logger.Warn("store embedding failed", logging.String(logging.FieldTopicKey, topicKey), logging.Error(err))
		return false
	}
	return true
}

// FindSimilar returns stored ideas whose cosine similarity to vector meets
// the threshold, sorted descending, optionally restricted by payload status.
func (c *Client) FindSimilar(ctx context.Context, vector []float64, threshold float64, limit int, statusFilter []string) []Match {
	if len(vector) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	body := map[string]any{
		"query":           vector,
		"limit":           limit,
		"score_threshold": threshold,
		"with_payload":    true,
	}
	if len(statusFilter) > 0 {
		body["filter"] = map[string]any{
			"must": []map[string]any{{
				"key":   "status",
				"match": map[string]any{"any": statusFilter},
			}},
		}
	}

	var result struct {
		Result struct {
			Points []struct {
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/query", c.collection), body, &result); err != nil {
		c.logger.Warn("similarity search failed", logging.Error(err))
		return nil
	}

	matches := make([]Match, 0, len(result.Result.Points))
	for _, point := range result.Result.Points {
		match := Match{Similarity: point.Score}
		if key, ok := point.Payload["topic_key"].(string); ok {
			match.TopicKey = key
		}
		if desc, ok := point.Payload["topic_description"].(string); ok {
			match.Description = desc
		}
		matches = append(matches, match)
	}
	return matches
}

// ComputeNovelty returns 1 - max similarity to any stored idea, clamped to
// [0, 1]. Returns full novelty when nothing similar exists or on failure.
func (c *Client) ComputeNovelty(ctx context.Context, vector []float64, statusFilter []string) float64 {
	similar := c.FindSimilar(ctx, vector, 0.0, 1, statusFilter)
	if len(similar) == 0 {
		return 1.0
	}
	novelty := 1.0 - similar[0].Similarity
	if novelty < 0 {
		return 0
	}
	if novelty > 1 {
		return 1
	}
	return novelty
}

// UpdateStatus rewrites the status payload field on a stored point so dedup
// filters track the reservation lifecycle.
func (c *Client) UpdateStatus(ctx context.Context, topicKey, status string) bool {
	body := map[string]any{
		"payload": map[string]any{"status": status},
		"points":  []string{PointID(topicKey)},
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/payload?wait=true", c.collection), body, nil); err != nil {
		c.logger.Warn("update point status failed", logging.String(logging.FieldTopicKey, topicKey), logging.Error(err))
		return false
	}
	return true
}

func (c *Client) ensureCollection(ctx context.Context) bool {
	c.mu.Lock()
	ensured := c.collections
	c.mu.Unlock()
	if ensured {
		return true
	}

	var exists struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s/exists", c.collection), nil, &exists); err != nil {
		c.logger.Warn("collection check failed", logging.Error(err))
		return false
	}
	if !exists.Result.Exists {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     c.vectorSize,
				"distance": "Cosine",
			},
		}
		if err := c.do(ctx, http.MethodPut, "/collections/"+c.collection, body, nil); err != nil {
			c.logger.Warn("create collection failed", logging.Error(err))
			return false
		}
		c.logger.Info("created vector collection", logging.String("collection", c.collection))
	}

	c.mu.Lock()
	c.collections = true
	c.mu.Unlock()
	return true
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("vector memory returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
