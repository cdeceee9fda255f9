package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"verdandi/internal/config"
	"verdandi/internal/services"
)

// Client calls an OpenAI-compatible /embeddings endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// New builds a Provider from configuration. Without a URL the Disabled
// provider is returned.
func New(cfg *config.Config) Provider {
	url := strings.TrimRight(strings.TrimSpace(cfg.Embeddings.URL), "/")
	if url == "" {
		return Disabled{}
	}

	timeout := time.Duration(cfg.Embeddings.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: url,
		apiKey:  cfg.Embeddings.APIKey,
		model:   cfg.Embeddings.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Available() bool { return true }

// Embed returns the embedding vector for the provided text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "embedding", "embed", "empty input text", nil)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "embedding", "embed", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrExternalService, "embedding", "embed",
			fmt.Sprintf("service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}

	var decoded struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(decoded.Data) == 0 || len(decoded.Data[0].Embedding) == 0 {
		return nil, services.Wrap(services.ErrExternalService, "embedding", "embed", "empty embedding in response", nil)
	}
	return decoded.Data[0].Embedding, nil
}
