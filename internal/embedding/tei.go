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
)

// TEIEmbedder calls a HuggingFace text-embeddings-inference server.
type TEIEmbedder struct {
	BaseURL    string
	HTTPClient *http.Client
	dimensions int
}

type teiEmbedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
	Truncate  bool     `json:"truncate"`
}

// NewTEIEmbedder returns a client for baseURL. dimensions may be 0, in which case
// it is learned from the first response.
func NewTEIEmbedder(baseURL string, dimensions int, timeout time.Duration) *TEIEmbedder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TEIEmbedder{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		dimensions: dimensions,
	}
}

// Embed returns the embedding for one text.
func (c *TEIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends all texts in one request.
func (c *TEIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	jsonData, err := json.Marshal(teiEmbedRequest{Inputs: texts, Normalize: true, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("service returned status %d: %s", resp.StatusCode, string(body))
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("service returned %d embeddings for %d inputs", len(embeddings), len(texts))
	}
	if c.dimensions == 0 && len(embeddings) > 0 {
		c.dimensions = len(embeddings[0])
	}
	return embeddings, nil
}

// Dimensions returns the configured or observed embedding width.
func (c *TEIEmbedder) Dimensions() int {
	return c.dimensions
}

// Close is a no-op.
func (c *TEIEmbedder) Close() error {
	return nil
}
