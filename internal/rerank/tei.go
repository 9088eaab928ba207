package rerank

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

// TEIReranker calls the /rerank endpoint of a text-embeddings-inference server
// hosting a cross-encoder.
type TEIReranker struct {
	BaseURL    string
	HTTPClient *http.Client
}

type teiRerankRequest struct {
	Query    string   `json:"query"`
	Texts    []string `json:"texts"`
	Truncate bool     `json:"truncate"`
}

type teiRerankHit struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewTEIReranker returns a client for baseURL.
func NewTEIReranker(baseURL string, timeout time.Duration) *TEIReranker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TEIReranker{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Rerank scores all candidates in one request.
func (c *TEIReranker) Rerank(ctx context.Context, query string, candidates []string, topK int) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	jsonData, err := json.Marshal(teiRerankRequest{Query: query, Texts: candidates, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rerank", bytes.NewReader(jsonData))
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

	var hits []teiRerankHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	scores := make([]float64, len(candidates))
	seen := make([]bool, len(candidates))
	for _, h := range hits {
		if h.Index < 0 || h.Index >= len(scores) {
			return nil, fmt.Errorf("service returned out-of-range index %d", h.Index)
		}
		scores[h.Index] = h.Score
		seen[h.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("service returned no score for candidate %d", i)
		}
	}
	return topResults(scores, topK), nil
}

// Close is a no-op.
func (c *TEIReranker) Close() error {
	return nil
}
