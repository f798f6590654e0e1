package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

const defaultTimeout = 120 * time.Second

// Client scores candidate texts against a query via a remote HTTP
// reranker. Request: {query, texts, normalize: true}. Response:
// {scores: [float]}.
type Client struct {
	url     string
	timeout time.Duration
	logger  arbor.ILogger
	http    *http.Client
}

var _ interfaces.Reranker = (*Client)(nil)

// NewClient creates a reranker client against url. A zero timeout uses
// the 120s default from the wire contract.
func NewClient(url string, timeout time.Duration, logger arbor.ILogger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:     url,
		timeout: timeout,
		logger:  logger,
		http:    &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	Normalize bool     `json:"normalize"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score calls the remote reranker and returns one score per text in the
// same order. Callers are expected to fall back to raw-score ordering on
// error (timeout included) rather than treat this as fatal.
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(scoreRequest{Query: query, Texts: texts, Normalize: true})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	if len(out.Scores) != len(texts) {
		return nil, fmt.Errorf("reranker returned %d scores for %d texts", len(out.Scores), len(texts))
	}

	return out.Scores, nil
}
