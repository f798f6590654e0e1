package embedder

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

// Service is an HTTP embedding client speaking the Ollama-style
// POST /api/embeddings protocol: one request per text, JSON body
// {"model": ..., "prompt": ...}, JSON response {"embedding": [...]}.
type Service struct {
	baseURL   string
	modelName string
	dimension int
	logger    arbor.ILogger
	client    *http.Client
}

var _ interfaces.Embedder = (*Service)(nil)

// NewService creates a new embedding client against baseURL (e.g. an
// Ollama server or any endpoint implementing the same wire protocol).
func NewService(baseURL, modelName string, dimension int, logger arbor.ILogger) *Service {
	return &Service{
		baseURL:   baseURL,
		modelName: modelName,
		dimension: dimension,
		logger:    logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Embed generates one vector per input text, preserving order.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (s *Service) embedOne(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	reqBody := map[string]interface{}{
		"model":  s.modelName,
		"prompt": text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		fmt.Sprintf("%s/api/embeddings", s.baseURL),
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding endpoint returned status %d", resp.StatusCode)
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned empty embedding")
	}

	s.logger.Debug().
		Int("embedding_dim", len(result.Embedding)).
		Int("text_length", len(text)).
		Msg("generated embedding")

	return result.Embedding, nil
}

// Dimension returns the configured embedding dimension.
func (s *Service) Dimension() int {
	return s.dimension
}

// IsAvailable checks whether the embedding endpoint is reachable.
func (s *Service) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/tags", s.baseURL), nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Msg("embedding endpoint unavailable")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
