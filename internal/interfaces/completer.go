package interfaces

import "context"

// Message is a single turn in a chat-style completion request.
type Message struct {
	Role    string // "user", "assistant", or "system"
	Content string
}

// CompletionRequest carries the provider-agnostic parameters a caller may
// tune per call. Model selects a concrete provider via a "provider/model"
// or bare model-name convention; an empty Model uses the factory default.
type CompletionRequest struct {
	Messages          []Message
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
}

// Completer is the narrow contract the core uses for every LLM call:
// markdown fixing, metadata generation, router classification, and HyDE
// query expansion. Implementations own retries, timeouts, and
// provider-specific wire formats.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder turns text into vectors. Implementations own batching and
// provider-specific request shaping.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Reranker scores a query against a set of candidate texts, returning one
// score per text in the same order. Callers apply their own timeout via
// ctx; a Reranker implementation must respect context cancellation.
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}
