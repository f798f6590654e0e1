package llm

import (
	"context"

	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// Completer adapts ProviderFactory to the narrow interfaces.Completer
// contract the pipeline stages and retriever depend on.
type Completer struct {
	factory *ProviderFactory
}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter wraps factory as an interfaces.Completer.
func NewCompleter(factory *ProviderFactory) *Completer {
	return &Completer{factory: factory}
}

// Complete generates a single text completion for req.
func (c *Completer) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	resp, err := c.factory.GenerateContent(ctx, &ContentRequest{
		Messages:          req.Messages,
		Model:             req.Model,
		Temperature:       req.Temperature,
		MaxTokens:         req.MaxTokens,
		SystemInstruction: req.SystemInstruction,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
