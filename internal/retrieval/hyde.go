package retrieval

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

const hydeSystemPrompt = `Write a short hypothetical answer (100-200 words) to the question below, ` +
	`as if it appeared in an official Vietnamese university regulation or curriculum document. ` +
	`Write only the answer text, no preamble.`

// expandHyDE generates a hypothetical answer to embed in place of the raw
// query. On any failure it returns the original query unchanged and logs
// a warning, per §4.9 step 2.
func expandHyDE(ctx context.Context, completer interfaces.Completer, model, query string, logger arbor.ILogger) string {
	answer, err := completer.Complete(ctx, interfaces.CompletionRequest{
		Messages:          []interfaces.Message{{Role: "user", Content: query}},
		Model:             model,
		Temperature:       0.3,
		SystemInstruction: hydeSystemPrompt,
	})
	if err != nil || answer == "" {
		logger.Warn().Err(err).Msg("HyDE expansion failed, falling back to raw query")
		return query
	}
	return answer
}
