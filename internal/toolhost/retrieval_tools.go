package toolhost

import (
	"context"
	"fmt"
	"strings"

	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/retrieval"
	"github.com/uit-ai/knowledge-core/internal/retrieval/router"
)

// CollectionRetriever runs the blended retrieval pipeline against one
// named collection. *retrieval.Retriever satisfies this directly.
type CollectionRetriever interface {
	Retrieve(ctx context.Context, query, collection string) (*models.RetrievalResult, error)
}

// RegisterRetrievalTools wires retrieve_documents, retrieve_regulation,
// and retrieve_curriculum against the given router and retriever.
func RegisterRetrievalTools(h *Host, rt router.Router, retriever CollectionRetriever) {
	h.Register("retrieve_documents", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		query, err := requireString(args, "query")
		if err != nil {
			return nil, err
		}

		results, err := retrieveAcrossCollections(ctx, rt, retriever, query)
		if err != nil {
			return nil, err
		}
		return formatAsText(query, results), nil
	})

	h.Register("retrieve_regulation", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		query, err := requireString(args, "query")
		if err != nil {
			return nil, err
		}

		result, err := retriever.Retrieve(ctx, query, "regulation")
		if err != nil {
			return nil, err
		}
		return retrieval.FormatRegulation(result), nil
	})

	h.Register("retrieve_curriculum", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		query, err := requireString(args, "query")
		if err != nil {
			return nil, err
		}

		result, err := retriever.Retrieve(ctx, query, "curriculum")
		if err != nil {
			return nil, err
		}
		return retrieval.FormatCurriculum(result), nil
	})
}

func retrieveAcrossCollections(ctx context.Context, rt router.Router, retriever CollectionRetriever, query string) ([]*models.RetrievalResult, error) {
	decision, err := rt.Route(ctx, query)
	if err != nil {
		// Router already falls back to a usable Decision on classification
		// failure; the error is informational only.
		_ = err
	}

	results := make([]*models.RetrievalResult, 0, len(decision.Collections))
	for _, collection := range decision.Collections {
		result, err := retriever.Retrieve(ctx, query, collection)
		if err != nil {
			return nil, fmt.Errorf("retrieve from %q: %w", collection, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// formatAsText renders a human-readable block for the agent-facing
// retrieve_documents tool, one section per consulted collection.
func formatAsText(query string, results []*models.RetrievalResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	for _, r := range results {
		fmt.Fprintf(&sb, "## %d result(s), reranked=%v\n\n", r.FinalCount, r.Reranked)
		for _, n := range r.Nodes {
			hierarchy, _ := n.Metadata["hierarchy"].(string)
			fmt.Fprintf(&sb, "- [%.2f] %s\n%s\n\n", n.Score, hierarchy, n.Text)
		}
	}
	return sb.String()
}

func requireString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	return v, nil
}
