// Package router picks which vector collections a query should be run
// against, per spec §4.8.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// Decision names the collections a query should be retrieved from.
type Decision struct {
	Collections []string
	Strategy    string
	Reasoning   string
}

// Router selects collections for a query.
type Router interface {
	Route(ctx context.Context, query string) (Decision, error)
}

// ClassificationUnparseable is returned when the classification LLM's
// response names no known collection. Callers fall back to "all".
type ClassificationUnparseable struct {
	Raw string
}

func (e *ClassificationUnparseable) Error() string {
	return fmt.Sprintf("router: could not parse classification response: %q", e.Raw)
}

// QueryAllRouter always routes to every configured collection.
type QueryAllRouter struct {
	Collections []string
}

var _ Router = (*QueryAllRouter)(nil)

func (r *QueryAllRouter) Route(ctx context.Context, query string) (Decision, error) {
	return Decision{
		Collections: r.Collections,
		Strategy:    "query_all",
		Reasoning:   "query_all router always fans out to every configured collection",
	}, nil
}

// LLMClassificationRouter builds a short classification prompt naming the
// available collections and lets a fast, temperature-0 LLM call pick one
// or "all". An unparseable or failed classification falls back to every
// collection rather than failing the request.
type LLMClassificationRouter struct {
	Completer   interfaces.Completer
	Model       string
	Collections []string
	Descriptions map[string]string // collection -> short description for the prompt
	Logger      arbor.ILogger
}

var _ Router = (*LLMClassificationRouter)(nil)

const classificationSystemPrompt = `You classify a user query against a fixed set of document collections.
Respond with exactly one collection name, or "all" if more than one collection applies or none is clearly indicated.
The university's own name is not a program name and must not trigger the curriculum collection on its own.
Queries about a specific major, program, or course belong to curriculum.
Queries about policy, regulations, fees, or administrative procedure belong to regulation.
Respond with the bare collection name or "all" and nothing else.`

func (r *LLMClassificationRouter) Route(ctx context.Context, query string) (Decision, error) {
	var sb strings.Builder
	sb.WriteString("Collections:\n")
	for _, c := range r.Collections {
		desc := r.Descriptions[c]
		if desc == "" {
			desc = c
		}
		fmt.Fprintf(&sb, "- %s: %s\n", c, desc)
	}
	fmt.Fprintf(&sb, "\nQuery: %s", query)

	resp, err := r.Completer.Complete(ctx, interfaces.CompletionRequest{
		Messages:          []interfaces.Message{{Role: "user", Content: sb.String()}},
		Model:             r.Model,
		Temperature:       0,
		SystemInstruction: classificationSystemPrompt,
	})
	if err != nil {
		r.Logger.Warn().Err(err).Msg("router classification call failed, falling back to all collections")
		return Decision{
			Collections: r.Collections,
			Strategy:    "llm_classification_fallback",
			Reasoning:   "classification call failed: " + err.Error(),
		}, &ClassificationUnparseable{Raw: err.Error()}
	}

	normalized := strings.ToLower(strings.TrimSpace(resp))
	if normalized == "all" {
		return Decision{
			Collections: r.Collections,
			Strategy:    "llm_classification",
			Reasoning:   "classifier responded \"all\"",
		}, nil
	}

	for _, c := range r.Collections {
		if strings.Contains(normalized, strings.ToLower(c)) {
			return Decision{
				Collections: []string{c},
				Strategy:    "llm_classification",
				Reasoning:   fmt.Sprintf("classifier matched collection %q in response %q", c, resp),
			}, nil
		}
	}

	r.Logger.Warn().Str("response", resp).Msg("unparseable router classification, falling back to all collections")
	return Decision{
		Collections: r.Collections,
		Strategy:    "llm_classification_fallback",
		Reasoning:   fmt.Sprintf("classifier response %q matched no known collection", resp),
	}, &ClassificationUnparseable{Raw: resp}
}
