// Package metadatagen produces structured, per-category metadata records
// from processed markdown, per spec §4.11.
package metadatagen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// Generator extracts a typed metadata record from processed markdown and
// its source filename.
type Generator interface {
	Generate(ctx context.Context, markdown, sourceFilename string) (map[string]interface{}, error)
}

// NewGenerator is the factory keyed by category.
func NewGenerator(category string, completer interfaces.Completer, model string, codes *RegulationCodeTable, logger arbor.ILogger) (Generator, error) {
	switch category {
	case "regulation":
		return &regulationGenerator{completer: completer, model: model, codes: codes, logger: logger}, nil
	case "curriculum":
		return &curriculumGenerator{completer: completer, model: model, logger: logger}, nil
	default:
		return nil, fmt.Errorf("no metadata generator for category %q", category)
	}
}

func callJSON(ctx context.Context, completer interfaces.Completer, model, systemInstruction, prompt string, out interface{}) error {
	text, err := completer.Complete(ctx, interfaces.CompletionRequest{
		Messages:          []interfaces.Message{{Role: "user", Content: prompt}},
		Model:             model,
		Temperature:       0,
		SystemInstruction: systemInstruction,
	})
	if err != nil {
		return fmt.Errorf("metadata generation call: %w", err)
	}

	cleaned := stripCodeFence(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("parse metadata JSON: %w", err)
	}
	return nil
}

func stripCodeFence(text string) string {
	s := text
	for len(s) > 0 && (s[0] == '\n' || s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	if len(s) >= 3 && s[:3] == "```" {
		if idx := indexOfNewline(s); idx >= 0 {
			s = s[idx+1:]
		}
	}
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	if len(s) >= 3 && s[len(s)-3:] == "```" {
		s = s[:len(s)-3]
	}
	return s
}

func indexOfNewline(s string) int {
	for i, r := range s {
		if r == '\n' {
			return i
		}
	}
	return -1
}
