// Package markdownfix repairs markdown header hierarchy via an LLM while
// preserving content, per spec §4.10.
package markdownfix

import (
	"context"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"golang.org/x/time/rate"
)

const defaultRPM = 10

// Fixer is a content-preserving structure repair service.
type Fixer struct {
	completer interfaces.Completer
	limiter   *rate.Limiter
	model     string
	logger    arbor.ILogger
}

// NewFixer creates a Fixer calling completer at most rpm times per minute.
// rpm <= 0 uses the default of 10 requests/minute, tuned for a free-tier
// LLM budget.
func NewFixer(completer interfaces.Completer, model string, rpm int, logger arbor.ILogger) *Fixer {
	if rpm <= 0 {
		rpm = defaultRPM
	}
	return &Fixer{
		completer: completer,
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		model:     model,
		logger:    logger,
	}
}

// Fix repairs the header hierarchy of markdown for category ("regulation"
// or "curriculum"), preserving all content words.
func (f *Fixer) Fix(ctx context.Context, markdown, category string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	prompt := promptFor(category, markdown)

	text, err := f.completer.Complete(ctx, interfaces.CompletionRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
		Model:             f.model,
		Temperature:       0,
		SystemInstruction: systemInstructionFor(category),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyFix
	}

	return postProcess(text), nil
}

var errEmptyFix = &emptyFixError{}

type emptyFixError struct{}

func (e *emptyFixError) Error() string { return "markdown fixer returned an empty document" }

func systemInstructionFor(category string) string {
	switch category {
	case "regulation":
		return "You repair the markdown header hierarchy of Vietnamese university regulations without changing any content. " +
			"Use # for CHƯƠNG, ## for Điều, ### for Khoản, #### for lettered clauses. " +
			"Consistency rule: within a group of siblings, if any sibling is 10 words or longer, make every sibling in that group a header at the same level."
	case "curriculum":
		return "You repair the markdown header hierarchy of a Vietnamese university curriculum document without changing any content. " +
			"Preserve table structure exactly. " +
			"Consistency rule: within a group of siblings, if any sibling is 10 words or longer, make every sibling in that group a header at the same level."
	default:
		return "You repair markdown header hierarchy without changing any content."
	}
}

func promptFor(category, markdown string) string {
	return "Repair the header hierarchy of the following document. Return only the corrected markdown, with no commentary and no code fences.\n\n" + markdown
}

var (
	codeFenceStart = regexp.MustCompile("^```[a-zA-Z]*\\s*\n")
	codeFenceEnd   = regexp.MustCompile("\\s*```\\s*$")
	tableSeparator = regexp.MustCompile(`^\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?\s*$`)
)

// postProcess strips stray code fences and ensures a blank line precedes
// every table header line. Deterministic and idempotent on its own output.
func postProcess(text string) string {
	text = codeFenceStart.ReplaceAllString(text, "")
	text = codeFenceEnd.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+4)

	for i, line := range lines {
		isTableHeader := strings.Contains(line, "|") && i+1 < len(lines) && tableSeparator.MatchString(lines[i+1])

		if isTableHeader && len(out) > 0 {
			prev := out[len(out)-1]
			if strings.TrimSpace(prev) != "" && !tableSeparator.MatchString(prev) {
				out = append(out, "")
			}
		}

		out = append(out, line)
	}

	return strings.Join(out, "\n")
}
