package stages

import (
	"os"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
	"golang.org/x/text/unicode/norm"
)

var (
	multiBlankLines = regexp.MustCompile(`\n{3,}`)
	trailingSpaces  = regexp.MustCompile(`[ \t]+\n`)
)

// bulletReplacements maps non-standard bullet glyphs to a plain hyphen.
var bulletReplacements = []string{"•", "◦", "▪", "‣", "·"}

// NewNormalizeStage builds the "normalize" processing stage: whitespace,
// bullet characters, and unicode NFC normalization.
func NewNormalizeStage(states interfaces.StateStore, logger arbor.ILogger) *stage.Stage {
	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}

		normalized := normalizeText(string(raw))

		if err := os.WriteFile(outputPath, []byte(normalized), 0644); err != nil {
			return nil, err
		}
		return map[string]interface{}{}, nil
	}

	return stage.New(models.StageNormalize, false, true, "normalizes whitespace, bullets, and unicode form", "03-normalized.md", exec, states, logger)
}

func normalizeText(text string) string {
	text = norm.NFC.String(text)

	for _, bullet := range bulletReplacements {
		text = strings.ReplaceAll(text, bullet, "-")
	}

	text = trailingSpaces.ReplaceAllString(text, "\n")
	text = multiBlankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text) + "\n"
}
