package stages

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// parseUnitCostUSD is the per-document monetary cost charged by the
// external document parser.
const parseUnitCostUSD = 0.01

// NewParseStage builds the "parse" processing stage: converts a binary
// source document (PDF/DOCX/XLSX) to markdown via parser.
func NewParseStage(parser interfaces.DocumentParser, unitCostUSD float64, states interfaces.StateStore, logger arbor.ILogger) *stage.Stage {
	if unitCostUSD <= 0 {
		unitCostUSD = parseUnitCostUSD
	}

	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		markdown, err := parser.Parse(inputPath)
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
		if markdown == "" {
			return nil, fmt.Errorf("parser returned empty markdown")
		}

		if err := os.WriteFile(outputPath, []byte(markdown), 0644); err != nil {
			return nil, err
		}

		return map[string]interface{}{"cost": unitCostUSD}, nil
	}

	return stage.New(models.StageParse, true, false, "converts a binary source document to markdown", "01-parsed.md", exec, states, logger)
}
