package stages

import (
	"context"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/markdownfix"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// NewFixStage builds the "fix" processing stage: LLM-driven markdown
// header hierarchy repair.
func NewFixStage(fixer *markdownfix.Fixer, category string, states interfaces.StateStore, logger arbor.ILogger) *stage.Stage {
	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}

		fixed, err := fixer.Fix(context.Background(), string(raw), category)
		if err != nil {
			return nil, err
		}

		if err := os.WriteFile(outputPath, []byte(fixed), 0644); err != nil {
			return nil, err
		}
		return map[string]interface{}{}, nil
	}

	return stage.New(models.StageFix, true, false, "repairs markdown header hierarchy via an LLM", "05-fixed.md", exec, states, logger)
}
