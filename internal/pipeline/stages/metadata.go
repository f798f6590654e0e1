package stages

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/metadatagen"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// NewMetadataStage builds the "metadata" processing stage: LLM-assisted
// extraction of typed metadata via a category-specific generator.
// Its output is metadata.json rather than markdown; the input markdown
// passes through unchanged so downstream stages keep a uniform contract.
func NewMetadataStage(generator metadatagen.Generator, states interfaces.StateStore, logger arbor.ILogger) *stage.Stage {
	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}

		sourceFilename := filepath.Base(st.SourceFile)
		meta, err := generator.Generate(context.Background(), string(raw), sourceFilename)
		if err != nil {
			return nil, err
		}
		if _, ok := meta["source_file"]; !ok {
			meta["source_file"] = sourceFilename
		}

		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return nil, err
		}
		metaPath := filepath.Join(filepath.Dir(outputPath), "metadata.json")
		if err := os.WriteFile(metaPath, data, 0644); err != nil {
			return nil, err
		}

		if err := os.WriteFile(outputPath, raw, 0644); err != nil {
			return nil, err
		}
		return map[string]interface{}{}, nil
	}

	return stage.New(models.StageMetadata, true, false, "extracts structured metadata via a category-specific generator", "06-flattened.md", exec, states, logger)
}
