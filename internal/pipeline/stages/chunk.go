package stages

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/chunker"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// NewChunkStage builds the "chunk" indexing stage: structure-aware split
// of the final processed markdown into chunks.json. Always runs; its
// output is a debugging artifact, safe to regenerate.
func NewChunkStage(c chunker.Chunker, states interfaces.StateStore, logger arbor.ILogger) *stage.Stage {
	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}

		metadata := loadMetadataSidecar(filepath.Dir(inputPath))
		flattened := flattenMetadata(metadata)

		chunks, stats, err := c.Chunk(string(raw), flattened, st.Category, st.DocumentID)
		if err != nil {
			return nil, err
		}

		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return nil, err
		}

		chunksPath := filepath.Join(filepath.Dir(outputPath), "chunks.json")
		if err := os.WriteFile(chunksPath, data, 0644); err != nil {
			return nil, err
		}

		return map[string]interface{}{
			"chunks_generated": len(chunks),
			"chunks_file":       chunksPath,
			"splitter_stats":    stats,
		}, nil
	}

	return stage.New(models.StageChunk, false, true, "structure-aware split into chunks with hierarchy context", "", exec, states, logger)
}

func loadMetadataSidecar(dir string) map[string]interface{} {
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return map[string]interface{}{}
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return map[string]interface{}{}
	}
	return meta
}

// flattenMetadata reduces metadata values to scalars suitable for the
// vector store: booleans become strings, lists are joined, and dicts are
// serialized as JSON text.
func flattenMetadata(metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		out[k] = flattenValue(v)
	}
	return out
}

func flattenValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil, string, int, int64, float64:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringifyScalar(item))
		}
		return joinStrings(parts, ", ")
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func stringifyScalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		data, _ := json.Marshal(t)
		return string(data)
	}
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
