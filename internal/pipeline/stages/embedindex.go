package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// embedTokensPerChunk approximates tokens billed per chunk for cost
// accounting; actual token counts vary with chunk size.
const embedTokensPerChunk = 200

// NewEmbedIndexStage builds the "embed-index" indexing stage: embeds
// chunks.json and upserts into the category's vector collection.
// Idempotent — deletes any existing points for the document before
// inserting, so reruns don't duplicate nodes.
func NewEmbedIndexStage(store interfaces.VectorStore, embedder interfaces.Embedder, unitPriceUSD float64, states interfaces.StateStore, logger arbor.ILogger) *stage.Stage {
	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		category, documentID := st.Category, st.DocumentID

		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}

		var chunks []models.Chunk
		if err := json.Unmarshal(raw, &chunks); err != nil {
			return nil, fmt.Errorf("parse chunks.json: %w", err)
		}

		ctx := context.Background()
		dimension := embedder.Dimension()

		if err := store.GetOrCreateCollection(ctx, category, dimension); err != nil {
			return nil, fmt.Errorf("get or create collection: %w", err)
		}

		if err := store.DeleteByFilter(ctx, category, map[string]string{"document_id": documentID}); err != nil {
			logger.Warn().Err(err).Str("document_id", documentID).Msg("failed to delete existing points before reindex")
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
		}

		points := make([]interfaces.VectorPoint, len(chunks))
		for i, c := range chunks {
			points[i] = interfaces.VectorPoint{
				ID:       c.ID,
				Vector:   vectors[i],
				Text:     c.Text,
				Metadata: c.Metadata,
			}
		}

		if err := store.Upsert(ctx, category, points); err != nil {
			return nil, fmt.Errorf("upsert points: %w", err)
		}

		cost := float64(len(chunks)) * embedTokensPerChunk / 1e6 * unitPriceUSD

		return map[string]interface{}{
			"nodes_indexed": len(chunks),
			"collection":    category,
			"embed_model":   fmt.Sprintf("dimension=%d", dimension),
			"cost":          cost,
		}, nil
	}

	return stage.New(models.StageEmbedIndex, true, true, "embeds chunks and upserts into the category vector collection", "", exec, states, logger)
}
