package retrieval

import (
	"math"

	"github.com/uit-ai/knowledge-core/internal/models"
)

// FormatRegulation renders a RetrievalResult from the regulation
// collection into the tool-facing wire shape.
func FormatRegulation(result *models.RetrievalResult) models.RegulationRetrievalResult {
	docs := make([]models.RegulationDocument, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		docs = append(docs, models.RegulationDocument{
			Content:          n.Text,
			Title:            stringField(n.Metadata, "title"),
			RegulationNumber: optionalStringField(n.Metadata, "base_regulation_code"),
			Hierarchy:        stringField(n.Metadata, "hierarchy"),
			EffectiveDate:    optionalStringField(n.Metadata, "effective_date"),
			DocumentType:     models.DocumentType(stringField(n.Metadata, "document_type")),
			Year:             optionalIntField(n.Metadata, "year"),
			PDFFile:          optionalStringField(n.Metadata, "source_file"),
			Score:            round2(n.Score),
		})
	}

	return models.RegulationRetrievalResult{
		Query:          result.Query,
		TotalRetrieved: result.TotalRetrieved,
		Documents:      docs,
	}
}

// FormatCurriculum renders a RetrievalResult from the curriculum
// collection into the tool-facing wire shape.
func FormatCurriculum(result *models.RetrievalResult) models.CurriculumRetrievalResult {
	docs := make([]models.CurriculumDocument, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		docs = append(docs, models.CurriculumDocument{
			Content:     n.Text,
			Title:       stringField(n.Metadata, "title"),
			Year:        optionalIntField(n.Metadata, "year"),
			Major:       stringField(n.Metadata, "major"),
			MajorCode:   stringField(n.Metadata, "major_code"),
			ProgramType: models.ProgramType(stringField(n.Metadata, "program_type")),
			ProgramName: optionalStringField(n.Metadata, "program_name"),
			SourceURL:   stringField(n.Metadata, "source_file"),
			Score:       round2(n.Score),
		})
	}

	return models.CurriculumRetrievalResult{
		Query:          result.Query,
		TotalRetrieved: result.TotalRetrieved,
		Documents:      docs,
	}
}

func stringField(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func optionalStringField(metadata map[string]interface{}, key string) *string {
	v, ok := metadata[key].(string)
	if !ok || v == "" || v == "null" {
		return nil
	}
	return &v
}

func optionalIntField(metadata map[string]interface{}, key string) *int {
	switch v := metadata[key].(type) {
	case float64:
		i := int(v)
		return &i
	case int:
		return &v
	default:
		return nil
	}
}

// round2 clamps score to [0,1] before rounding to two decimals. A reranked
// score is already a probability, but the raw-score fallback (dense cosine
// similarity merged with unbounded BM25) is not, so every document
// formatted for the tool surface is clamped to satisfy the score ∈ [0,1]
// invariant regardless of path.
func round2(score float64) float64 {
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	return math.Round(score*100) / 100
}
