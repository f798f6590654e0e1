package stages

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

const (
	minWordCount   = 30
	minScoreToPass = 0.35
)

// errorPageMarkers flag content that is clearly an extraction error page
// rather than the actual document.
var errorPageMarkers = []string{
	"404 not found",
	"access denied",
	"page not found",
	"error occurred",
}

// NewFilterStage builds the "filter" processing stage: the quality gate
// that rejects too-short or low-information documents.
func NewFilterStage(states interfaces.StateStore, rejectedRoot string, logger arbor.ILogger) *stage.Stage {
	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}
		text := string(raw)

		wordCount := len(strings.Fields(text))
		score := qualityScore(text, wordCount)

		if reason, rejected := rejectionReason(text, wordCount, score); rejected {
			if err := writeRejected(rejectedRoot, st.Category, st.DocumentID, text, reason, score, wordCount); err != nil {
				logger.Error().Err(err).Str("document_id", st.DocumentID).Msg("failed to persist rejected artifact")
			}
			return nil, &stage.QualityRejection{Reason: reason, Score: score, WordCount: wordCount}
		}

		if err := os.WriteFile(outputPath, raw, 0644); err != nil {
			return nil, err
		}
		return map[string]interface{}{"score": score, "word_count": wordCount}, nil
	}

	return stage.New(models.StageFilter, false, true, "quality gate rejecting low-information content", "04-filtered.md", exec, states, logger)
}

func rejectionReason(text string, wordCount int, score float64) (string, bool) {
	lower := strings.ToLower(text)

	if wordCount < minWordCount {
		return "too_short", true
	}
	for _, marker := range errorPageMarkers {
		if strings.Contains(lower, marker) {
			return "error_page", true
		}
	}
	if score < minScoreToPass {
		return "low_information_density", true
	}
	return "", false
}

// qualityScore blends word count, paragraph count, and a crude
// information-density signal (ratio of alphabetic characters to total
// length) into a score in [0, 1].
func qualityScore(text string, wordCount int) float64 {
	paragraphs := strings.Count(text, "\n\n") + 1

	wordScore := clamp01(float64(wordCount) / 300.0)
	paragraphScore := clamp01(float64(paragraphs) / 10.0)

	var alpha, total int
	for _, r := range text {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			alpha++
		}
	}
	densityScore := 0.0
	if total > 0 {
		densityScore = float64(alpha) / float64(total)
	}

	return (wordScore + paragraphScore + densityScore) / 3.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func writeRejected(rejectedRoot, category, documentID, text, reason string, score float64, wordCount int) error {
	dir := filepath.Join(rejectedRoot, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	mdPath := filepath.Join(dir, documentID+".md")
	if err := os.WriteFile(mdPath, []byte(text), 0644); err != nil {
		return err
	}

	meta := map[string]interface{}{
		"reason":     reason,
		"score":      score,
		"word_count": wordCount,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(dir, documentID+".json")
	return os.WriteFile(jsonPath, data, 0644)
}
