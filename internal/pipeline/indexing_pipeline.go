package pipeline

import (
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// finalMarkdownPrecedence lists candidate final-markdown filenames, most
// preferred first.
var finalMarkdownPrecedence = []string{
	"06-flattened.md",
	"05-fixed.md",
	"04-filtered.md",
	"03-normalized.md",
	"02-cleaned.md",
	"01-parsed.md",
}

// finalMarkdownPath resolves the latest successful structural stage's
// output within docDir.
func finalMarkdownPath(docDir string) string {
	for _, name := range finalMarkdownPrecedence {
		path := filepath.Join(docDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return filepath.Join(docDir, finalMarkdownPrecedence[len(finalMarkdownPrecedence)-1])
}

// IndexingPipeline runs chunk -> embed-index over one document, per spec
// §4.6. chunk always runs regardless of the caller's force flag; its
// output is a debugging artifact, safe to regenerate.
type IndexingPipeline struct {
	chunkStage      *stage.Stage
	embedIndexStage *stage.Stage
	states          interfaces.StateStore
	logger          arbor.ILogger
}

// NewIndexingPipeline builds an IndexingPipeline from its two stages.
func NewIndexingPipeline(chunkStage, embedIndexStage *stage.Stage, states interfaces.StateStore, logger arbor.ILogger) *IndexingPipeline {
	return &IndexingPipeline{chunkStage: chunkStage, embedIndexStage: embedIndexStage, states: states, logger: logger}
}

// Run executes chunk then embed-index for (category, documentID).
func (p *IndexingPipeline) Run(category, documentID string, force bool) (*RunReport, error) {
	st, err := p.states.Load(category, documentID)
	if err != nil {
		return nil, err
	}

	docDir := p.states.DocumentDir(category, documentID)
	report := &RunReport{}

	chunksPath := filepath.Join(docDir, "chunks.json")

	chunkResult, runErr := p.chunkStage.Run(category, documentID, st, finalMarkdownPath(docDir), chunksPath, true)
	if runErr != nil {
		report.Outcomes = append(report.Outcomes, StageOutcome{Name: p.chunkStage.Name, Reason: runErr.Error()})
		return report, runErr
	}
	st, _ = p.states.Load(category, documentID)
	report.Outcomes = append(report.Outcomes, StageOutcome{
		Name: p.chunkStage.Name, Executed: chunkResult.Executed, Skipped: chunkResult.Skipped,
		Reason: chunkResult.SkipReason, Cost: chunkResult.Cost, Metadata: chunkResult.Metadata,
	})
	report.TotalCost += chunkResult.Cost

	embedResult, runErr := p.embedIndexStage.Run(category, documentID, st, chunksPath, "", force)
	if runErr != nil {
		report.Outcomes = append(report.Outcomes, StageOutcome{Name: p.embedIndexStage.Name, Reason: runErr.Error()})
		return report, runErr
	}
	report.Outcomes = append(report.Outcomes, StageOutcome{
		Name: p.embedIndexStage.Name, Executed: embedResult.Executed, Skipped: embedResult.Skipped,
		Reason: embedResult.SkipReason, Cost: embedResult.Cost, Metadata: embedResult.Metadata,
	})
	report.TotalCost += embedResult.Cost

	return report, nil
}
