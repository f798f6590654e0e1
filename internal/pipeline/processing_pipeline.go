package pipeline

import (
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// StageOutcome is one stage's reported result within a Run.
type StageOutcome struct {
	Name     models.StageName
	Executed bool
	Skipped  bool
	Reason   string
	Cost     float64
	Metadata map[string]interface{}
}

// RunReport aggregates the outcomes of a full pipeline run over one
// document.
type RunReport struct {
	Outcomes  []StageOutcome
	TotalCost float64
}

// ProcessingPipeline runs parse -> clean -> normalize -> filter ->
// fix -> metadata in order over one document, per spec §4.6.
type ProcessingPipeline struct {
	stages     []*stage.Stage
	states     interfaces.StateStore
	logger     arbor.ILogger
}

// NewProcessingPipeline builds a ProcessingPipeline from its stages, which
// must be supplied in processing order (parse, clean, normalize, filter,
// fix, metadata).
func NewProcessingPipeline(stages []*stage.Stage, states interfaces.StateStore, logger arbor.ILogger) *ProcessingPipeline {
	return &ProcessingPipeline{stages: stages, states: states, logger: logger}
}

// Run executes every processing stage in order for (category, documentID),
// whose raw source document lives at sourceFile. It short-circuits on the
// first fatal error (a stage failure, input error, or quality rejection),
// returning the partial report alongside the error.
func (p *ProcessingPipeline) Run(category, documentID, sourceFile string, force bool) (*RunReport, error) {
	st, err := p.states.Load(category, documentID)
	if err != nil {
		return nil, err
	}

	docDir := p.states.DocumentDir(category, documentID)
	currentInput := sourceFile

	if st.SourceFile != sourceFile {
		st.SourceFile = sourceFile
		if err := p.states.Save(category, documentID, st); err != nil {
			p.logger.Warn().Err(err).Str("document_id", documentID).Msg("failed to persist source file on pipeline state")
		}
	}

	report := &RunReport{}

	for _, s := range p.stages {
		outputPath := currentInput
		if s.OutputFilename != "" {
			outputPath = filepath.Join(docDir, s.OutputFilename)
		}

		result, runErr := s.Run(category, documentID, st, currentInput, outputPath, force)
		if runErr != nil {
			report.Outcomes = append(report.Outcomes, StageOutcome{Name: s.Name, Executed: false, Reason: runErr.Error()})
			return report, runErr
		}

		st, _ = p.states.Load(category, documentID)

		report.Outcomes = append(report.Outcomes, StageOutcome{
			Name:     s.Name,
			Executed: result.Executed,
			Skipped:  result.Skipped,
			Reason:   result.SkipReason,
			Cost:     result.Cost,
			Metadata: result.Metadata,
		})
		report.TotalCost += result.Cost

		if s.OutputFilename != "" {
			currentInput = outputPath
		}
	}

	return report, nil
}
