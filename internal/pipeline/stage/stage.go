// Package stage implements the abstract pipeline unit and its runtime
// protocol, per spec §4.2.
package stage

import (
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/state"
)

// Executor is the concrete work a Stage performs. It receives the input
// file path and the path its output should be written to, and returns an
// extra-metadata map (which may include a "cost" float64 entry) or an
// error.
type Executor func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error)

// Stage is one unit of the processing or indexing pipeline.
type Stage struct {
	Name           models.StageName
	IsCostly       bool
	IsIdempotent   bool
	Description    string
	OutputFilename string // empty for stages with no markdown artifact (embed-index)

	execute Executor
	states  interfaces.StateStore
	logger  arbor.ILogger
}

// New creates a Stage around execute.
func New(name models.StageName, isCostly, isIdempotent bool, description, outputFilename string, execute Executor, states interfaces.StateStore, logger arbor.ILogger) *Stage {
	return &Stage{
		Name:           name,
		IsCostly:       isCostly,
		IsIdempotent:   isIdempotent,
		Description:    description,
		OutputFilename: outputFilename,
		execute:        execute,
		states:         states,
		logger:         logger,
	}
}

// Result is the per-stage outcome reported by Run.
type Result struct {
	Executed   bool
	Skipped    bool
	SkipReason string
	Cost       float64
	Metadata   map[string]interface{}
}

// InputError is a typed error for missing/empty/unreadable stage input.
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error for %s: %s", e.Path, e.Reason)
}

// StageFailure wraps an Executor error with the failing stage's name.
type StageFailure struct {
	Stage models.StageName
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error { return e.Err }

// LockViolation reports an attempted rerun of a manually-edited stage.
type LockViolation struct {
	Stage models.StageName
}

func (e *LockViolation) Error() string {
	return fmt.Sprintf("stage %s is locked (manually_edited)", e.Stage)
}

// QualityRejection is raised by the filter stage's Executor when content
// fails the quality gate. The pipeline aborts for this document and the
// stage record is persisted as "rejected" rather than "failed".
type QualityRejection struct {
	Reason    string
	Score     float64
	WordCount int
}

func (e *QualityRejection) Error() string {
	return fmt.Sprintf("quality rejected: %s (score=%.2f, words=%d)", e.Reason, e.Score, e.WordCount)
}

// Run executes the stage's runtime protocol against st, persisting state
// transitions via the stage's StateStore.
func (s *Stage) Run(category, documentID string, st *models.PipelineState, inputPath, outputPath string, force bool) (*Result, error) {
	rec := st.FindStage(s.Name)

	info, statErr := os.Stat(inputPath)
	inputExists := statErr == nil && !info.IsDir()

	locked := s.states.IsLocked(st, s.Name)

	// 1. Skip check.
	if locked {
		return &Result{Skipped: true, SkipReason: "locked_manual_edit"}, nil
	}
	if !force && inputExists && rec != nil && rec.Status == models.StageStatusCompleted {
		data, err := os.ReadFile(inputPath)
		if err == nil {
			hash := state.HashInput(data)
			if hash == rec.InputHash {
				return &Result{Skipped: true, SkipReason: "already_completed"}, nil
			}
		}
	}

	// 2. Validate input.
	if !inputExists {
		return nil, &InputError{Path: inputPath, Reason: "missing"}
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, &InputError{Path: inputPath, Reason: err.Error()}
	}
	if len(data) == 0 {
		return nil, &InputError{Path: inputPath, Reason: "empty"}
	}

	if s.IsCostly && rec != nil && rec.Status == models.StageStatusCompleted && force {
		s.logger.Warn().Str("stage", string(s.Name)).Str("document_id", documentID).
			Msg("re-running already-completed costly stage because force=true")
	}

	// 3. Transition to in_progress.
	inputHash := state.HashInput(data)
	st = s.states.AddOrUpdateStage(st, models.StageRecord{
		Name:      s.Name,
		Status:    models.StageStatusInProgress,
		Timestamp: time.Now(),
		InputHash: inputHash,
	})
	if err := s.states.Save(category, documentID, st); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist in_progress transition")
	}

	// 4. Execute.
	extra, execErr := s.execute(inputPath, outputPath, st)
	if execErr != nil {
		if rejection, ok := execErr.(*QualityRejection); ok {
			st = s.states.AddOrUpdateStage(st, models.StageRecord{
				Name:      s.Name,
				Status:    models.StageStatusRejected,
				Timestamp: time.Now(),
				InputHash: inputHash,
				Metadata: map[string]interface{}{
					"reason":     rejection.Reason,
					"score":      rejection.Score,
					"word_count": rejection.WordCount,
				},
			})
			_ = s.states.Save(category, documentID, st)
			return nil, rejection
		}

		st = s.states.AddOrUpdateStage(st, models.StageRecord{
			Name:      s.Name,
			Status:    models.StageStatusFailed,
			Timestamp: time.Now(),
			InputHash: inputHash,
			Metadata:  map[string]interface{}{"error": execErr.Error()},
		})
		_ = s.states.Save(category, documentID, st)
		return nil, &StageFailure{Stage: s.Name, Err: execErr}
	}

	cost, _ := extra["cost"].(float64)

	// 5. On success.
	st = s.states.AddOrUpdateStage(st, models.StageRecord{
		Name:       s.Name,
		Status:     models.StageStatusCompleted,
		Timestamp:  time.Now(),
		InputHash:  inputHash,
		OutputFile: s.OutputFilename,
		Cost:       cost,
		Metadata:   extra,
	})
	if err := s.states.Save(category, documentID, st); err != nil {
		return nil, fmt.Errorf("persist completed state: %w", err)
	}

	return &Result{Executed: true, Cost: cost, Metadata: extra}, nil
}
