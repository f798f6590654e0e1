package interfaces

import "github.com/uit-ai/knowledge-core/internal/models"

// StateStore provides atomic load/save of per-document pipeline state from
// the .pipeline.json sidecar, plus CRUD over its stage records.
type StateStore interface {
	// DocumentDir returns the working directory for (category, documentID).
	DocumentDir(category, documentID string) string

	// Load reads the sidecar for (category, documentID). A missing or
	// malformed sidecar returns an empty state, never an error.
	Load(category, documentID string) (*models.PipelineState, error)

	// Save persists state to the sidecar, atomically.
	Save(category, documentID string, state *models.PipelineState) error

	// AddOrUpdateStage creates or overwrites the named stage record in
	// state and returns it; it does not persist, so callers follow with Save.
	AddOrUpdateStage(state *models.PipelineState, rec models.StageRecord) *models.PipelineState

	IsCompleted(state *models.PipelineState, name models.StageName) bool
	IsLocked(state *models.PipelineState, name models.StageName) bool
	Lock(state *models.PipelineState, name models.StageName) *models.PipelineState
	Unlock(state *models.PipelineState, name models.StageName) *models.PipelineState

	// NeedsRerun reports whether the named stage must run again given the
	// hash of its current input.
	NeedsRerun(state *models.PipelineState, name models.StageName, currentInputHash string) bool

	TotalCost(state *models.PipelineState) float64

	// StatusSummary renders "[x] parse -> [x] clean -> [FAIL] fix" over
	// the fixed stage vocabulary.
	StatusSummary(state *models.PipelineState) string
}

// DocumentParser converts a binary source document (PDF, DOCX, XLSX) to
// markdown. Implementations may incur a per-call monetary cost.
type DocumentParser interface {
	Parse(path string) (string, error)
}
