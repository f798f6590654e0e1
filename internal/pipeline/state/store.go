// Package state implements interfaces.StateStore over a JSON sidecar file
// per document, per spec §4.1.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
)

const sidecarName = ".pipeline.json"

// Store is a filesystem-backed StateStore rooted at stagesRoot, laid out
// as {stagesRoot}/{category}/{document_id}/.pipeline.json.
type Store struct {
	stagesRoot string
	logger     arbor.ILogger
}

var _ interfaces.StateStore = (*Store)(nil)

// NewStore creates a Store rooted at stagesRoot.
func NewStore(stagesRoot string, logger arbor.ILogger) *Store {
	return &Store{stagesRoot: stagesRoot, logger: logger}
}

// DocumentDir returns the working directory for (category, documentID).
func (s *Store) DocumentDir(category, documentID string) string {
	return filepath.Join(s.stagesRoot, category, documentID)
}

func (s *Store) sidecarPath(category, documentID string) string {
	return filepath.Join(s.DocumentDir(category, documentID), sidecarName)
}

// Load reads the sidecar for (category, documentID). A missing or
// malformed sidecar returns an empty state rather than an error.
func (s *Store) Load(category, documentID string) (*models.PipelineState, error) {
	empty := &models.PipelineState{
		DocumentID: documentID,
		Category:   category,
		Stages:     []models.StageRecord{},
	}

	data, err := os.ReadFile(s.sidecarPath(category, documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("failed to read pipeline sidecar, treating as empty state")
		return empty, nil
	}

	var state models.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("malformed pipeline sidecar, treating as empty state")
		return empty, nil
	}

	return &state, nil
}

// Save persists state to the sidecar, atomically via a temp file + rename.
func (s *Store) Save(category, documentID string, state *models.PipelineState) error {
	dir := s.DocumentDir(category, documentID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create document dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pipeline state: %w", err)
	}

	finalPath := s.sidecarPath(category, documentID)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write pipeline sidecar temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("rename pipeline sidecar into place: %w", err)
	}

	return nil
}

// AddOrUpdateStage creates or overwrites the named stage record by name.
// On completed, current_stage and final_output are updated.
func (s *Store) AddOrUpdateStage(state *models.PipelineState, rec models.StageRecord) *models.PipelineState {
	found := false
	for i := range state.Stages {
		if state.Stages[i].Name == rec.Name {
			state.Stages[i] = rec
			found = true
			break
		}
	}
	if !found {
		state.Stages = append(state.Stages, rec)
	}

	if rec.Status == models.StageStatusCompleted {
		state.CurrentStage = rec.Name
		if rec.OutputFile != "" {
			state.FinalOutput = rec.OutputFile
		}
	}

	return state
}

// IsCompleted reports whether the named stage's last record is completed.
func (s *Store) IsCompleted(state *models.PipelineState, name models.StageName) bool {
	rec := state.FindStage(name)
	return rec != nil && rec.Status == models.StageStatusCompleted
}

// IsLocked reports whether the named stage is manually-edited locked.
func (s *Store) IsLocked(state *models.PipelineState, name models.StageName) bool {
	rec := state.FindStage(name)
	return rec != nil && rec.ManuallyEdited
}

// Lock sets manually_edited = true on the named stage, creating a pending
// record if none exists yet.
func (s *Store) Lock(state *models.PipelineState, name models.StageName) *models.PipelineState {
	rec := state.FindStage(name)
	if rec == nil {
		state.Stages = append(state.Stages, models.StageRecord{Name: name, Status: models.StageStatusPending, ManuallyEdited: true})
		return state
	}
	rec.ManuallyEdited = true
	return state
}

// Unlock clears manually_edited on the named stage.
func (s *Store) Unlock(state *models.PipelineState, name models.StageName) *models.PipelineState {
	rec := state.FindStage(name)
	if rec != nil {
		rec.ManuallyEdited = false
	}
	return state
}

// NeedsRerun reports whether the named stage must run again: record
// absent, not completed, or (not locked and stored hash != current hash).
func (s *Store) NeedsRerun(state *models.PipelineState, name models.StageName, currentInputHash string) bool {
	rec := state.FindStage(name)
	if rec == nil {
		return true
	}
	if rec.Status != models.StageStatusCompleted {
		return true
	}
	if rec.ManuallyEdited {
		return false
	}
	return rec.InputHash != currentInputHash
}

// TotalCost sums cost over every stage record.
func (s *Store) TotalCost(state *models.PipelineState) float64 {
	var total float64
	for _, rec := range state.Stages {
		total += rec.Cost
	}
	return total
}

// StatusSummary renders "[x] parse -> [x] clean -> [FAIL] fix" over the
// fixed processing + indexing stage vocabulary.
func (s *Store) StatusSummary(state *models.PipelineState) string {
	order := append(append([]models.StageName{}, models.ProcessingStages...), models.IndexingStages...)
	parts := make([]string, 0, len(order))

	for _, name := range order {
		rec := state.FindStage(name)
		marker := "[ ]"
		if rec != nil {
			switch rec.Status {
			case models.StageStatusCompleted:
				marker = "[x]"
			case models.StageStatusFailed:
				marker = "[FAIL]"
			case models.StageStatusRejected:
				marker = "[REJECT]"
			case models.StageStatusInProgress:
				marker = "[...]"
			case models.StageStatusSkipped:
				marker = "[skip]"
			}
		}
		parts = append(parts, fmt.Sprintf("%s %s", marker, name))
	}

	return strings.Join(parts, " -> ")
}

// HashInput computes the 16-hex-character truncated SHA-256 of data, the
// form stored as a stage record's input_hash.
func HashInput(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
