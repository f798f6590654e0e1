// Package models defines the core records shared across the pipeline and
// retrieval engine: stage records, pipeline state, chunks, and the
// structured documents returned to callers.
package models

import "time"

// StageStatus is the fixed vocabulary of stage lifecycle states.
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in_progress"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusFailed     StageStatus = "failed"
	StageStatusSkipped    StageStatus = "skipped"
	StageStatusRejected   StageStatus = "rejected"
)

// StageName is the fixed vocabulary of pipeline stage names, in pipeline order.
type StageName string

const (
	StageParse     StageName = "parse"
	StageClean     StageName = "clean"
	StageNormalize StageName = "normalize"
	StageFilter    StageName = "filter"
	StageFix       StageName = "fix"
	StageMetadata  StageName = "metadata"
	StageChunk     StageName = "chunk"
	StageEmbedIndex StageName = "embed-index"
)

// ProcessingStages is the fixed order of the processing pipeline.
var ProcessingStages = []StageName{
	StageParse, StageClean, StageNormalize, StageFilter, StageFix, StageMetadata,
}

// IndexingStages is the fixed order of the indexing pipeline.
var IndexingStages = []StageName{
	StageChunk, StageEmbedIndex,
}

// StageRecord is the persisted outcome of one stage run for one document.
type StageRecord struct {
	Name           StageName              `json:"name"`
	Status         StageStatus            `json:"status"`
	Timestamp      time.Time              `json:"timestamp"`
	InputHash      string                 `json:"input_hash"` // 16 hex chars, truncated SHA-256
	OutputFile     string                 `json:"output_file,omitempty"`
	Cost           float64                `json:"cost"`
	ManuallyEdited bool                   `json:"manually_edited"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// PipelineState is the per-document state sidecar, persisted as
// .pipeline.json in the document's working directory.
type PipelineState struct {
	DocumentID         string                 `json:"document_id"`
	Category           string                 `json:"category"`
	SourceFile         string                 `json:"source_file,omitempty"`
	Stages             []StageRecord          `json:"stages"`
	CurrentStage       StageName              `json:"current_stage,omitempty"`
	FinalOutput        string                 `json:"final_output,omitempty"`
	MigratedFromLegacy bool                   `json:"migrated_from_legacy"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// FindStage returns the stage record with the given name, or nil.
func (p *PipelineState) FindStage(name StageName) *StageRecord {
	for i := range p.Stages {
		if p.Stages[i].Name == name {
			return &p.Stages[i]
		}
	}
	return nil
}
