package models

// DocumentType is the closed set of regulation document relationships.
type DocumentType string

const (
	DocumentTypeOriginal    DocumentType = "original"
	DocumentTypeUpdate      DocumentType = "update"
	DocumentTypeReplacement DocumentType = "replacement"
)

// ProgramType is the closed set of curriculum program delivery modes.
type ProgramType string

const (
	ProgramTypeFullTime ProgramType = "Chính quy"
	ProgramTypeDistance ProgramType = "Từ xa"
)

// RegulationDocument is a retrieval result document from the regulation
// category.
type RegulationDocument struct {
	Content          string       `json:"content" validate:"required"`
	Title            string       `json:"title" validate:"required"`
	RegulationNumber *string      `json:"regulation_number"`
	Hierarchy        string       `json:"hierarchy"`
	EffectiveDate    *string      `json:"effective_date"`
	DocumentType     DocumentType `json:"document_type" validate:"oneof=original update replacement"`
	Year             *int         `json:"year"`
	PDFFile          *string      `json:"pdf_file"`
	Score            float64      `json:"score" validate:"min=0,max=1"`
}

// CurriculumDocument is a retrieval result document from the curriculum
// category.
type CurriculumDocument struct {
	Content     string      `json:"content" validate:"required"`
	Title       string      `json:"title" validate:"required"`
	Year        *int        `json:"year"`
	Major       string      `json:"major"`
	MajorCode   string      `json:"major_code"`
	ProgramType ProgramType `json:"program_type"`
	ProgramName *string     `json:"program_name"`
	SourceURL   string      `json:"source_url"`
	Score       float64     `json:"score" validate:"min=0,max=1"`
}

// RegulationRetrievalResult is the tool-facing result for the regulation
// category.
type RegulationRetrievalResult struct {
	Query          string                `json:"query" validate:"required"`
	TotalRetrieved int                   `json:"total_retrieved"`
	Documents      []RegulationDocument  `json:"documents"`
}

// CurriculumRetrievalResult is the tool-facing result for the curriculum
// category.
type CurriculumRetrievalResult struct {
	Query          string                `json:"query" validate:"required"`
	TotalRetrieved int                   `json:"total_retrieved"`
	Documents      []CurriculumDocument  `json:"documents"`
}

// RetrievalNode is an internal candidate passage carried through the
// retriever's merge/rerank/filter pipeline, before formatting into a
// category-specific document.
type RetrievalNode struct {
	NodeID   string
	Text     string
	Metadata map[string]interface{}
	RawScore float64
	Score    float64
}

// RetrievalResult is the retriever's internal, pre-formatting output.
type RetrievalResult struct {
	Query           string
	Nodes           []RetrievalNode
	RetrievalMethod string
	Reranked        bool
	TotalRetrieved  int
	FinalCount      int
}
