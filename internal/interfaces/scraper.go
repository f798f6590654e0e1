package interfaces

import "context"

// Grades is the opaque payload returned by the student-portal scraper for
// a grades lookup.
type Grades struct {
	StudentID string                   `json:"student_id"`
	Semesters []map[string]interface{} `json:"semesters"`
}

// Schedule is the opaque payload returned by the student-portal scraper
// for a schedule lookup.
type Schedule struct {
	StudentID string                   `json:"student_id"`
	Entries   []map[string]interface{} `json:"entries"`
}

// PortalScraper is the out-of-scope collaborator that authenticates
// against the live student portal using a caller-supplied session
// cookie. The core only depends on this narrow contract.
type PortalScraper interface {
	GetGrades(ctx context.Context, cookie string) (*Grades, error)
	GetSchedule(ctx context.Context, cookie string) (*Schedule, error)
}
