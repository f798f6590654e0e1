// Package docparse converts binary source documents (PDF, DOCX, XLSX) to
// markdown through the narrow Parse(path) interface the processing
// pipeline's parse stage depends on.
package docparse

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// Parser dispatches to a format-specific parser by file extension.
type Parser struct {
	logger arbor.ILogger
}

var _ interfaces.DocumentParser = (*Parser)(nil)

// New creates a format-dispatching Parser.
func New(logger arbor.ILogger) *Parser {
	return &Parser{logger: logger}
}

// Parse converts the document at path to markdown, chosen by its
// extension.
func (p *Parser) Parse(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return parsePDF(path)
	case ".docx":
		return parseDOCX(path)
	case ".xlsx":
		return parseXLSX(path)
	case ".html", ".htm":
		return parseHTML(path)
	default:
		return "", fmt.Errorf("docparse: unsupported file extension %q", filepath.Ext(path))
	}
}
