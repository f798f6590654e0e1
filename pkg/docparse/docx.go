package docparse

import (
	"fmt"

	"github.com/nguyenthenguyen/docx"
)

// parseDOCX reads a .docx file's body text. The library doesn't expose
// structural elements (headings, tables) separately, so output is plain
// text; the fix-markdown stage is responsible for recovering structure.
func parseDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("read docx file: %w", err)
	}
	defer r.Close()

	return r.Editable().GetContent(), nil
}
