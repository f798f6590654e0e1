package docparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestParser_Parse_UnsupportedExtension(t *testing.T) {
	p := New(arbor.NewLogger())
	_, err := p.Parse("document.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestParser_Parse_HTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body><h1>Quy định</h1><p>Nội dung chính.</p></body></html>"), 0o644))

	p := New(arbor.NewLogger())
	out, err := p.Parse(path)
	require.NoError(t, err)
	assert.Contains(t, out, "Quy định")
	assert.Contains(t, out, "Nội dung chính")
}

func TestParser_Parse_MissingFile(t *testing.T) {
	p := New(arbor.NewLogger())
	_, err := p.Parse("/nonexistent/doc.html")
	require.Error(t, err)
}

func TestStripHTMLTags(t *testing.T) {
	out := stripHTMLTags("<p>A &amp; B &lt;tag&gt;</p>&nbsp;end")
	assert.Equal(t, "A & B <tag> end", out)
}

func TestHtmlToMarkdown_EmptyConversionFallsBackToStrippedText(t *testing.T) {
	out, err := htmlToMarkdown("<div></div>", "")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}
