// Package chunker splits processed markdown into structure-aware chunks
// for embedding, per spec §4.7. Two category variants (regulation,
// curriculum) share this core algorithm.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/uit-ai/knowledge-core/internal/models"
)

// Options configures the shared chunking algorithm.
type Options struct {
	MaxTokens       int
	SubChunkSize    int
	SubChunkOverlap int
	MaxHeaderLevel  int
	Encoding        string
}

// DefaultOptions returns the spec's documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxTokens:       8000,
		SubChunkSize:    1024,
		SubChunkOverlap: 200,
		MaxHeaderLevel:  4,
		Encoding:        "cl100k_base",
	}
}

// Chunker is the public contract for a category-specific chunker.
type Chunker interface {
	Chunk(markdown string, metadata map[string]interface{}, category, documentID string) ([]models.Chunk, models.SplitterStats, error)
}

// variant supplies the category-specific behaviors the shared algorithm
// delegates to.
type variant interface {
	detectImplicitHeader(line string) (level int, text string, ok bool)
	truncateHeader(text string) string
	titleMergeEnabled() bool
	contextFields(metadata map[string]interface{}) []fieldPair
	splitterType() string
}

// categoryChunker adapts a variant into the public Chunker interface.
type categoryChunker struct {
	v    variant
	opts Options
}

func (c *categoryChunker) Chunk(markdown string, metadata map[string]interface{}, category, documentID string) ([]models.Chunk, models.SplitterStats, error) {
	return Chunk(c.v, markdown, metadata, category, documentID, c.opts)
}

type fieldPair struct {
	label string
	value string
}

var headerLine = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// titleSentinel marks the leading, headerless section of a document.
const titleSentinel = "TITLE"

type rawChunk struct {
	headerPath []string // raw parent header texts, outermost first
	header     string   // raw header text, or titleSentinel for the root
	level      int
	content    string
}

func preprocess(markdown string, maxHeaderLevel int) string {
	lines := strings.Split(markdown, "\n")
	out := make([]string, 0, len(lines))

	emptyHeader := regexp.MustCompile(`^#{1,6}\s*$`)
	falseHeaderBullet := regexp.MustCompile(`^#{1,6}\s*-\s+(.*)$`)

	for _, line := range lines {
		if emptyHeader.MatchString(line) {
			continue
		}
		if m := falseHeaderBullet.FindStringSubmatch(line); m != nil {
			out = append(out, "- "+m[1])
			continue
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// parse walks lines maintaining a header stack, emitting one rawChunk per
// header section (plus a leading titleSentinel chunk for content before
// the first header, if any).
func parse(text string, v variant, maxHeaderLevel int) []rawChunk {
	lines := strings.Split(text, "\n")

	type stackEntry struct {
		level int
		text  string
	}
	var stack []stackEntry

	var chunks []rawChunk
	currentHeader := titleSentinel
	currentLevel := 0
	var headerPath []string
	var buf []string

	closeCurrent := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		if content == "" && currentHeader == titleSentinel {
			return
		}
		chunks = append(chunks, rawChunk{
			headerPath: append([]string{}, headerPath...),
			header:     currentHeader,
			level:      currentLevel,
			content:    content,
		})
		buf = nil
	}

	for _, line := range lines {
		level, headerText, isHeader := 0, "", false

		if m := headerLine.FindStringSubmatch(line); m != nil && len(m[1]) <= maxHeaderLevel {
			level, headerText, isHeader = len(m[1]), strings.TrimSpace(m[2]), true
		} else if l, t, ok := v.detectImplicitHeader(line); ok {
			level, headerText, isHeader = l, t, true
		}

		if !isHeader {
			buf = append(buf, line)
			continue
		}

		closeCurrent()

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		headerPath = make([]string, 0, len(stack))
		for _, e := range stack {
			headerPath = append(headerPath, e.text)
		}
		stack = append(stack, stackEntry{level: level, text: headerText})

		currentHeader = headerText
		currentLevel = level
	}
	closeCurrent()

	return chunks
}

var specialSectionHeaders = []string{"MỤC LỤC", "DANH MỤC TỪ VIẾT TẮT", "QUYẾT ĐỊNH"}

func isSpecialSection(header string) bool {
	upper := strings.ToUpper(header)
	for _, s := range specialSectionHeaders {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

// mergeTitles merges a leading run of short, non-special chunks (within
// the first 5) into a single title chunk. Regulation only.
func mergeTitles(chunks []rawChunk) []rawChunk {
	limit := len(chunks)
	if limit > 5 {
		limit = 5
	}

	run := 0
	for run < limit {
		c := chunks[run]
		lines := strings.Count(c.content, "\n") + 1
		if c.content == "" {
			lines = 0
		}
		short := len(c.content) < 150 && lines < 3
		if !short || isSpecialSection(c.header) {
			break
		}
		run++
	}

	if run < 2 {
		return chunks
	}

	var parts []string
	for _, c := range chunks[:run] {
		if c.header != titleSentinel && c.header != "" {
			parts = append(parts, c.header)
		}
		if c.content != "" {
			parts = append(parts, c.content)
		}
	}

	merged := rawChunk{
		headerPath: nil,
		header:     titleSentinel,
		level:      0,
		content:    strings.Join(parts, "\n"),
	}

	out := make([]rawChunk, 0, len(chunks)-run+1)
	out = append(out, merged)
	out = append(out, chunks[run:]...)
	return out
}

// Chunk runs the shared algorithm against markdown for the given variant.
func Chunk(v variant, markdown string, metadata map[string]interface{}, category, documentID string, opts Options) ([]models.Chunk, models.SplitterStats, error) {
	if opts.MaxTokens <= 0 {
		opts = DefaultOptions()
	}

	enc, err := newTokenEncoder(opts.Encoding)
	if err != nil {
		return nil, models.SplitterStats{}, err
	}

	cleaned := preprocess(markdown, opts.MaxHeaderLevel)
	rawChunks := parse(cleaned, v, opts.MaxHeaderLevel)

	patternsDetected := 0
	for _, c := range rawChunks {
		if c.header != titleSentinel {
			patternsDetected++
		}
	}

	var titleMerged int
	if v.titleMergeEnabled() {
		before := len(rawChunks)
		rawChunks = mergeTitles(rawChunks)
		titleMerged = before - len(rawChunks)
	}

	fields := v.contextFields(metadata)

	stats := models.SplitterStats{
		TotalChunks:       len(rawChunks),
		PatternsDetected:  patternsDetected,
		TitleChunksMerged: titleMerged,
	}

	var out []models.Chunk
	for i, c := range rawChunks {
		truncatedHeader := c.header
		if c.header != titleSentinel {
			truncatedHeader = v.truncateHeader(c.header)
		}

		var truncatedPath []string
		for _, h := range c.headerPath {
			truncatedPath = append(truncatedPath, v.truncateHeader(h))
		}

		hierarchy := models.Hierarchy{HeaderPath: truncatedPath, CurrentHeader: truncatedHeader, Level: c.level}

		header := buildContextHeader(fields, truncatedHeader)
		fullText := header + c.content

		baseMeta := map[string]interface{}{}
		for k, val := range metadata {
			baseMeta[k] = val
		}
		baseMeta["category"] = category
		baseMeta["document_id"] = documentID
		baseMeta["hierarchy"] = hierarchy.String()
		baseMeta["chunk_index"] = i
		baseMeta["current_header"] = truncatedHeader
		baseMeta["header_level"] = c.level
		baseMeta["splitter_type"] = v.splitterType()

		tokenCount := enc.Count(fullText)
		if tokenCount <= opts.MaxTokens {
			baseMeta["token_count"] = tokenCount
			baseMeta["is_sub_chunked"] = false
			out = append(out, models.Chunk{
				ID:       chunkID(documentID, i, 0, fullText),
				Text:     fullText,
				Metadata: baseMeta,
			})
			continue
		}

		stats.LargeChunksSplit++
		subs := subChunk(c.content, enc, opts.SubChunkSize, opts.SubChunkOverlap)
		for si, sub := range subs {
			subMeta := map[string]interface{}{}
			for k, val := range baseMeta {
				subMeta[k] = val
			}
			subText := header + sub
			subMeta["is_sub_chunked"] = true
			subMeta["sub_chunk_index"] = si
			subMeta["total_sub_chunks"] = len(subs)
			subMeta["parent_chunk_tokens"] = tokenCount
			subMeta["token_count"] = enc.Count(subText)

			out = append(out, models.Chunk{
				ID:       chunkID(documentID, i, si, subText),
				Text:     subText,
				Metadata: subMeta,
			})
		}
	}
	stats.FinalNodes = len(out)

	return out, stats, nil
}

func buildContextHeader(fields []fieldPair, currentHeader string) string {
	var lines []string
	for _, f := range fields {
		value := f.value
		if f.label == "Phần" {
			if currentHeader == titleSentinel {
				continue
			}
			value = currentHeader
		}
		if value == "" {
			continue
		}
		lines = append(lines, f.label+": "+value)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n---\n"
}

// chunkID derives a stable id from documentID, the chunk's position, and
// its text, so a byte-identical rerun reproduces the same id while a
// content edit changes it.
func chunkID(documentID string, chunkIdx, subIdx int, text string) string {
	position := documentID + "-" + itoa(chunkIdx) + "-" + itoa(subIdx)
	sum := sha256.Sum256([]byte(position + "\x00" + text))
	return documentID + "-" + itoa(chunkIdx) + "-" + hex.EncodeToString(sum[:])[:12]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
