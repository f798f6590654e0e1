package metadatagen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

var (
	filenameCodePattern = regexp.MustCompile(`(\d+)[-_]([a-z]+)-([a-z\p{L}-]+)`)
	filenameDatePattern = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`)
	contentDatePattern1 = regexp.MustCompile(`(?i)ngày\s+(\d{1,2})\s+tháng\s+(\d{1,2})\s+năm\s+(\d{4})`)
	contentDatePattern2 = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	cuCuSectionPattern  = regexp.MustCompile(`(?is)Căn cứ.*?(?:\n\n|\z)`)
)

type regulationMetadata struct {
	Title              string   `json:"title" validate:"required"`
	Year               int      `json:"year"`
	Summary            string   `json:"summary"`
	Keywords           []string `json:"keywords"`
	DocumentType       string   `json:"document_type" validate:"oneof=original update"`
	EffectiveDate      string   `json:"effective_date"`
	IsIndexPage        bool     `json:"is_index_page"`
	BaseRegulationCode string   `json:"base_regulation_code"`
}

type regulationGenerator struct {
	completer interfaces.Completer
	model     string
	codes     *RegulationCodeTable
	logger    arbor.ILogger
}

func (g *regulationGenerator) Generate(ctx context.Context, markdown, sourceFilename string) (map[string]interface{}, error) {
	var meta regulationMetadata

	systemInstruction := "You extract structured metadata from a Vietnamese university regulation document. " +
		"Respond with JSON only, matching: {title, year, summary, keywords, document_type, effective_date, is_index_page}. " +
		"document_type is \"original\" if this document defines new regulation text, \"update\" if it amends a prior regulation."
	prompt := "Extract metadata from this regulation document:\n\n" + truncate(markdown, 6000)

	if err := callJSON(ctx, g.completer, g.model, systemInstruction, prompt, &meta); err != nil {
		return nil, err
	}

	if meta.DocumentType == "original" {
		if code, ok := codeFromFilename(sourceFilename); ok {
			meta.BaseRegulationCode = code
		}
	} else {
		if code, ok := codeFromCanCuSection(markdown); ok {
			meta.BaseRegulationCode = code
		}
	}

	if meta.EffectiveDate == "" {
		if date, ok := dateFromFilename(sourceFilename); ok {
			meta.EffectiveDate = date
		} else if date, ok := dateFromContent(markdown); ok {
			meta.EffectiveDate = date
		}
	}

	if meta.BaseRegulationCode != "" && g.codes != nil {
		g.codes.Observe(meta.BaseRegulationCode)
	}

	out, err := structToMap(meta)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// documentAbbreviations maps the lowercase, ASCII-only abbreviation token
// found in a filename or "Căn cứ" citation to its correctly-accented
// Vietnamese rendering. strings.ToUpper alone would turn "qd" into "QD"
// instead of "QĐ", since Đ has no ASCII-uppercase equivalent.
var documentAbbreviations = map[string]string{
	"qd": "QĐ",
	"nq": "NQ",
	"tt": "TT",
	"cv": "CV",
	"qc": "QC",
	"kh": "KH",
	"hd": "HD",
	"tb": "TB",
}

func abbreviationUpper(token string) string {
	if v, ok := documentAbbreviations[strings.ToLower(token)]; ok {
		return v
	}
	return strings.ToUpper(token)
}

func codeFromFilename(filename string) (string, bool) {
	base := filepath.Base(filename)
	m := filenameCodePattern.FindStringSubmatch(base)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("%s/%s-%s", m[1], abbreviationUpper(m[2]), strings.ToUpper(m[3])), true
}

func codeFromCanCuSection(content string) (string, bool) {
	section := cuCuSectionPattern.FindString(content)
	if section == "" {
		section = content
	}
	m := filenameCodePattern.FindStringSubmatch(strings.ToLower(section))
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("%s/%s-%s", m[1], abbreviationUpper(m[2]), strings.ToUpper(m[3])), true
}

func dateFromFilename(filename string) (string, bool) {
	m := filenameDatePattern.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1]), true
}

func dateFromContent(content string) (string, bool) {
	if m := contentDatePattern1.FindStringSubmatch(content); m != nil {
		return fmt.Sprintf("%s-%02s-%02s", m[3], pad2(m[2]), pad2(m[1])), true
	}
	if m := contentDatePattern2.FindStringSubmatch(content); m != nil {
		return fmt.Sprintf("%s-%02s-%02s", m[3], pad2(m[2]), pad2(m[1])), true
	}
	return "", false
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegulationCodeTable is a process-wide lookup mapping observed
// base_regulation_code prefixes to canonical codes, persisted as JSON.
// Callers must serialize updates.
type RegulationCodeTable struct {
	mu    sync.Mutex
	path  string
	codes map[string]string
}

// LoadRegulationCodeTable reads path, or starts empty if absent.
func LoadRegulationCodeTable(path string) (*RegulationCodeTable, error) {
	t := &RegulationCodeTable{path: path, codes: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &t.codes); err != nil {
		return t, nil
	}
	return t, nil
}

// Observe records code, keyed by its numeric prefix, and persists the
// table if this is a new entry.
func (t *RegulationCodeTable) Observe(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prefix := code
	if idx := strings.Index(code, "/"); idx >= 0 {
		prefix = code[:idx]
	}

	if existing, ok := t.codes[prefix]; ok && existing == code {
		return
	}

	t.codes[prefix] = code
	_ = t.persist()
}

func (t *RegulationCodeTable) persist() error {
	data, err := json.MarshalIndent(t.codes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0644)
}
