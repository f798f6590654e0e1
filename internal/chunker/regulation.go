package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	implicitChuong = regexp.MustCompile(`^CHƯƠNG\s+[IVXLCDM0-9]+\b.*$`)
	implicitDieu   = regexp.MustCompile(`^Điều\s+\d+\.`)

	truncDieu   = regexp.MustCompile(`^Điều\s+(\d+)`)
	truncChuong = regexp.MustCompile(`^CHƯƠNG\s+([IVXLCDM0-9]+)`)
	truncKhoan  = regexp.MustCompile(`^(\d+)\.`)
	truncMuc    = regexp.MustCompile(`^([a-zà-ỹ])[\)\.]`)
)

// regulationVariant implements the regulation-specific chunking rules.
type regulationVariant struct{}

// NewRegulationChunker builds a Chunker for the regulation category.
func NewRegulationChunker(opts Options) Chunker {
	return &categoryChunker{v: regulationVariant{}, opts: opts}
}

func (regulationVariant) detectImplicitHeader(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return 0, "", false
	}
	if implicitChuong.MatchString(trimmed) {
		return 2, trimmed, true
	}
	if implicitDieu.MatchString(trimmed) {
		return 2, trimmed, true
	}
	return 0, "", false
}

func (regulationVariant) truncateHeader(text string) string {
	if m := truncDieu.FindStringSubmatch(text); m != nil {
		return "Điều " + m[1]
	}
	if m := truncChuong.FindStringSubmatch(text); m != nil {
		return "CHƯƠNG " + m[1]
	}
	if m := truncKhoan.FindStringSubmatch(text); m != nil {
		return "Khoản " + m[1]
	}
	if m := truncMuc.FindStringSubmatch(text); m != nil {
		return "Mục " + m[1]
	}
	if len(text) > 80 {
		return text[:80]
	}
	return text
}

func (regulationVariant) titleMergeEnabled() bool { return true }

func (regulationVariant) splitterType() string { return "regulation_splitter" }

var documentTypeLabels = map[string]string{
	"original":   "Văn bản gốc",
	"update":     "Văn bản sửa đổi",
	"supplement": "Văn bản bổ sung",
}

func (regulationVariant) contextFields(metadata map[string]interface{}) []fieldPair {
	fields := []fieldPair{
		{label: "Tài liệu", value: stringOf(metadata["document_id"])},
		{label: "Tiêu đề", value: stringOf(metadata["title"])},
		{label: "Phần"}, // value is the current section header, filled in by the caller
	}

	if v := stringOf(metadata["effective_date"]); v != "" {
		fields = append(fields, fieldPair{label: "Ngày hiệu lực", value: v})
	}
	if dt := stringOf(metadata["document_type"]); dt != "" {
		label, ok := documentTypeLabels[dt]
		if !ok {
			label = dt
		}
		fields = append(fields, fieldPair{label: "Loại", value: label})
	}

	return fields
}

func stringOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
