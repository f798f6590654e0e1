package chunker

// curriculumVariant implements the curriculum-specific chunking rules.
// Curriculum documents don't carry implicit chapter/article markers and
// keep headers verbatim.
type curriculumVariant struct{}

// NewCurriculumChunker builds a Chunker for the curriculum category.
func NewCurriculumChunker(opts Options) Chunker {
	return &categoryChunker{v: curriculumVariant{}, opts: opts}
}

func (curriculumVariant) detectImplicitHeader(line string) (int, string, bool) {
	return 0, "", false
}

func (curriculumVariant) truncateHeader(text string) string {
	if len(text) > 80 {
		return text[:80]
	}
	return text
}

func (curriculumVariant) titleMergeEnabled() bool { return false }

func (curriculumVariant) splitterType() string { return "curriculum_splitter" }

func (curriculumVariant) contextFields(metadata map[string]interface{}) []fieldPair {
	fields := []fieldPair{
		{label: "Tài liệu", value: stringOf(metadata["document_id"])},
		{label: "Tiêu đề", value: stringOf(metadata["title"])},
		{label: "Phần"},
	}

	if v := stringOf(metadata["major"]); v != "" {
		fields = append(fields, fieldPair{label: "Ngành", value: v})
	}
	if v := stringOf(metadata["year"]); v != "" {
		fields = append(fields, fieldPair{label: "Năm", value: v})
	}
	if v := stringOf(metadata["program_type"]); v != "" {
		fields = append(fields, fieldPair{label: "Hệ", value: v})
	}
	if v := stringOf(metadata["program_name"]); v != "" {
		fields = append(fields, fieldPair{label: "Chương trình", value: v})
	}

	return fields
}
