package metadatagen

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// majorVocabulary and programNameVocabulary are the closed sets of values
// the extraction LLM is constrained to choose from.
var (
	majorVocabulary = []string{
		"Công nghệ thông tin",
		"Khoa học máy tính",
		"Kỹ thuật phần mềm",
		"Hệ thống thông tin",
		"An toàn thông tin",
		"Trí tuệ nhân tạo",
		"Mạng máy tính và truyền thông dữ liệu",
	}

	programTypeVocabulary = []string{"Chính quy", "Từ xa"}

	programNameVocabulary = []string{
		"Chương trình đại trà",
		"Chương trình chất lượng cao",
		"Chương trình tiên tiến",
		"Chương trình tài năng",
	}
)

type curriculumMetadata struct {
	Title       string   `json:"title" validate:"required"`
	Year        int      `json:"year"`
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	Major       string   `json:"major"`
	ProgramType string   `json:"program_type" validate:"oneof=Chính quy Từ xa"`
	ProgramName *string  `json:"program_name"`
	IsIndexPage bool     `json:"is_index_page"`
}

type curriculumGenerator struct {
	completer interfaces.Completer
	model     string
	logger    arbor.ILogger
}

func (g *curriculumGenerator) Generate(ctx context.Context, markdown, sourceFilename string) (map[string]interface{}, error) {
	var meta curriculumMetadata

	systemInstruction := "You extract structured metadata from a Vietnamese university curriculum document. " +
		"Respond with JSON only, matching: {title, year, summary, keywords, major, program_type, program_name, is_index_page}. " +
		"major must be exactly one of: " + joinQuoted(majorVocabulary) + ". " +
		"program_type must be exactly one of: " + joinQuoted(programTypeVocabulary) + ". " +
		"program_name must be exactly one of: " + joinQuoted(programNameVocabulary) + ", or null if the document does not name a specific program track."

	prompt := "Extract metadata from this curriculum document:\n\n" + truncate(markdown, 6000)

	if err := callJSON(ctx, g.completer, g.model, systemInstruction, prompt, &meta); err != nil {
		return nil, err
	}

	meta.Major = closestMatch(meta.Major, majorVocabulary)
	meta.ProgramType = closestMatch(meta.ProgramType, programTypeVocabulary)
	if meta.ProgramName != nil {
		matched := closestMatch(*meta.ProgramName, programNameVocabulary)
		if matched == "" {
			meta.ProgramName = nil
		} else {
			meta.ProgramName = &matched
		}
	}

	return structToMap(meta)
}

func joinQuoted(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += "\"" + v + "\""
	}
	return out
}

// closestMatch returns the vocabulary entry equal to value, or "" if value
// matches none of them.
func closestMatch(value string, vocabulary []string) string {
	for _, v := range vocabulary {
		if v == value {
			return v
		}
	}
	return ""
}
