package stages

import (
	"os"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
	"github.com/uit-ai/knowledge-core/internal/models"
	"github.com/uit-ai/knowledge-core/internal/pipeline/stage"
)

// letterheadPatterns match the formal header block of a Vietnamese
// official document that precedes the actual body.
var letterheadPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^ĐẠI HỌC QUỐC GIA.*$`),
	regexp.MustCompile(`(?i)^CỘNG HÒA XÃ HỘI CHỦ NGHĨA.*$`),
	regexp.MustCompile(`(?i)^TRƯỜNG ĐẠI HỌC.*$`),
	regexp.MustCompile(`(?i)^Số\s*:.*$`),
	regexp.MustCompile(`^-{3,}\s*$`), // horizontal rule
	regexp.MustCompile(`^Độc lập\s*-\s*Tự do\s*-\s*Hạnh phúc\s*$`),
}

// contentMarkers stop letterhead stripping once the document body begins.
var contentMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^QUYẾT ĐỊNH`),
	regexp.MustCompile(`(?i)^THÔNG BÁO`),
}

// NewCleanStage builds the "clean" processing stage: before the first
// content marker it drops lines matching letterheadPatterns and blank
// lines; other lines, including navigational boilerplate, are kept. A
// document with no letterhead line is returned unchanged.
func NewCleanStage(states interfaces.StateStore, logger arbor.ILogger) *stage.Stage {
	exec := func(inputPath, outputPath string, st *models.PipelineState) (map[string]interface{}, error) {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}

		cleaned := cleanLetterhead(string(raw))

		if err := os.WriteFile(outputPath, []byte(cleaned), 0644); err != nil {
			return nil, err
		}
		return map[string]interface{}{}, nil
	}

	return stage.New(models.StageClean, false, true, "strips letterhead lines before the document body", "02-cleaned.md", exec, states, logger)
}

func cleanLetterhead(text string) string {
	lines := strings.Split(text, "\n")

	letterheadDetected := false
	kept := make([]string, 0, len(lines))
	inLetterhead := true

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inLetterhead {
			for _, marker := range contentMarkers {
				if marker.MatchString(trimmed) {
					inLetterhead = false
					break
				}
			}
			if inLetterhead {
				isLetterheadLine := false
				for _, pattern := range letterheadPatterns {
					if pattern.MatchString(trimmed) {
						isLetterheadLine = true
						break
					}
				}
				if isLetterheadLine {
					letterheadDetected = true
					continue
				}
				if trimmed == "" {
					continue
				}
			}
		}

		kept = append(kept, line)
	}

	if !letterheadDetected {
		return text
	}

	return strings.Join(kept, "\n")
}
