package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uit-ai/knowledge-core/internal/models"
)

func TestFormatRegulation(t *testing.T) {
	result := &models.RetrievalResult{
		Query:          "học phí",
		TotalRetrieved: 1,
		Nodes: []models.RetrievalNode{
			{
				Text: "Sinh viên đóng học phí theo học kỳ.",
				Metadata: map[string]interface{}{
					"title":                "Quy định học phí",
					"base_regulation_code": "QD-123",
					"hierarchy":            "Điều 5 > Khoản 2",
					"document_type":        "original",
					"year":                 float64(2024),
					"source_file":          "quydinh-hocphi.pdf",
				},
				Score: 0.8765,
			},
		},
	}

	out := FormatRegulation(result)
	assert.Equal(t, "học phí", out.Query)
	assert.Equal(t, 1, out.TotalRetrieved)
	require.Len(t, out.Documents, 1)

	doc := out.Documents[0]
	assert.Equal(t, "Quy định học phí", doc.Title)
	require.NotNil(t, doc.RegulationNumber)
	assert.Equal(t, "QD-123", *doc.RegulationNumber)
	assert.Equal(t, models.DocumentTypeOriginal, doc.DocumentType)
	require.NotNil(t, doc.Year)
	assert.Equal(t, 2024, *doc.Year)
	assert.Equal(t, 0.88, doc.Score)
}

func TestFormatRegulation_MissingOptionalFieldsAreNil(t *testing.T) {
	result := &models.RetrievalResult{
		Nodes: []models.RetrievalNode{
			{Text: "nội dung", Metadata: map[string]interface{}{}},
		},
	}
	out := FormatRegulation(result)
	require.Len(t, out.Documents, 1)
	assert.Nil(t, out.Documents[0].RegulationNumber)
	assert.Nil(t, out.Documents[0].EffectiveDate)
	assert.Nil(t, out.Documents[0].Year)
}

func TestFormatCurriculum(t *testing.T) {
	result := &models.RetrievalResult{
		Query:          "công nghệ thông tin",
		TotalRetrieved: 1,
		Nodes: []models.RetrievalNode{
			{
				Text: "Chương trình đào tạo ngành CNTT.",
				Metadata: map[string]interface{}{
					"title":        "Chương trình CNTT",
					"major":        "Công nghệ thông tin",
					"major_code":   "IT",
					"program_type": "Chính quy",
					"source_file":  "ctdt-it.pdf",
				},
				Score: 0.5,
			},
		},
	}

	out := FormatCurriculum(result)
	require.Len(t, out.Documents, 1)
	doc := out.Documents[0]
	assert.Equal(t, "Công nghệ thông tin", doc.Major)
	assert.Equal(t, models.ProgramTypeFullTime, doc.ProgramType)
	assert.Equal(t, "ctdt-it.pdf", doc.SourceURL)
	assert.Equal(t, 0.5, doc.Score)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.88, round2(0.8765))
	assert.Equal(t, 1.0, round2(0.999))
}
