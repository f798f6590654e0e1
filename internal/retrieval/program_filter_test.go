package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uit-ai/knowledge-core/internal/models"
)

func TestDetectProgramSlug_PicksEarliestMatch(t *testing.T) {
	keywords := map[string]string{
		"công nghệ thông tin": "it",
		"khoa học máy tính":   "cs",
	}

	slug := detectProgramSlug("quy định cho ngành khoa học máy tính và công nghệ thông tin", nil, keywords)
	assert.Equal(t, "cs", slug)
}

func TestDetectProgramSlug_StripsUniversityNames(t *testing.T) {
	keywords := map[string]string{"it": "it"}
	universities := []string{"Đại Học Công Nghệ Thông Tin"}

	slug := detectProgramSlug("Đại Học Công Nghệ Thông Tin tuyển sinh ngành it", universities, keywords)
	assert.Equal(t, "it", slug)
}

func TestDetectProgramSlug_NoMatch(t *testing.T) {
	slug := detectProgramSlug("học phí học kỳ này", nil, map[string]string{"it": "it"})
	assert.Empty(t, slug)
}

func TestDetectProgramSlug_TieBreaksOnLongestAlias(t *testing.T) {
	keywords := map[string]string{
		"công nghệ":           "it-short",
		"công nghệ thông tin": "it-long",
	}
	slug := detectProgramSlug("ngành công nghệ thông tin (cntt)", nil, keywords)
	assert.Equal(t, "it-long", slug)
}

func TestApplyProgramFilter_EmptySlugPassesThrough(t *testing.T) {
	nodes := []models.RetrievalNode{{NodeID: "n1"}}
	out, degraded := applyProgramFilter(nodes, "")
	assert.Equal(t, nodes, out)
	assert.False(t, degraded)
}

func TestApplyProgramFilter_FiltersByDocumentID(t *testing.T) {
	nodes := []models.RetrievalNode{
		{NodeID: "n1", Metadata: map[string]interface{}{"document_id": "it-curriculum-2024"}},
		{NodeID: "n2", Metadata: map[string]interface{}{"document_id": "cs-curriculum-2024"}},
	}
	out, degraded := applyProgramFilter(nodes, "it")
	assert.False(t, degraded)
	assert.Len(t, out, 1)
	assert.Equal(t, "n1", out[0].NodeID)
}

func TestApplyProgramFilter_FallsBackWhenFilterEmpties(t *testing.T) {
	nodes := []models.RetrievalNode{
		{NodeID: "n1", Metadata: map[string]interface{}{"document_id": "cs-curriculum-2024"}},
	}
	out, degraded := applyProgramFilter(nodes, "it")
	assert.True(t, degraded)
	assert.Equal(t, nodes, out)
}
