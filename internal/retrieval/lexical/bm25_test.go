package lexical

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/uit-ai/knowledge-core/internal/models"
)

func writeChunks(t *testing.T, stagesRoot, category, documentID string, chunks []models.Chunk) {
	t.Helper()
	dir := filepath.Join(stagesRoot, category, documentID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(chunks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), data, 0o644))
}

func TestBuild_IndexesAcrossCategories(t *testing.T) {
	root := t.TempDir()
	writeChunks(t, root, "regulation", "doc1", []models.Chunk{
		{ID: "r1", Text: "quy định về học phí và học bổng"},
		{ID: "r2", Text: "điều khoản kỷ luật sinh viên"},
	})
	writeChunks(t, root, "curriculum", "doc2", []models.Chunk{
		{ID: "c1", Text: "chương trình đào tạo ngành công nghệ thông tin"},
	})

	c, err := Build(root, []string{"regulation", "curriculum"}, arbor.NewLogger())
	require.NoError(t, err)
	assert.Len(t, c.docs, 3)
	assert.Greater(t, len(c.df), 0)
}

func TestBuild_SkipsMissingCategoryDir(t *testing.T) {
	root := t.TempDir()
	c, err := Build(root, []string{"regulation", "does-not-exist"}, arbor.NewLogger())
	require.NoError(t, err)
	assert.Empty(t, c.docs)
}

func TestBuild_SkipsUnreadableChunksFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "regulation", "doc1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), []byte("not json"), 0o644))

	c, err := Build(root, []string{"regulation"}, arbor.NewLogger())
	require.NoError(t, err)
	assert.Empty(t, c.docs)
}

func TestSearch_RanksMatchingTermsHigher(t *testing.T) {
	root := t.TempDir()
	writeChunks(t, root, "regulation", "doc1", []models.Chunk{
		{ID: "r1", Text: "học phí học kỳ này tăng so với học kỳ trước"},
		{ID: "r2", Text: "quy định về trang phục sinh viên khi lên lớp"},
	})

	c, err := Build(root, []string{"regulation"}, arbor.NewLogger())
	require.NoError(t, err)

	results := c.Search("học phí", "", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "r1", results[0].NodeID)
}

func TestSearch_ScopesToCategory(t *testing.T) {
	root := t.TempDir()
	writeChunks(t, root, "regulation", "doc1", []models.Chunk{
		{ID: "r1", Text: "học phí ký túc xá"},
	})
	writeChunks(t, root, "curriculum", "doc2", []models.Chunk{
		{ID: "c1", Text: "học phí ký túc xá"},
	})

	c, err := Build(root, []string{"regulation", "curriculum"}, arbor.NewLogger())
	require.NoError(t, err)

	results := c.Search("học phí", "curriculum", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].NodeID)
}

func TestSearch_EmptyQueryOrEmptyCorpus(t *testing.T) {
	root := t.TempDir()
	writeChunks(t, root, "regulation", "doc1", []models.Chunk{{ID: "r1", Text: "nội dung"}})
	c, err := Build(root, []string{"regulation"}, arbor.NewLogger())
	require.NoError(t, err)

	assert.Nil(t, c.Search("", "", 10))

	empty, err := Build(t.TempDir(), []string{"regulation"}, arbor.NewLogger())
	require.NoError(t, err)
	assert.Nil(t, empty.Search("nội dung", "", 10))
}

func TestSearch_RespectsTopK(t *testing.T) {
	root := t.TempDir()
	writeChunks(t, root, "regulation", "doc1", []models.Chunk{
		{ID: "r1", Text: "học phí một"},
		{ID: "r2", Text: "học phí hai"},
		{ID: "r3", Text: "học phí ba"},
	})
	c, err := Build(root, []string{"regulation"}, arbor.NewLogger())
	require.NoError(t, err)

	results := c.Search("học phí", "", 2)
	assert.Len(t, results, 2)
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("Học-phí 2024, và (học bổng)! a")
	assert.Equal(t, []string{"học", "phí", "2024", "và", "học", "bổng"}, tokens)
}

func TestTokenize_DropsSingleCharTokens(t *testing.T) {
	tokens := tokenize("a b cd")
	assert.Equal(t, []string{"cd"}, tokens)
}
