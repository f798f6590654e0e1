package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegulationChunker_SplitsByHeaderHierarchy(t *testing.T) {
	markdown := `# Quy định học phí

Văn bản áp dụng cho toàn trường.

## CHƯƠNG I. QUY ĐỊNH CHUNG

### Điều 1. Phạm vi áp dụng

Quy định này áp dụng cho tất cả sinh viên.

### Điều 2. Đối tượng áp dụng

Áp dụng cho sinh viên chính quy.
`
	c := NewRegulationChunker(DefaultOptions())
	chunks, stats, err := c.Chunk(markdown, map[string]interface{}{
		"title":         "Quy định học phí",
		"document_type": "original",
	}, "regulation", "doc-123")

	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Greater(t, stats.TotalChunks, 0)
	assert.Equal(t, len(chunks), stats.FinalNodes)

	var sawArticle1 bool
	for _, c := range chunks {
		if strings.Contains(c.Text, "Điều 1") {
			sawArticle1 = true
			assert.Equal(t, "regulation", c.Metadata["category"])
			assert.Equal(t, "doc-123", c.Metadata["document_id"])
		}
	}
	assert.True(t, sawArticle1)
}

func TestRegulationChunker_DetectsImplicitHeaders(t *testing.T) {
	markdown := `CHƯƠNG II QUY ĐỊNH VỀ HỌC PHÍ

Điều 5. Mức học phí

Học phí được thu theo học kỳ.
`
	c := NewRegulationChunker(DefaultOptions())
	chunks, _, err := c.Chunk(markdown, nil, "regulation", "doc-1")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var sawChuong bool
	for _, ch := range chunks {
		if strings.Contains(ch.Text, "CHƯƠNG II") {
			sawChuong = true
		}
	}
	assert.True(t, sawChuong)
}

func TestRegulationChunker_SplitsOversizedChunks(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# Điều khoản dài\n\n")
	for i := 0; i < 2000; i++ {
		sb.WriteString("một đoạn văn bản lặp lại nhiều lần để vượt quá giới hạn token cho phép. ")
	}

	opts := DefaultOptions()
	opts.MaxTokens = 200
	opts.SubChunkSize = 50
	opts.SubChunkOverlap = 10

	c := NewRegulationChunker(opts)
	chunks, stats, err := c.Chunk(sb.String(), nil, "regulation", "doc-big")
	require.NoError(t, err)
	assert.Greater(t, stats.LargeChunksSplit, 0)
	assert.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		if v, ok := ch.Metadata["is_sub_chunked"].(bool); ok {
			assert.True(t, v)
		}
	}
}

func TestRegulationChunker_MergesShortLeadingTitleChunks(t *testing.T) {
	markdown := `# A

short

# B

short

# C

short

# Điều 1. Nội dung thực sự

Đây là nội dung chính của văn bản quy định, không bị gộp vào tiêu đề.
`
	c := NewRegulationChunker(DefaultOptions())
	_, stats, err := c.Chunk(markdown, nil, "regulation", "doc-title")
	require.NoError(t, err)
	assert.Greater(t, stats.TitleChunksMerged, 0)
}

func TestCurriculumChunker_Builds(t *testing.T) {
	markdown := `# Chương trình đào tạo ngành Công nghệ thông tin

## Khối kiến thức đại cương

Các học phần bắt buộc về toán và khoa học cơ bản.

## Khối kiến thức chuyên ngành

Các học phần chuyên sâu về công nghệ thông tin.
`
	c := NewCurriculumChunker(DefaultOptions())
	chunks, _, err := c.Chunk(markdown, map[string]interface{}{"major": "Công nghệ thông tin"}, "curriculum", "ctdt-it")
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.Equal(t, "curriculum", ch.Metadata["category"])
	}
}
