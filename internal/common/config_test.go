package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_HasSaneDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, RoutingQueryAll, cfg.Retrieval.RoutingStrategy)
	assert.Equal(t, []string{"regulation", "curriculum"}, cfg.Retrieval.AvailableCollections)
	assert.Equal(t, VectorStoreLocal, cfg.VectorStore.Backend)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Pipeline.FixModel)
	assert.Equal(t, 30, cfg.Pipeline.FixRPM)
	assert.Equal(t, 768, cfg.Retrieval.EmbedDimension)
}

func TestLoadFromFiles_NoPathsReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Storage.StagesRoot, cfg.Storage.StagesRoot)
}

func TestLoadFromFiles_LaterFileOverridesEarlier(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "base.toml")
	second := filepath.Join(dir, "override.toml")

	require.NoError(t, os.WriteFile(first, []byte(`
[retrieval]
top_k = 5
`), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(`
[retrieval]
top_k = 9
`), 0o644))

	cfg, err := LoadFromFiles(nil, first, second)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Retrieval.TopK)
}

func TestLoadFromFiles_MissingFileReturnsError(t *testing.T) {
	_, err := LoadFromFiles(nil, "/nonexistent/path/config.toml")
	require.Error(t, err)
}

func TestLoadFromFiles_MalformedTOMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := LoadFromFiles(nil, path)
	require.Error(t, err)
}

func TestApplyEnvOverrides_TopKAndHyDE(t *testing.T) {
	t.Setenv("KNOWLEDGE_TOP_K", "7")
	t.Setenv("KNOWLEDGE_USE_HYDE", "true")
	t.Setenv("KNOWLEDGE_ROUTING_STRATEGY", "llm_classification")

	cfg, err := LoadFromFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.True(t, cfg.Retrieval.UseHyDE)
	assert.Equal(t, RoutingLLMClassification, cfg.Retrieval.RoutingStrategy)
}

func TestApplyEnvOverrides_InvalidValuesAreIgnored(t *testing.T) {
	t.Setenv("KNOWLEDGE_TOP_K", "not-a-number")

	cfg, err := LoadFromFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Retrieval.TopK, cfg.Retrieval.TopK)
}
