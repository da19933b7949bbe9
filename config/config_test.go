package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1000, cfg.Index.ChunkSize)
	assert.Equal(t, 200, cfg.Index.ChunkOverlap)
	assert.Equal(t, 50, cfg.Index.MinTextLength)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 100, cfg.Embedding.BatchSize)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 30, cfg.Extraction.TimeoutSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docrag.yaml")

	configData := `
index:
  chunk_size: 500
  chunk_overlap: 100

embedding:
  provider: "ollama"
  model: "nomic-embed-text"
  batch_size: 25

search:
  top_k: 8
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Index.ChunkSize)
	assert.Equal(t, 100, cfg.Index.ChunkOverlap)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 25, cfg.Embedding.BatchSize)
	assert.Equal(t, 8, cfg.Search.TopK)

	// Unset values keep their defaults.
	assert.Equal(t, 30, cfg.Extraction.TimeoutSeconds)
	assert.NotEmpty(t, cfg.Index.Includes)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Index.ChunkSize, cfg.Index.ChunkSize)
}

func TestValidateRejectsBadOverlap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Index.ChunkOverlap = cfg.Index.ChunkSize

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docrag.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("index:\n  chunk_size: -5\n"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
}

func TestEnvOverridesServerAddr(t *testing.T) {
	t.Setenv("DOCRAG_SERVER_ADDR", "127.0.0.1:9999")

	cfg, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.TopK = 11

	path := filepath.Join(t.TempDir(), "docrag.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 11, loaded.Search.TopK)
}
