package cli

import (
	"fmt"
	"time"

	"docrag/config"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/extract"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/store"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

// pipeline bundles the wired-up components for one process.
type pipeline struct {
	store    *store.MemoryStore
	indexer  *usecase.Indexer
	searcher *usecase.Searcher
	bridge   *extract.Bridge
	listener *extract.Listener
	cache    *store.ExtractionCache
}

// newEmbedder builds the configured embedding provider. Credential problems
// surface here, before any filesystem work.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		if cfg.Embedding.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
		}
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// newPipeline wires the full pipeline for a workspace. The extraction
// listener is started so a helper process can connect; until it signals
// readiness, page-oriented files degrade to placeholders and are skipped.
func newPipeline(cfg *config.Config, workspace string) (*pipeline, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	listener := extract.NewListener(cfg.Extraction.ListenAddr)
	bridge := extract.NewBridge(listener, timeoutSeconds(cfg))
	listener.OnReady = bridge.SetReady
	listener.OnResponse = bridge.HandleResponse
	if err := listener.Start(); err != nil {
		return nil, err
	}

	var cache *store.ExtractionCache
	cachePath := cfg.Extraction.CachePath
	if cachePath == "" && workspace != "" {
		if err := config.EnsureStateDir(workspace); err == nil {
			cachePath = config.CachePath(workspace)
		}
	}
	if cachePath != "" {
		// A broken cache only costs round trips; run without it.
		cache, _ = store.OpenExtractionCache(cachePath)
	}

	memStore := store.NewMemoryStore()
	indexer := usecase.NewIndexer(usecase.IndexerOptions{
		Store:     memStore,
		Walker:    fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes),
		Chunker:   chunker.NewWindowChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		Embedder:  emb,
		Bridge:    bridge,
		Local:     extract.NewLocal(),
		Cache:     cache,
		BatchSize: cfg.Embedding.BatchSize,
		BatchRate: cfg.Embedding.BatchRate,
		MaxChunks: cfg.Index.MaxChunks,
	})

	return &pipeline{
		store:    memStore,
		indexer:  indexer,
		searcher: usecase.NewSearcher(memStore, emb),
		bridge:   bridge,
		listener: listener,
		cache:    cache,
	}, nil
}

func (p *pipeline) close() {
	if p.cache != nil {
		p.cache.Close()
	}
	p.listener.Close()
}

func timeoutSeconds(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Extraction.TimeoutSeconds) * time.Second
}
