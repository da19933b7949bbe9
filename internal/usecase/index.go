package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/time/rate"

	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
)

var (
	// ErrIndexingInProgress rejects a second indexing run; runs are
	// single-flight with no queueing.
	ErrIndexingInProgress = errors.New("indexing in progress")

	// ErrNoCredential aborts a run before any filesystem work when the
	// embedding provider is not configured.
	ErrNoCredential = errors.New("embedding provider not configured")
)

// ProgressFunc receives per-file progress during extraction and per-batch
// progress during embedding.
type ProgressFunc func(domain.Progress)

// pageAwareExts are the formats extracted by the helper process, which tags
// text with page-boundary markers.
var pageAwareExts = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// minTextLength is the shortest extracted text worth chunking; anything
// below it is skipped.
const minTextLength = 50

// Indexer runs the two-phase indexing pipeline: walk the workspace, extract
// and chunk every document, embed the chunks in paced batches, then swap the
// finished corpus into the vector store in one step.
type Indexer struct {
	store    port.VectorStore
	walker   port.FileWalker
	chunker  port.Chunker
	embedder port.Embedder
	bridge   port.Extractor
	local    port.Extractor
	cache    *store.ExtractionCache
	limiter  *rate.Limiter

	batchSize int
	maxChunks int

	indexing atomic.Bool
}

// IndexerOptions bundles the orchestrator's collaborators and tuning knobs.
type IndexerOptions struct {
	Store     port.VectorStore
	Walker    port.FileWalker
	Chunker   port.Chunker
	Embedder  port.Embedder
	Bridge    port.Extractor
	Local     port.Extractor
	Cache     *store.ExtractionCache // optional
	BatchSize int
	BatchRate float64 // embedding batches per second; 0 disables pacing
	MaxChunks int
}

func NewIndexer(opts IndexerOptions) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = 50000
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.BatchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.BatchRate), 1)
	}

	return &Indexer{
		store:     opts.Store,
		walker:    opts.Walker,
		chunker:   opts.Chunker,
		embedder:  opts.Embedder,
		bridge:    opts.Bridge,
		local:     opts.Local,
		cache:     opts.Cache,
		limiter:   limiter,
		batchSize: opts.BatchSize,
		maxChunks: opts.MaxChunks,
	}
}

// IsIndexing reports whether a run is currently in flight.
func (ix *Indexer) IsIndexing() bool {
	return ix.indexing.Load()
}

// Index rebuilds the corpus for a workspace from scratch. Per-file and
// per-batch failures are contained and reported in the summary; only the
// whole-run preconditions surface as errors. An empty workspace succeeds
// with zero chunks.
func (ix *Indexer) Index(workspacePath string, progress ProgressFunc) (*domain.IndexSummary, error) {
	if !ix.indexing.CompareAndSwap(false, true) {
		return nil, ErrIndexingInProgress
	}
	defer ix.indexing.Store(false)

	if ix.embedder == nil {
		return nil, ErrNoCredential
	}
	if progress == nil {
		progress = func(domain.Progress) {}
	}

	files, err := ix.walker.Walk(workspacePath)
	if err != nil {
		return nil, fmt.Errorf("failed to walk workspace: %w", err)
	}

	summary := &domain.IndexSummary{}

	pending := ix.extractAll(files, summary, progress)
	embedded := ix.embedAll(pending, summary, progress)

	ix.store.Replace(workspacePath, embedded)
	summary.ChunksIndexed = len(embedded)

	return summary, nil
}

// extractAll is phase 1: obtain text for every discovered file and chunk it
// into the provisional list, without embeddings.
func (ix *Indexer) extractAll(files []port.FileInfo, summary *domain.IndexSummary, progress ProgressFunc) []domain.DocumentChunk {
	var pending []domain.DocumentChunk

	for i, file := range files {
		progress(domain.Progress{
			Phase:      domain.PhaseExtracting,
			Current:    i + 1,
			Total:      len(files),
			FileName:   filepath.Base(file.Path),
			Percentage: (i + 1) * 50 / len(files),
		})

		if len(pending) >= ix.maxChunks {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("chunk cap reached (%d); %d files left unindexed", ix.maxChunks, len(files)-i))
			break
		}

		pageAware := pageAwareExts[strings.ToLower(filepath.Ext(file.Path))]
		ex := ix.extractOne(file, pageAware)

		if ex.Degraded {
			summary.FilesSkipped++
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("skipped %s: %s", filepath.Base(file.Path), ex.Note))
			continue
		}
		if len(strings.TrimSpace(ex.Text)) < minTextLength {
			summary.FilesSkipped++
			continue
		}

		var chunks []domain.DocumentChunk
		if pageAware {
			chunks = ix.chunker.ChunkPages(file.Path, ex.Text)
		} else {
			chunks = ix.chunker.Chunk(file.Path, ex.Text)
		}
		if len(chunks) == 0 {
			summary.FilesSkipped++
			continue
		}

		if room := ix.maxChunks - len(pending); len(chunks) > room {
			chunks = chunks[:room]
		}

		pending = append(pending, chunks...)
		summary.FilesIndexed++
	}

	return pending
}

func (ix *Indexer) extractOne(file port.FileInfo, pageAware bool) port.Extraction {
	if !pageAware {
		return ix.local.Extract(file.Path)
	}

	if ix.cache != nil {
		if text, ok := ix.cache.Get(file.Path, file.ModTime); ok {
			return port.Extraction{Text: text}
		}
	}

	ex := ix.bridge.Extract(file.Path)
	if !ex.Degraded && ix.cache != nil {
		// A failed cache write only costs the next run a round trip.
		_ = ix.cache.Put(file.Path, file.ModTime, ex.Text)
	}
	return ex
}

// embedAll is phase 2: embed the provisional chunks in fixed-size batches.
// A failed batch is logged and dropped; the run continues with the rest.
func (ix *Indexer) embedAll(pending []domain.DocumentChunk, summary *domain.IndexSummary, progress ProgressFunc) []domain.DocumentChunk {
	if len(pending) == 0 {
		return nil
	}

	totalBatches := (len(pending) + ix.batchSize - 1) / ix.batchSize
	embedded := make([]domain.DocumentChunk, 0, len(pending))

	for b := 0; b < totalBatches; b++ {
		start := b * ix.batchSize
		end := start + ix.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		// Pace batches so the provider is not hammered back to back.
		if err := ix.limiter.Wait(context.Background()); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("pacing interrupted: %v", err))
		}

		texts := make([]string, len(batch))
		for j, chunk := range batch {
			texts[j] = chunk.Content
		}

		vectors, err := ix.embedder.Embed(texts)
		if err != nil || len(vectors) != len(batch) {
			if err == nil {
				err = fmt.Errorf("expected %d vectors, got %d", len(batch), len(vectors))
			}
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("embedding batch %d/%d dropped: %v", b+1, totalBatches, err))
			continue
		}

		for j := range batch {
			chunk := batch[j]
			chunk.Embedding = vectors[j]
			embedded = append(embedded, chunk)
		}

		progress(domain.Progress{
			Phase:      domain.PhaseEmbedding,
			Current:    b + 1,
			Total:      totalBatches,
			Percentage: 50 + (b+1)*50/totalBatches,
		})
	}

	return embedded
}
