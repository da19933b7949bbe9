package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultTopK = 5

// Searcher ranks the stored corpus against natural-language queries.
type Searcher struct {
	store    port.VectorStore
	embedder port.Embedder
}

func NewSearcher(store port.VectorStore, embedder port.Embedder) *Searcher {
	return &Searcher{
		store:    store,
		embedder: embedder,
	}
}

// Search embeds the query and returns the topK most similar chunks by
// cosine similarity, highest first. An empty or absent store returns no
// results without calling the embedding provider. Ties keep store order.
func (s *Searcher) Search(query string, topK int) ([]domain.ScoredChunk, error) {
	snap := s.store.Snapshot()
	if snap == nil || len(snap.Chunks) == 0 {
		return nil, nil
	}

	if s.embedder == nil {
		return nil, ErrNoCredential
	}

	embeddings, err := s.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}
	queryVec := embeddings[0]

	scored := make([]domain.ScoredChunk, len(snap.Chunks))
	for i, chunk := range snap.Chunks {
		scored[i] = domain.ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(queryVec, chunk.Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > len(scored) {
		topK = len(scored)
	}

	return scored[:topK], nil
}

// RetrievedContext is the assembled, citable context for one query: numbered
// text blocks plus a parallel list of source records in the same order.
type RetrievedContext struct {
	Text    string
	Sources []domain.Citation
}

// BuildContext searches and formats the results as numbered blocks
// "[i] fileName (section)" followed by the chunk content, for a chat layer
// to splice into a prompt and display as sources.
func (s *Searcher) BuildContext(query string) (*RetrievedContext, error) {
	results, err := s.Search(query, 0)
	if err != nil {
		return nil, err
	}

	var blocks []string
	sources := make([]domain.Citation, 0, len(results))

	for i, r := range results {
		label := sectionLabel(r.Chunk)
		blocks = append(blocks, fmt.Sprintf("[%d] %s (%s)\n%s", i+1, r.Chunk.FileName, label, r.Chunk.Content))
		sources = append(sources, domain.Citation{
			FileName:   r.Chunk.FileName,
			FilePath:   r.Chunk.FilePath,
			Section:    label,
			PageNumber: r.Chunk.PageNumber,
		})
	}

	return &RetrievedContext{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}, nil
}

func sectionLabel(c domain.DocumentChunk) string {
	switch {
	case c.PageNumber > 0:
		return fmt.Sprintf("Page %d", c.PageNumber)
	case c.TotalChunks > 1:
		return fmt.Sprintf("Section %d/%d", c.ChunkIndex+1, c.TotalChunks)
	default:
		return "Full Document"
	}
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
