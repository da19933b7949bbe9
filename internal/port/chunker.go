package port

import "docrag/internal/domain"

type Chunker interface {
	// Chunk splits text into overlapping windows with file provenance.
	Chunk(filePath, text string) []domain.DocumentChunk

	// ChunkPages splits page-marked text so that no chunk crosses a page
	// boundary, tagging each chunk with its source page.
	ChunkPages(filePath, text string) []domain.DocumentChunk
}
