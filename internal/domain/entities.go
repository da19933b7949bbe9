package domain

import "time"

// DocumentChunk is the unit of retrieval: one bounded window of a source
// document, with enough provenance to cite it back to the user.
type DocumentChunk struct {
	ID          string
	FilePath    string
	FileName    string
	Content     string
	Embedding   []float32
	ChunkIndex  int
	TotalChunks int
	PageNumber  int // 0 when the source format has no page provenance
}

type ScoredChunk struct {
	Chunk DocumentChunk
	Score float64
}

// Citation points a retrieved chunk back at its source document.
type Citation struct {
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
	Section    string `json:"section"`
	PageNumber int    `json:"page_number,omitempty"`
}

// StoreSnapshot is one complete generation of the embedded corpus for a
// workspace. Snapshots are immutable after creation; the live snapshot is
// only ever replaced wholesale, never mutated.
type StoreSnapshot struct {
	WorkspacePath string
	Chunks        []DocumentChunk
	LastUpdated   time.Time
}

type StoreStatus struct {
	IsIndexing  bool      `json:"is_indexing"`
	ChunkCount  int       `json:"chunks_count"`
	Workspace   string    `json:"workspace,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
}

// IndexSummary reports the outcome of one indexing run. A run with skipped
// files or dropped batches still counts as success when any chunks landed.
type IndexSummary struct {
	FilesIndexed  int
	FilesSkipped  int
	ChunksIndexed int
	Errors        []string
}

// Progress is emitted once per file during extraction and once per batch
// during embedding.
type Progress struct {
	Phase      string
	Current    int
	Total      int
	FileName   string
	Percentage int
}

const (
	PhaseExtracting = "extracting"
	PhaseEmbedding  = "embedding"
)
