package port

import "docrag/internal/domain"

// VectorStore holds the embedded corpus for one workspace. The live corpus
// is only ever replaced or cleared wholesale; readers always observe one
// complete generation.
type VectorStore interface {
	// Replace atomically swaps in a new corpus for the workspace.
	Replace(workspacePath string, chunks []domain.DocumentChunk)

	// Clear drops the live corpus; subsequent searches see an empty store.
	Clear()

	// Snapshot returns the live generation, or nil when the store is empty.
	Snapshot() *domain.StoreSnapshot

	// Count returns the number of chunks in the live generation.
	Count() int
}
