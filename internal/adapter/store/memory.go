package store

import (
	"sync/atomic"
	"time"

	"docrag/internal/domain"
)

// MemoryStore holds the embedded corpus for one workspace behind an
// atomically swapped snapshot pointer. A reader that grabs a snapshot keeps
// one complete generation for as long as it needs; Replace and Clear never
// touch a published snapshot.
type MemoryStore struct {
	current atomic.Pointer[domain.StoreSnapshot]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace swaps in a fully built corpus for the workspace.
func (s *MemoryStore) Replace(workspacePath string, chunks []domain.DocumentChunk) {
	s.current.Store(&domain.StoreSnapshot{
		WorkspacePath: workspacePath,
		Chunks:        chunks,
		LastUpdated:   time.Now(),
	})
}

// Clear drops the live corpus.
func (s *MemoryStore) Clear() {
	s.current.Store(nil)
}

// Snapshot returns the live generation, or nil when nothing is indexed.
func (s *MemoryStore) Snapshot() *domain.StoreSnapshot {
	return s.current.Load()
}

func (s *MemoryStore) Count() int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Chunks)
}
