package store

import (
	"sync"

	"github.com/AngelCh415/ad-cutoff/internal/analytics"
)

// MemoryStore holds the derived state of the most recent batch. Each new
// batch replaces the previous one wholesale.
type MemoryStore struct {
	mu     sync.RWMutex
	latest *analytics.Batch
	runs   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Replace(b *analytics.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
	s.runs++
}

func (s *MemoryStore) Latest() (*analytics.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// Runs counts batches stored since start.
func (s *MemoryStore) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}
