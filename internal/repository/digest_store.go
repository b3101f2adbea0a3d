package repository

import (
	"sync"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/repository"
)

// MemoryDigestStore keeps the last delivered digest. Safe for concurrent use.
type MemoryDigestStore struct {
	mu     sync.RWMutex
	latest models.DigestRecord
	ok     bool
}

func NewMemoryDigestStore() *MemoryDigestStore {
	return &MemoryDigestStore{}
}

func (s *MemoryDigestStore) Save(rec models.DigestRecord) {
	s.mu.Lock()
	s.latest = rec
	s.ok = true
	s.mu.Unlock()
}

func (s *MemoryDigestStore) Latest() (models.DigestRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.ok
}

var _ repository.DigestStore = (*MemoryDigestStore)(nil)
