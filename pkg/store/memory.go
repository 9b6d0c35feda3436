package store

import (
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu      sync.RWMutex
	scans   []ScanRecord
	signups []Signup
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// RecordScan appends a scan record.
func (m *MemoryStore) RecordScan(rec ScanRecord) error {
	if err := rec.normalize(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.scans) + 1)
	m.scans = append(m.scans, rec)
	return nil
}

// RecentScans returns up to limit records, newest first.
func (m *MemoryStore) RecentScans(limit int) ([]ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.scans) {
		limit = len(m.scans)
	}
	out := make([]ScanRecord, 0, limit)
	for i := len(m.scans) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.scans[i])
	}
	return out, nil
}

// AddSignup stores a validated signup.
func (m *MemoryStore) AddSignup(s Signup) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = s.CreatedAt.UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = int64(len(m.signups) + 1)
	m.signups = append(m.signups, s)
	return nil
}

// Signups returns all signups, oldest first.
func (m *MemoryStore) Signups() ([]Signup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Signup(nil), m.signups...), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
