package reference

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory reference store for tests and local runs.
type MemoryStore struct {
	mu           sync.RWMutex
	units        map[string]Unit
	subdivisions []Subdivision
	eventTypes   []EventType
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{units: make(map[string]Unit)}
}

// Seed replaces the stored subdivisions, for test setup.
func (s *MemoryStore) Seed(subdivisions []Subdivision, eventTypes []EventType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subdivisions = append([]Subdivision(nil), subdivisions...)
	s.eventTypes = append([]EventType(nil), eventTypes...)
}

func (s *MemoryStore) List(ctx context.Context) ([]Subdivision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Subdivision(nil), s.subdivisions...), nil
}

func (s *MemoryStore) ListEventTypes(ctx context.Context) ([]EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EventType(nil), s.eventTypes...), nil
}

func (s *MemoryStore) UpsertUnit(ctx context.Context, unit Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[unit.ShortName] = unit
	return nil
}

// UpsertSubdivision matches by code when present, falling back to full name,
// mirroring the durable store.
func (s *MemoryStore) UpsertSubdivision(ctx context.Context, sub Subdivision) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subdivisions {
		existing := &s.subdivisions[i]
		if (sub.Code != "" && existing.Code == sub.Code) ||
			(sub.Code == "" && existing.FullName == sub.FullName) {
			*existing = sub
			return false, nil
		}
	}
	s.subdivisions = append(s.subdivisions, sub)
	return true, nil
}
