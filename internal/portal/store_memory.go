package portal

import (
	"context"
	"sync"
	"time"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// MemoryStore serves candidates from a seeded slice, for tests and local runs
// without a registry connection.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.PortalEvent
}

// NewMemoryStore creates an empty in-memory candidate store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed replaces the stored events.
func (s *MemoryStore) Seed(events []models.PortalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]models.PortalEvent(nil), events...)
}

// FetchCandidates filters the seeded events by the same window rule the
// durable store applies: ±window around the timestamp, or everything when no
// timestamp was extracted.
func (s *MemoryStore) FetchCandidates(ctx context.Context, timestamp *time.Time, windowMinutes int) ([]models.PortalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if timestamp == nil {
		out := append([]models.PortalEvent(nil), s.events...)
		if len(out) > candidateLimit {
			out = out[:candidateLimit]
		}
		return out, nil
	}

	from := timestamp.Add(-time.Duration(windowMinutes) * time.Minute)
	to := timestamp.Add(time.Duration(windowMinutes) * time.Minute)

	var out []models.PortalEvent
	for _, event := range s.events {
		if event.DateDetection == nil {
			continue
		}
		if event.DateDetection.Before(from) || event.DateDetection.After(to) {
			continue
		}
		out = append(out, event)
		if len(out) == candidateLimit {
			break
		}
	}
	return out, nil
}
