package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// MemoryStore keeps job state in a map, for tests and single-process runs.
// It does not expire entries.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = &Job{ID: jobID, Status: StatusPending}
	return nil
}

func (s *MemoryStore) UpdateProgress(ctx context.Context, jobID, status string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return derrors.Newf(derrors.CodeNotFound, "job %s not found", jobID)
	}
	job.Status = status
	job.Progress = progress
	return nil
}

func (s *MemoryStore) SetResult(ctx context.Context, jobID string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode job result: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return derrors.Newf(derrors.CodeNotFound, "job %s not found", jobID)
	}
	job.Status = StatusDone
	job.Progress = 100
	job.Result = payload
	return nil
}

func (s *MemoryStore) SetError(ctx context.Context, jobID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return derrors.Newf(derrors.CodeNotFound, "job %s not found", jobID)
	}
	job.Status = StatusError
	job.Error = message
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, derrors.Newf(derrors.CodeNotFound, "job %s not found", jobID)
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) Clear(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}
