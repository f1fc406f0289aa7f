package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
}

func (s *MemoryStoreSuite) TestLifecycle() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, "job-1"))

	job, err := s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(StatusPending, job.Status)
	s.Equal(0, job.Progress)
	s.Nil(job.Result)

	s.Require().NoError(s.store.UpdateProgress(ctx, "job-1", StatusProcessing, 42))
	job, err = s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(StatusProcessing, job.Status)
	s.Equal(42, job.Progress)

	s.Require().NoError(s.store.SetResult(ctx, "job-1", map[string]any{"items": []int{1, 2}}))
	job, err = s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(StatusDone, job.Status)
	s.Equal(100, job.Progress)

	var result map[string]json.RawMessage
	s.Require().NoError(json.Unmarshal(job.Result, &result))
	s.Contains(result, "items")
}

func (s *MemoryStoreSuite) TestSetError() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, "job-1"))
	s.Require().NoError(s.store.SetError(ctx, "job-1", "embedding service unreachable"))

	job, err := s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(StatusError, job.Status)
	s.Equal("embedding service unreachable", job.Error)
}

func (s *MemoryStoreSuite) TestClear() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, "job-1"))
	s.Require().NoError(s.store.Clear(ctx, "job-1"))

	_, err := s.store.Get(ctx, "job-1")
	s.Require().Error(err)
	s.Equal(derrors.CodeNotFound, derrors.CodeOf(err))
}

func (s *MemoryStoreSuite) TestUnknownJob() {
	ctx := context.Background()
	_, err := s.store.Get(ctx, "missing")
	s.Equal(derrors.CodeNotFound, derrors.CodeOf(err))

	err = s.store.UpdateProgress(ctx, "missing", StatusProcessing, 10)
	s.Equal(derrors.CodeNotFound, derrors.CodeOf(err))

	// Clearing an unknown job is a no-op.
	s.NoError(s.store.Clear(ctx, "missing"))
}

func (s *MemoryStoreSuite) TestGetReturnsCopy() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, "job-1"))

	job, err := s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	job.Status = StatusDone

	fresh, err := s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(StatusPending, fresh.Status)
}
