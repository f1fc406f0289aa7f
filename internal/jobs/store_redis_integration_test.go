//go:build integration

package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/benderprog/analiz-svodok/internal/jobs"
	"github.com/benderprog/analiz-svodok/pkg/testutil/containers"
	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *jobs.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = jobs.NewRedisStore(s.redis.Client, time.Minute)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestLifecycle() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, "job-1"))

	job, err := s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(jobs.StatusPending, job.Status)
	s.Equal(0, job.Progress)

	s.Require().NoError(s.store.UpdateProgress(ctx, "job-1", jobs.StatusProcessing, 50))
	job, err = s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(jobs.StatusProcessing, job.Status)
	s.Equal(50, job.Progress)

	s.Require().NoError(s.store.SetResult(ctx, "job-1", map[string]string{"ok": "true"}))
	job, err = s.store.Get(ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(jobs.StatusDone, job.Status)
	s.Equal(100, job.Progress)
	s.JSONEq(`{"ok":"true"}`, string(job.Result))
}

func (s *RedisStoreSuite) TestClearAndNotFound() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, "job-1"))
	s.Require().NoError(s.store.Clear(ctx, "job-1"))

	_, err := s.store.Get(ctx, "job-1")
	s.Require().Error(err)
	s.Equal(derrors.CodeNotFound, derrors.CodeOf(err))
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()
	short := jobs.NewRedisStore(s.redis.Client, time.Second)
	s.Require().NoError(s.store.Create(ctx, "keep"))
	s.Require().NoError(short.Create(ctx, "drop"))

	time.Sleep(1500 * time.Millisecond)

	_, err := s.store.Get(ctx, "keep")
	s.NoError(err)
	_, err = short.Get(ctx, "drop")
	s.Error(err)
}
