package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

const jobKeyPrefix = "analysis:job:"

// RedisStore is the production job store. Job state lives in a Redis hash so
// progress updates from the worker and reads from the API see one record.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed job store. Every write refreshes the
// TTL so a job expires only after it goes quiet.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(jobID string) string {
	return jobKeyPrefix + jobID
}

func (s *RedisStore) Create(ctx context.Context, jobID string) error {
	return s.write(ctx, jobID, map[string]any{
		"status":   StatusPending,
		"progress": 0,
	})
}

func (s *RedisStore) UpdateProgress(ctx context.Context, jobID, status string, progress int) error {
	return s.write(ctx, jobID, map[string]any{
		"status":   status,
		"progress": progress,
	})
}

func (s *RedisStore) SetResult(ctx context.Context, jobID string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode job result: %w", err)
	}
	return s.write(ctx, jobID, map[string]any{
		"status":   StatusDone,
		"progress": 100,
		"result":   payload,
	})
}

func (s *RedisStore) SetError(ctx context.Context, jobID, message string) error {
	return s.write(ctx, jobID, map[string]any{
		"status": StatusError,
		"error":  message,
	})
}

func (s *RedisStore) write(ctx context.Context, jobID string, fields map[string]any) error {
	key := s.key(jobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write job %s: %w", jobID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read job %s: %w", jobID, err)
	}
	if len(data) == 0 {
		return nil, derrors.Newf(derrors.CodeNotFound, "job %s not found", jobID)
	}

	job := &Job{
		ID:     jobID,
		Status: data["status"],
		Error:  data["error"],
	}
	if raw := data["progress"]; raw != "" {
		if progress, err := strconv.Atoi(raw); err == nil {
			job.Progress = progress
		}
	}
	if raw := data["result"]; raw != "" {
		job.Result = json.RawMessage(raw)
	}
	return job, nil
}

func (s *RedisStore) Clear(ctx context.Context, jobID string) error {
	if err := s.client.Del(ctx, s.key(jobID)).Err(); err != nil {
		return fmt.Errorf("clear job %s: %w", jobID, err)
	}
	return nil
}
