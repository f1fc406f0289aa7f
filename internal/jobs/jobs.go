// Package jobs tracks asynchronous analysis jobs: status, progress percentage
// and the final result payload, keyed by job id.
package jobs

import (
	"context"
	"encoding/json"
)

// Job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// Job is the externally visible state of one analysis run. Result is the raw
// JSON payload stored at completion, nil until the job finishes.
type Job struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Store persists job state. Implementations expire finished jobs after a TTL.
type Store interface {
	Create(ctx context.Context, jobID string) error
	UpdateProgress(ctx context.Context, jobID, status string, progress int) error
	SetResult(ctx context.Context, jobID string, result any) error
	SetError(ctx context.Context, jobID, message string) error
	Get(ctx context.Context, jobID string) (*Job, error)
	Clear(ctx context.Context, jobID string) error
}
