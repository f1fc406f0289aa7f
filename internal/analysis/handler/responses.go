package handler

import (
	"encoding/json"

	"github.com/benderprog/analiz-svodok/internal/jobs"
)

// CreateJobResponse is the HTTP response for POST /api/analysis/jobs.
type CreateJobResponse struct {
	JobID string `json:"job_id"`
}

// JobResponse is the HTTP response for GET /api/analysis/jobs/{jobID}.
type JobResponse struct {
	JobID    string          `json:"job_id"`
	Status   string          `json:"status"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// FromJob converts a stored job to its HTTP shape.
func FromJob(job *jobs.Job) *JobResponse {
	return &JobResponse{
		JobID:    job.ID,
		Status:   job.Status,
		Progress: job.Progress,
		Result:   job.Result,
		Error:    job.Error,
	}
}
