package handler

import (
	"strings"

	"github.com/benderprog/analiz-svodok/internal/analysis/service"
	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// maxParagraphs bounds one submission; a full weekly report stays well under.
const maxParagraphs = 500

// CreateJobRequest is the HTTP request body for POST /api/analysis/jobs.
type CreateJobRequest struct {
	Paragraphs []string          `json:"paragraphs"`
	Overrides  service.Overrides `json:"overrides"`
}

// Validate checks and normalizes the request.
func (r *CreateJobRequest) Validate() error {
	if r == nil {
		return derrors.New(derrors.CodeBadRequest, "request body is required")
	}
	if len(r.Paragraphs) == 0 {
		return derrors.New(derrors.CodeBadRequest, "paragraphs is required")
	}
	if len(r.Paragraphs) > maxParagraphs {
		return derrors.Newf(derrors.CodeBadRequest, "at most %d paragraphs per job", maxParagraphs)
	}
	nonEmpty := false
	for i, p := range r.Paragraphs {
		r.Paragraphs[i] = strings.TrimSpace(p)
		if r.Paragraphs[i] != "" {
			nonEmpty = true
		}
	}
	if !nonEmpty {
		return derrors.New(derrors.CodeBadRequest, "paragraphs must contain text")
	}
	if r.Overrides.WindowMinutes != nil && *r.Overrides.WindowMinutes <= 0 {
		return derrors.New(derrors.CodeBadRequest, "window_minutes must be positive")
	}
	if r.Overrides.Threshold != nil && (*r.Overrides.Threshold < 0 || *r.Overrides.Threshold > 1) {
		return derrors.New(derrors.CodeBadRequest, "threshold must be within [0, 1]")
	}
	if r.Overrides.OffendersMinOverlap != nil && (*r.Overrides.OffendersMinOverlap < 0 || *r.Overrides.OffendersMinOverlap > 1) {
		return derrors.New(derrors.CodeBadRequest, "offenders_min_overlap must be within [0, 1]")
	}
	return nil
}
