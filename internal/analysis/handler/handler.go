// Package handler exposes the analysis pipeline over HTTP: submit a document,
// poll its job, drop the result.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/benderprog/analiz-svodok/internal/analysis/service"
	"github.com/benderprog/analiz-svodok/internal/jobs"
	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
	"github.com/benderprog/analiz-svodok/pkg/httputil"
)

// Service runs document analysis jobs.
type Service interface {
	AnalyzeDocument(ctx context.Context, jobID string, paragraphs []string, overrides service.Overrides) error
}

// Handler wires the analysis endpoints to the service and job store.
type Handler struct {
	service Service
	jobs    jobs.Store
	logger  *slog.Logger
}

// New constructs an analysis handler.
func New(svc Service, jobStore jobs.Store, logger *slog.Logger) *Handler {
	return &Handler{service: svc, jobs: jobStore, logger: logger}
}

// Register mounts the analysis endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/analysis/jobs", h.HandleCreateJob)
	r.Get("/api/analysis/jobs/{jobID}", h.HandleGetJob)
	r.Delete("/api/analysis/jobs/{jobID}", h.HandleDeleteJob)
}

// HandleCreateJob handles POST /api/analysis/jobs: registers a job and runs
// the analysis asynchronously.
func (h *Handler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[CreateJobRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	jobID := uuid.NewString()
	if err := h.jobs.Create(ctx, jobID); err != nil {
		h.logger.ErrorContext(ctx, "create analysis job", "error", err)
		httputil.WriteError(w, err)
		return
	}

	// The job outlives the request; detach from its cancellation but keep
	// request-scoped values for logging.
	go func(ctx context.Context) {
		if err := h.service.AnalyzeDocument(ctx, jobID, req.Paragraphs, req.Overrides); err != nil {
			h.logger.ErrorContext(ctx, "analysis job failed", "job_id", jobID, "error", err)
		}
	}(context.WithoutCancel(ctx))

	h.logger.InfoContext(ctx, "analysis job accepted", "job_id", jobID, "paragraphs", len(req.Paragraphs))
	httputil.WriteJSON(w, http.StatusAccepted, CreateJobResponse{JobID: jobID})
}

// HandleGetJob handles GET /api/analysis/jobs/{jobID}.
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")
	if _, err := uuid.Parse(jobID); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid job id"))
		return
	}

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromJob(job))
}

// HandleDeleteJob handles DELETE /api/analysis/jobs/{jobID}.
func (h *Handler) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")
	if _, err := uuid.Parse(jobID); err != nil {
		httputil.WriteError(w, derrors.New(derrors.CodeBadRequest, "invalid job id"))
		return
	}

	if err := h.jobs.Clear(ctx, jobID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
