package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/benderprog/analiz-svodok/internal/analysis/service"
	"github.com/benderprog/analiz-svodok/internal/jobs"
)

// fakeService records the analyze call and finishes the job synchronously so
// tests can assert on the stored state.
type fakeService struct {
	mu         sync.Mutex
	jobs       *jobs.MemoryStore
	paragraphs []string
	called     chan struct{}
}

func (f *fakeService) AnalyzeDocument(ctx context.Context, jobID string, paragraphs []string, _ service.Overrides) error {
	f.mu.Lock()
	f.paragraphs = paragraphs
	f.mu.Unlock()
	err := f.jobs.SetResult(ctx, jobID, map[string]any{"items": []any{}})
	close(f.called)
	return err
}

type HandlerSuite struct {
	suite.Suite
	jobs    *jobs.MemoryStore
	service *fakeService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.jobs = jobs.NewMemoryStore()
	s.service = &fakeService{jobs: s.jobs, called: make(chan struct{})}
	s.router = chi.NewRouter()
	New(s.service, s.jobs, slog.Default()).Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// ============================================================
// Create
// ============================================================

func (s *HandlerSuite) TestCreateJob() {
	rec := s.do(http.MethodPost, "/api/analysis/jobs", CreateJobRequest{
		Paragraphs: []string{"  в 12:05 задержан нарушитель  "},
	})
	s.Require().Equal(http.StatusAccepted, rec.Code)

	var resp CreateJobResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.JobID)
	s.Require().NoError(err)

	select {
	case <-s.service.called:
	case <-time.After(time.Second):
		s.FailNow("analysis was never started")
	}
	s.Equal([]string{"в 12:05 задержан нарушитель"}, s.service.paragraphs)

	job, err := s.jobs.Get(context.Background(), resp.JobID)
	s.Require().NoError(err)
	s.Equal(jobs.StatusDone, job.Status)
}

func (s *HandlerSuite) TestCreateJob_Validation() {
	window := -5
	threshold := 1.5
	cases := map[string]CreateJobRequest{
		"no paragraphs":    {},
		"blank paragraphs": {Paragraphs: []string{"   ", ""}},
		"bad window": {
			Paragraphs: []string{"текст"},
			Overrides:  service.Overrides{WindowMinutes: &window},
		},
		"bad threshold": {
			Paragraphs: []string{"текст"},
			Overrides:  service.Overrides{Threshold: &threshold},
		},
	}
	for name, req := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, "/api/analysis/jobs", req)
			s.Equal(http.StatusBadRequest, rec.Code)
		})
	}
}

func (s *HandlerSuite) TestCreateJob_TooManyParagraphs() {
	paragraphs := make([]string, maxParagraphs+1)
	for i := range paragraphs {
		paragraphs[i] = "текст"
	}
	rec := s.do(http.MethodPost, "/api/analysis/jobs", CreateJobRequest{Paragraphs: paragraphs})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestCreateJob_MalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/analysis/jobs", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// ============================================================
// Get / Delete
// ============================================================

func (s *HandlerSuite) TestGetJob() {
	ctx := context.Background()
	jobID := uuid.NewString()
	s.Require().NoError(s.jobs.Create(ctx, jobID))
	s.Require().NoError(s.jobs.UpdateProgress(ctx, jobID, jobs.StatusProcessing, 50))

	rec := s.do(http.MethodGet, "/api/analysis/jobs/"+jobID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp JobResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(jobID, resp.JobID)
	s.Equal(jobs.StatusProcessing, resp.Status)
	s.Equal(50, resp.Progress)
}

func (s *HandlerSuite) TestGetJob_NotFound() {
	rec := s.do(http.MethodGet, "/api/analysis/jobs/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestGetJob_InvalidID() {
	rec := s.do(http.MethodGet, "/api/analysis/jobs/not-a-uuid", nil)
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var resp map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("invalid job id", resp["message"])
}

func (s *HandlerSuite) TestDeleteJob() {
	ctx := context.Background()
	jobID := uuid.NewString()
	s.Require().NoError(s.jobs.Create(ctx, jobID))

	rec := s.do(http.MethodDelete, "/api/analysis/jobs/"+jobID, nil)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	_, err := s.jobs.Get(ctx, jobID)
	s.Error(err)
}

func (s *HandlerSuite) TestDeleteJob_InvalidID() {
	rec := s.do(http.MethodDelete, "/api/analysis/jobs/12345", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
