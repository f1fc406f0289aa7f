package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/benderprog/analiz-svodok/internal/analysis/compare"
	"github.com/benderprog/analiz-svodok/internal/analysis/extract"
	"github.com/benderprog/analiz-svodok/internal/analysis/models"
	"github.com/benderprog/analiz-svodok/internal/analysis/semantic"
	"github.com/benderprog/analiz-svodok/internal/jobs"
	"github.com/benderprog/analiz-svodok/internal/portal"
	"github.com/benderprog/analiz-svodok/internal/reference"
	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// ============================================================
// Fakes
// ============================================================

// stubEncoder returns zero vectors: the resolver's exact lookup is the only
// path these tests exercise, the encoder just has to answer.
type stubEncoder struct{}

func (stubEncoder) Encode(_ context.Context, texts []string, _ bool) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, 4)
	}
	return out, nil
}

type failingSource struct{}

func (failingSource) FetchCandidates(context.Context, *time.Time, int) ([]models.PortalEvent, error) {
	return nil, errors.New("portal replica down")
}

// recordingJobStore captures the progress sequence reported during a run.
type recordingJobStore struct {
	*jobs.MemoryStore
	progress []int
}

func (r *recordingJobStore) UpdateProgress(ctx context.Context, jobID, status string, progress int) error {
	r.progress = append(r.progress, progress)
	return r.MemoryStore.UpdateProgress(ctx, jobID, status, progress)
}

// ============================================================
// Suite
// ============================================================

type ServiceSuite struct {
	suite.Suite
	portal  *portal.MemoryStore
	jobs    *recordingJobStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.portal = portal.NewMemoryStore()
	s.portal.Seed([]models.PortalEvent{seededEvent("evt-1", s.at(12, 0))})
	s.jobs = &recordingJobStore{MemoryStore: jobs.NewMemoryStore()}
	s.service = s.build(s.portal)
}

func (s *ServiceSuite) build(source CandidateSource) *Service {
	directory := []reference.Subdivision{{
		Code:      "pz-1",
		ShortName: "ПЗ №1",
		FullName:  "пограничная застава №1",
	}}
	refctx, err := semantic.BuildContext(context.Background(), directory, stubEncoder{})
	s.Require().NoError(err)
	resolver, err := semantic.NewResolver(refctx, stubEncoder{})
	s.Require().NoError(err)

	svc, err := New(extract.New(), resolver, source, s.jobs, compare.Options{
		Threshold:           0.80,
		WindowMinutes:       30,
		OffendersMinOverlap: 0.5,
	})
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) at(hour, minute int) time.Time {
	return time.Date(2024, 1, 10, hour, minute, 0, 0, time.UTC)
}

func seededEvent(id string, detected time.Time) models.PortalEvent {
	return models.PortalEvent{
		EventID:         id,
		DateDetection:   &detected,
		SubdivisionName: "пограничная застава №1",
		Offenders: []models.Offender{{
			LastName:   "Иванов",
			FirstName:  "Иван",
			MiddleName: "Иванович",
		}},
	}
}

func (s *ServiceSuite) extractedEvent() *models.ExtractedEvent {
	ts := s.at(12, 5)
	return &models.ExtractedEvent{
		RawText:          "10.01.2024 в 12:05 на ПЗ №1 задержан Иванов Иван Иванович",
		Timestamp:        &ts,
		TimestampHasTime: true,
		SubdivisionText:  "ПЗ №1",
		Offenders: []models.Offender{{
			LastName:   "Иванов",
			FirstName:  "Иван",
			MiddleName: "Иванович",
		}},
	}
}

// ============================================================
// MatchEvent
// ============================================================

func (s *ServiceSuite) TestMatchEvent_ResolvesSubdivisionInPlace() {
	extracted := s.extractedEvent()

	result, err := s.service.MatchEvent(context.Background(), extracted, Overrides{})
	s.Require().NoError(err)

	s.Equal("пограничная застава №1", extracted.SubdivisionName)
	s.Require().NotNil(extracted.SubdivisionSimilarity)
	s.Equal(1.0, *extracted.SubdivisionSimilarity)

	s.True(result.Found)
	s.Equal(1, result.DuplicatesCount)
	s.Empty(result.Message)
	s.Equal(models.StatusExact, result.Attributes[models.AttrSubdivision].Status)
}

func (s *ServiceSuite) TestMatchEvent_NoMentionSkipsResolution() {
	ts := s.at(12, 5)
	extracted := &models.ExtractedEvent{
		RawText:          "в 12:05 задержан Иванов Иван Иванович",
		Timestamp:        &ts,
		TimestampHasTime: true,
		Offenders:        []models.Offender{{LastName: "Иванов", FirstName: "Иван", MiddleName: "Иванович"}},
	}

	result, err := s.service.MatchEvent(context.Background(), extracted, Overrides{})
	s.Require().NoError(err)

	s.Empty(extracted.SubdivisionName)
	s.Nil(extracted.SubdivisionSimilarity)
	// Time and offenders still carry the vote.
	s.True(result.Found)
}

func (s *ServiceSuite) TestMatchEvent_DuplicatesMessage() {
	s.portal.Seed([]models.PortalEvent{
		seededEvent("evt-1", s.at(12, 0)),
		seededEvent("evt-2", s.at(12, 10)),
	})

	result, err := s.service.MatchEvent(context.Background(), s.extractedEvent(), Overrides{})
	s.Require().NoError(err)

	s.Equal(2, result.DuplicatesCount)
	s.Equal("Найдено несколько записей: 2", result.Message)
}

func (s *ServiceSuite) TestMatchEvent_OverridesRaiseThreshold() {
	extracted := s.extractedEvent()
	extracted.Offenders = nil

	// Time and subdivision agree under the defaults.
	result, err := s.service.MatchEvent(context.Background(), extracted, Overrides{})
	s.Require().NoError(err)
	s.True(result.Found)

	// An unreachable threshold removes the subdivision signal and the vote
	// falls to one of three.
	threshold := 1.01
	result, err = s.service.MatchEvent(context.Background(), extracted, Overrides{Threshold: &threshold})
	s.Require().NoError(err)
	s.False(result.Found)
}

func (s *ServiceSuite) TestMatchEvent_PortalUnavailable() {
	svc := s.build(failingSource{})

	_, err := svc.MatchEvent(context.Background(), s.extractedEvent(), Overrides{})
	s.Require().Error(err)
	s.Equal(derrors.CodeUnavailable, derrors.CodeOf(err))
}

// ============================================================
// AnalyzeDocument
// ============================================================

func (s *ServiceSuite) TestAnalyzeDocument() {
	ctx := context.Background()
	jobID := "job-1"
	s.Require().NoError(s.jobs.Create(ctx, jobID))

	paragraphs := []string{
		"10.01.2024 в 12:05 на ПЗ №1 задержан Иванов Иван Иванович.",
		"Без происшествий.",
	}
	s.Require().NoError(s.service.AnalyzeDocument(ctx, jobID, paragraphs, Overrides{}))

	s.Equal([]int{5, 50, 95}, s.jobs.progress)

	job, err := s.jobs.Get(ctx, jobID)
	s.Require().NoError(err)
	s.Equal(jobs.StatusDone, job.Status)
	s.Equal(100, job.Progress)

	var result DocumentResult
	s.Require().NoError(json.Unmarshal(job.Result, &result))
	s.Require().Len(result.Items, 2)
	s.True(result.Items[0].Found)
	s.Equal(0, result.Items[0].Extracted.ParagraphIndex)
	s.False(result.Items[1].Found)
	s.Equal(1, result.Items[1].Extracted.ParagraphIndex)
}

func (s *ServiceSuite) TestAnalyzeDocument_FailureMarksJobErrored() {
	ctx := context.Background()
	jobID := "job-1"
	s.Require().NoError(s.jobs.Create(ctx, jobID))

	svc := s.build(failingSource{})
	err := svc.AnalyzeDocument(ctx, jobID, []string{"в 12:05 на ПЗ №1 задержан Иванов Иван Иванович"}, Overrides{})
	s.Require().Error(err)

	job, getErr := s.jobs.Get(ctx, jobID)
	s.Require().NoError(getErr)
	s.Equal(jobs.StatusError, job.Status)
	s.Contains(job.Error, "portal replica down")
}
