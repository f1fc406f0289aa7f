// Package service orchestrates the analysis pipeline: extraction, subdivision
// resolution, candidate fetch and comparison, with job-store progress
// reporting for asynchronous document runs.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benderprog/analiz-svodok/internal/analysis/compare"
	"github.com/benderprog/analiz-svodok/internal/analysis/extract"
	"github.com/benderprog/analiz-svodok/internal/analysis/metrics"
	"github.com/benderprog/analiz-svodok/internal/analysis/models"
	"github.com/benderprog/analiz-svodok/internal/analysis/semantic"
	"github.com/benderprog/analiz-svodok/internal/jobs"
	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// CandidateSource supplies time-windowed registry candidates.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, timestamp *time.Time, windowMinutes int) ([]models.PortalEvent, error)
}

// Overrides are per-request knob adjustments layered over the configured
// defaults. Nil fields keep the default.
type Overrides struct {
	Threshold           *float64 `json:"threshold,omitempty"`
	WindowMinutes       *int     `json:"window_minutes,omitempty"`
	OffendersMinOverlap *float64 `json:"offenders_min_overlap,omitempty"`
}

func (o Overrides) apply(base compare.Options) compare.Options {
	if o.Threshold != nil {
		base.Threshold = *o.Threshold
	}
	if o.WindowMinutes != nil {
		base.WindowMinutes = *o.WindowMinutes
	}
	if o.OffendersMinOverlap != nil {
		base.OffendersMinOverlap = *o.OffendersMinOverlap
	}
	return base
}

// DocumentResult is the payload stored in the job store when a document run
// completes.
type DocumentResult struct {
	Items []models.MatchResult `json:"items"`
}

// Service runs the pipeline. All collaborators are injected; the service
// itself holds no mutable state and is safe for concurrent use.
type Service struct {
	extractor  *extract.Extractor
	resolver   *semantic.Resolver
	classifier *semantic.TypeClassifier
	portal     CandidateSource
	jobs       jobs.Store
	defaults   compare.Options
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithTypeClassifier enables event-type detection on each paragraph.
func WithTypeClassifier(tc *semantic.TypeClassifier) Option {
	return func(s *Service) { s.classifier = tc }
}

// New constructs the analysis service.
func New(extractor *extract.Extractor, resolver *semantic.Resolver, portal CandidateSource, jobStore jobs.Store, defaults compare.Options, opts ...Option) (*Service, error) {
	if extractor == nil || resolver == nil || portal == nil || jobStore == nil {
		return nil, derrors.New(derrors.CodeInternal, "service requires extractor, resolver, candidate source and job store")
	}
	s := &Service{
		extractor: extractor,
		resolver:  resolver,
		portal:    portal,
		jobs:      jobStore,
		defaults:  defaults,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MatchEvent resolves the event's subdivision mention, fetches candidates for
// its time window and runs the comparison. The extracted event's resolution
// fields are filled in place.
func (s *Service) MatchEvent(ctx context.Context, extracted *models.ExtractedEvent, overrides Overrides) (*models.MatchResult, error) {
	opts := overrides.apply(s.defaults)

	if extracted.SubdivisionText != "" {
		match, err := s.resolver.Match(ctx, extracted.SubdivisionText)
		if err != nil {
			metrics.EmbeddingError()
			return nil, err
		}
		if match.Subdivision != nil {
			extracted.SubdivisionName = match.Subdivision.FullName
		} else {
			extracted.SubdivisionName = extracted.SubdivisionText
		}
		similarity := match.Similarity
		extracted.SubdivisionSimilarity = &similarity
	}

	candidates, err := s.portal.FetchCandidates(ctx, extracted.Timestamp, opts.WindowMinutes)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "fetch portal candidates")
	}

	result := compare.Compare(extracted, candidates, opts)
	if result.DuplicatesCount > 1 {
		result.Message = messageDuplicates(result.DuplicatesCount)
	}

	if s.classifier != nil {
		typeMatch, err := s.classifier.Classify(ctx, extracted.RawText)
		if err != nil {
			metrics.EmbeddingError()
			s.logger.WarnContext(ctx, "event type classification failed", "error", err)
		} else if typeMatch.EventType != nil {
			result.DetectedEventType = typeMatch.EventType.Name
		}
	}
	return &result, nil
}

// AnalyzeDocument runs the pipeline over a document's paragraphs, reporting
// progress into the job store: 5 after start, up to 95 during paragraphs, 100
// with the stored result. A collaborator failure marks the job as errored and
// is returned.
func (s *Service) AnalyzeDocument(ctx context.Context, jobID string, paragraphs []string, overrides Overrides) error {
	metrics.JobStarted()
	if err := s.jobs.UpdateProgress(ctx, jobID, jobs.StatusProcessing, 5); err != nil {
		return s.failJob(ctx, jobID, err)
	}

	total := len(paragraphs)
	if total == 0 {
		total = 1
	}

	results := make([]models.MatchResult, 0, len(paragraphs))
	for index, paragraph := range paragraphs {
		started := time.Now()

		attrs := s.extractor.Extract(paragraph)
		extracted := &models.ExtractedEvent{
			ParagraphIndex:   index,
			RawText:          paragraph,
			Timestamp:        attrs.Timestamp,
			TimestampHasTime: attrs.TimestampHasTime,
			TimestampText:    attrs.TimestampText,
			SubdivisionText:  attrs.SubdivisionText,
			Offenders:        attrs.Offenders,
		}

		result, err := s.MatchEvent(ctx, extracted, overrides)
		if err != nil {
			return s.failJob(ctx, jobID, err)
		}
		metrics.ObserveParagraph(time.Since(started), result.Found)
		results = append(results, *result)

		progress := 5 + (index+1)*90/total
		if err := s.jobs.UpdateProgress(ctx, jobID, jobs.StatusProcessing, progress); err != nil {
			return s.failJob(ctx, jobID, err)
		}
	}

	if err := s.jobs.SetResult(ctx, jobID, DocumentResult{Items: results}); err != nil {
		return s.failJob(ctx, jobID, err)
	}
	metrics.JobCompleted(jobs.StatusDone)
	s.logger.InfoContext(ctx, "analysis job finished", "job_id", jobID, "paragraphs", len(paragraphs))
	return nil
}

func (s *Service) failJob(ctx context.Context, jobID string, cause error) error {
	metrics.JobCompleted(jobs.StatusError)
	s.logger.ErrorContext(ctx, "analysis job failed", "job_id", jobID, "error", cause)
	if err := s.jobs.SetError(ctx, jobID, cause.Error()); err != nil {
		s.logger.ErrorContext(ctx, "mark job errored", "job_id", jobID, "error", err)
	}
	return cause
}

func messageDuplicates(count int) string {
	return fmt.Sprintf("Найдено несколько записей: %d", count)
}
