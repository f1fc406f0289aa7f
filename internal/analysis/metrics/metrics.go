// Package metrics exposes the analysis pipeline's prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "svodki_analysis_jobs_started_total",
		Help: "Analysis jobs accepted for processing",
	})
	jobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "svodki_analysis_jobs_completed_total",
		Help: "Analysis jobs finished, by final status",
	}, []string{"status"})
	paragraphDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "svodki_paragraph_match_duration_ms",
		Help:    "Latency of one paragraph extract+match in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	matchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "svodki_match_outcomes_total",
		Help: "Paragraph match outcomes, by whether a qualified candidate was found",
	}, []string{"found"})
	embeddingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "svodki_embedding_errors_total",
		Help: "Failed calls to the embedding service",
	})
)

func JobStarted() { jobsStarted.Inc() }

func JobCompleted(status string) { jobsCompleted.WithLabelValues(status).Inc() }

func ObserveParagraph(d time.Duration, found bool) {
	paragraphDurationMs.Observe(float64(d.Milliseconds()))
	label := "false"
	if found {
		label = "true"
	}
	matchOutcomes.WithLabelValues(label).Inc()
}

func EmbeddingError() { embeddingErrors.Inc() }
