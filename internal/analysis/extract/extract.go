// Package extract pulls structured attributes (timestamp, subdivision
// mention, offender records) out of one free-form report paragraph. It is a
// best-effort heuristic extractor: malformed input degrades to empty
// attributes, never to an error.
package extract

import (
	"time"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// Attributes is the extraction result for a single paragraph.
type Attributes struct {
	Timestamp        *time.Time
	TimestampHasTime bool
	TimestampText    string
	SubdivisionText  string
	Offenders        []models.Offender
}

// NERTagger is the optional external named-entity capability. Adapters must
// return normalized TextSpan values regardless of the backend's native match
// shape.
type NERTagger interface {
	OrgSpans(text string) []models.TextSpan
	PersonSpans(text string) []models.TextSpan
}

// MorphAnalyzer is the optional external morphology capability used by the
// offender false-positive filter.
type MorphAnalyzer interface {
	IsAdjective(token string) bool
}

// Extractor is a pure function of its input text plus read-only reference
// data; it is safe for concurrent use.
type Extractor struct {
	ner      NERTagger
	morph    MorphAnalyzer
	stoplist map[string]struct{}
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithNER plugs in a named-entity backend for subdivision and person spans.
func WithNER(tagger NERTagger) Option {
	return func(e *Extractor) { e.ner = tagger }
}

// WithMorph plugs in a morphology backend for the adjective filter. Without
// it the filter is skipped; it is a precision refinement, not a correctness
// requirement.
func WithMorph(analyzer MorphAnalyzer) Option {
	return func(e *Extractor) { e.morph = analyzer }
}

// WithStoplist supplies subdivision-name tokens derived from the reference
// directory, used to drop single-token false-positive offenders.
func WithStoplist(tokens map[string]struct{}) Option {
	return func(e *Extractor) { e.stoplist = tokens }
}

// New constructs an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the three heuristics in dependency order: offenders first so
// their spans can mask the other searches, then subdivision, then timestamp.
func (e *Extractor) Extract(text string) Attributes {
	offenders, offenderSpans := e.extractOffenders(text)
	subdivision := e.extractSubdivision(text, offenderSpans)
	ts, hasTime, tsText := extractTimestamp(text)

	return Attributes{
		Timestamp:        ts,
		TimestampHasTime: hasTime,
		TimestampText:    tsText,
		SubdivisionText:  subdivision,
		Offenders:        offenders,
	}
}
