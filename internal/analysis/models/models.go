// Package models holds the data types flowing through the analysis pipeline:
// extraction output, portal candidates, and the per-paragraph match result.
package models

import (
	"fmt"
	"time"
)

// Offender is one person mentioned in a report paragraph or attached to a
// portal event. At most one of DateOfBirth / BirthYear is ever set; a record
// with no name parts is dropped during extraction.
type Offender struct {
	FirstName   string     `json:"first_name,omitempty"`
	MiddleName  string     `json:"middle_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	BirthYear   int        `json:"birth_year,omitempty"`
	// Raw is the source substring the record was extracted from, kept for
	// highlighting. Empty for portal-side offenders.
	Raw string `json:"raw,omitempty"`
}

// HasName reports whether any name part is present.
func (o Offender) HasName() bool {
	return o.FirstName != "" || o.MiddleName != "" || o.LastName != ""
}

// DisplayName renders "Last First Middle" with birth info in parentheses.
func (o Offender) DisplayName() string {
	name := joinNameParts(o.LastName, o.FirstName, o.MiddleName)
	switch {
	case o.DateOfBirth != nil:
		return fmt.Sprintf("%s (%s)", name, o.DateOfBirth.Format("2006-01-02"))
	case o.BirthYear != 0:
		return fmt.Sprintf("%s (%d)", name, o.BirthYear)
	default:
		return name
	}
}

func joinNameParts(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}

// ExtractedEvent is one paragraph's structured attributes. The extractor fills
// everything except the subdivision resolution fields, which the resolver
// mutates in place; the comparison engine consumes it read-only.
type ExtractedEvent struct {
	ParagraphIndex   int        `json:"paragraph_index"`
	RawText          string     `json:"raw_text"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
	TimestampHasTime bool       `json:"timestamp_has_time"`
	TimestampText    string     `json:"timestamp_text,omitempty"`
	SubdivisionText  string     `json:"subdivision_text,omitempty"`

	// Filled by the subdivision resolver.
	SubdivisionName       string   `json:"subdivision_name,omitempty"`
	SubdivisionSimilarity *float64 `json:"subdivision_similarity,omitempty"`

	Offenders []Offender `json:"offenders"`
}

// PortalEvent is a registry candidate pulled for one comparison. Immutable
// once fetched.
type PortalEvent struct {
	EventID              string     `json:"event_id"`
	DateDetection        *time.Time `json:"date_detection,omitempty"`
	SubdivisionName      string     `json:"subdivision_name,omitempty"`
	SubdivisionShortName string     `json:"subdivision_short_name,omitempty"`
	SubdivisionFullName  string     `json:"subdivision_full_name,omitempty"`
	Offenders            []Offender `json:"offenders"`
	EventTypeName        string     `json:"event_type_name,omitempty"`
}

// Attribute labels used as keys in MatchResult.Attributes.
const (
	AttrTimestamp   = "timestamp"
	AttrSubdivision = "subdivision"
	AttrOffenders   = "offenders"
)

// Attribute status markers.
const (
	StatusExact    = "+"
	StatusPartial  = "!"
	StatusMismatch = "-"
)

// AttributeStatus is the per-attribute verdict rendered against the primary
// candidate. An empty Status means the attribute was not applicable (nothing
// extracted).
type AttributeStatus struct {
	Label   string   `json:"label"`
	Status  string   `json:"status,omitempty"`
	Percent *float64 `json:"percent,omitempty"`
	Value   string   `json:"value,omitempty"`

	Diff *OffendersDiff `json:"diff,omitempty"`

	// Time-specific detail, present only on the timestamp attribute when a
	// candidate timestamp existed. Delta is extracted minus candidate.
	DeltaMinutes *int   `json:"timestamp_delta_minutes,omitempty"`
	DeltaHuman   string `json:"timestamp_delta_human,omitempty"`
}

// BirthInfoNote records a birth-data disagreement for a name present in both
// rosters.
type BirthInfoNote struct {
	Name string `json:"name"`
	// Kind is one of "missing_extracted", "missing_portal", "mismatch".
	Kind      string `json:"kind"`
	Extracted string `json:"extracted,omitempty"`
	Portal    string `json:"portal,omitempty"`
}

// OffendersDiff is the structured roster comparison attached to the offenders
// attribute.
type OffendersDiff struct {
	Missing   []string        `json:"missing,omitempty"`
	Extra     []string        `json:"extra,omitempty"`
	BirthInfo []BirthInfoNote `json:"birth_info,omitempty"`
}

// MatchResult aggregates the outcome of comparing one extracted event against
// its time-windowed portal candidates.
type MatchResult struct {
	Extracted       *ExtractedEvent            `json:"extracted"`
	Found           bool                       `json:"found"`
	Matches         []PortalEvent              `json:"matches"`
	Attributes      map[string]AttributeStatus `json:"attributes"`
	HighlightedText string                     `json:"highlighted_text,omitempty"`
	Explanation     []string                   `json:"explanation,omitempty"`
	DuplicatesCount int                        `json:"duplicates_count"`
	Message         string                     `json:"message,omitempty"`
	// DetectedEventType is the embedding-classified event type of the
	// paragraph, when the classifier is configured.
	DetectedEventType string `json:"detected_event_type,omitempty"`
}

// TextSpan is the single normalized span shape produced by NER adapters, so
// the extractor only ever consumes one concrete form.
type TextSpan struct {
	Start int
	End   int
	Text  string
}
