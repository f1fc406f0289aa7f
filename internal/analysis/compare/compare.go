// Package compare scores one extracted event against its time-windowed portal
// candidates, applies the two-of-three voting rule, ranks the survivors and
// renders per-attribute statuses, diffs, highlighting and a human-readable
// explanation. It is pure and deterministic: identical input always yields an
// identical result.
package compare

import (
	"math"
	"sort"
	"time"

	"github.com/benderprog/analiz-svodok/internal/analysis/identity"
	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// Options are the comparison knobs. They are configuration, not law: the
// deployment tunes them.
type Options struct {
	// Threshold is the minimal subdivision resolution similarity.
	Threshold float64
	// WindowMinutes bounds the acceptable timestamp delta.
	WindowMinutes int
	// OffendersMinOverlap is the minimal overlap-over-extracted ratio.
	OffendersMinOverlap float64
}

// scored carries one candidate's three boolean signals and the raw numbers
// behind them, for ranking and explanation.
type scored struct {
	event models.PortalEvent

	timeMatch        bool
	subdivisionMatch bool
	offendersMatch   bool

	deltaMinutes *int // extracted − candidate; nil when either side is missing
	subdivScore  float64
	overlap      float64
}

func (s scored) signals() int {
	n := 0
	for _, b := range []bool{s.timeMatch, s.subdivisionMatch, s.offendersMatch} {
		if b {
			n++
		}
	}
	return n
}

// Compare evaluates every candidate, keeps those passing the two-of-three
// vote ordered by rank, and renders statuses against the primary match (or
// the nearest-in-window candidate when nothing qualified).
func Compare(extracted *models.ExtractedEvent, candidates []models.PortalEvent, opts Options) models.MatchResult {
	offenders := identity.Dedupe(extracted.Offenders)
	extractedNames := identity.NameSet(offenders)

	all := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		all = append(all, score(extracted, extractedNames, candidate, opts))
	}

	qualified := make([]scored, 0, len(all))
	for _, s := range all {
		if voteTwoOfThree(s.timeMatch, s.subdivisionMatch, s.offendersMatch) {
			qualified = append(qualified, s)
		}
	}
	rank(qualified)

	var primary *scored
	if len(qualified) > 0 {
		primary = &qualified[0]
	} else {
		primary = nearestInWindow(all)
	}

	attributes := map[string]models.AttributeStatus{
		models.AttrTimestamp:   evaluateTime(extracted, primary, opts.WindowMinutes),
		models.AttrSubdivision: evaluateSubdivision(extracted, primary, opts.Threshold),
		models.AttrOffenders:   evaluateOffenders(offenders, extractedNames, primary),
	}

	matches := make([]models.PortalEvent, 0, len(qualified))
	for _, s := range qualified {
		matches = append(matches, s.event)
	}

	result := models.MatchResult{
		Extracted:       extracted,
		Found:           len(qualified) > 0,
		Matches:         matches,
		Attributes:      attributes,
		DuplicatesCount: len(qualified),
	}
	result.HighlightedText = highlight(extracted, attributes)
	result.Explanation = explain(extracted, offenders, primary, attributes, len(qualified), opts)
	return result
}

func score(extracted *models.ExtractedEvent, extractedNames map[string]struct{}, candidate models.PortalEvent, opts Options) scored {
	s := scored{event: candidate}

	s.deltaMinutes = deltaMinutes(extracted.Timestamp, candidate.DateDetection)
	if extracted.TimestampHasTime && s.deltaMinutes != nil {
		s.timeMatch = abs(*s.deltaMinutes) <= opts.WindowMinutes
	}

	if extracted.SubdivisionSimilarity != nil && *extracted.SubdivisionSimilarity >= opts.Threshold &&
		extracted.SubdivisionName != "" && extracted.SubdivisionName == candidate.SubdivisionName {
		s.subdivisionMatch = true
		s.subdivScore = *extracted.SubdivisionSimilarity
	}

	s.overlap = identity.OverlapRatio(extractedNames, identity.NameSet(candidate.Offenders))
	s.offendersMatch = len(extractedNames) > 0 && s.overlap >= opts.OffendersMinOverlap

	return s
}

// voteTwoOfThree is the qualification rule: at least two attribute signals
// must agree.
func voteTwoOfThree(timeMatch, subdivisionMatch, offendersMatch bool) bool {
	n := 0
	for _, b := range []bool{timeMatch, subdivisionMatch, offendersMatch} {
		if b {
			n++
		}
	}
	return n >= 2
}

// rank orders qualified candidates: more true signals first, then smaller
// absolute time delta (missing counts as infinite), then higher subdivision
// similarity, then higher offender overlap.
func rank(candidates []scored) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.signals() != b.signals() {
			return a.signals() > b.signals()
		}
		da, db := absDeltaOrInf(a.deltaMinutes), absDeltaOrInf(b.deltaMinutes)
		if da != db {
			return da < db
		}
		if a.subdivScore != b.subdivScore {
			return a.subdivScore > b.subdivScore
		}
		return a.overlap > b.overlap
	})
}

// nearestInWindow picks the candidate with the smallest in-window time delta
// for status rendering when nothing passed the vote.
func nearestInWindow(all []scored) *scored {
	var best *scored
	for i := range all {
		if !all[i].timeMatch {
			continue
		}
		if best == nil || absDeltaOrInf(all[i].deltaMinutes) < absDeltaOrInf(best.deltaMinutes) {
			best = &all[i]
		}
	}
	return best
}

func deltaMinutes(extracted, candidate *time.Time) *int {
	if extracted == nil || candidate == nil {
		return nil
	}
	delta := int(math.Round(extracted.Sub(*candidate).Minutes()))
	return &delta
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absDeltaOrInf(delta *int) int {
	if delta == nil {
		return math.MaxInt
	}
	return abs(*delta)
}

func roundPercent(ratio float64) float64 {
	return math.Round(ratio*10000) / 100
}
