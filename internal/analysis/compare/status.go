package compare

import (
	"fmt"

	"github.com/benderprog/analiz-svodok/internal/analysis/identity"
	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

const valueUndetermined = "не определено"

// evaluateTime renders the timestamp attribute against the primary candidate.
func evaluateTime(extracted *models.ExtractedEvent, primary *scored, windowMinutes int) models.AttributeStatus {
	status := models.AttributeStatus{Label: models.AttrTimestamp}

	if extracted.Timestamp == nil {
		status.Status = models.StatusMismatch
		status.Value = valueUndetermined
		return status
	}
	status.Value = extracted.Timestamp.Format("02.01.2006 15:04")

	if !extracted.TimestampHasTime {
		status.Status = models.StatusPartial
		status.Value = extracted.Timestamp.Format("02.01.2006")
		return status
	}

	if primary == nil || primary.event.DateDetection == nil || primary.deltaMinutes == nil {
		status.Status = models.StatusMismatch
		return status
	}

	delta := *primary.deltaMinutes
	status.DeltaMinutes = &delta
	status.DeltaHuman = humanizeDelta(delta)

	switch {
	case extracted.Timestamp.Equal(*primary.event.DateDetection):
		status.Status = models.StatusExact
		status.Percent = ptr(100.0)
	case abs(delta) <= windowMinutes:
		status.Status = models.StatusPartial
	default:
		status.Status = models.StatusMismatch
	}
	return status
}

// evaluateSubdivision renders the subdivision attribute. An empty extraction
// yields a not-applicable status.
func evaluateSubdivision(extracted *models.ExtractedEvent, primary *scored, threshold float64) models.AttributeStatus {
	status := models.AttributeStatus{Label: models.AttrSubdivision}

	if extracted.SubdivisionText == "" {
		status.Value = valueUndetermined
		return status
	}
	if extracted.SubdivisionSimilarity == nil || *extracted.SubdivisionSimilarity < threshold {
		status.Status = models.StatusMismatch
		status.Percent = ptr(0.0)
		status.Value = valueUndetermined
		return status
	}

	status.Value = extracted.SubdivisionName
	status.Percent = ptr(roundPercent(*extracted.SubdivisionSimilarity))
	if primary != nil && extracted.SubdivisionName == primary.event.SubdivisionName {
		status.Status = models.StatusExact
	} else {
		status.Status = models.StatusPartial
	}
	return status
}

// evaluateOffenders renders the offenders attribute with the roster diff
// always attached. Offenders are already deduplicated.
func evaluateOffenders(offenders []models.Offender, extractedNames map[string]struct{}, primary *scored) models.AttributeStatus {
	status := models.AttributeStatus{Label: models.AttrOffenders}

	if len(offenders) == 0 {
		status.Value = valueUndetermined
		return status
	}

	var matchedRoster []models.Offender
	if primary != nil {
		matchedRoster = primary.event.Offenders
	}

	ratio := identity.OverlapRatio(extractedNames, identity.NameSet(matchedRoster))
	diff := identity.Diff(offenders, matchedRoster)

	status.Percent = ptr(roundPercent(ratio))
	status.Value = rosterValue(offenders)
	status.Diff = diff

	switch {
	case ratio == 1.0 && diffEmpty(diff):
		status.Status = models.StatusExact
	case ratio > 0:
		status.Status = models.StatusPartial
	default:
		status.Status = models.StatusMismatch
	}
	return status
}

func diffEmpty(diff *models.OffendersDiff) bool {
	return diff == nil || (len(diff.Missing) == 0 && len(diff.Extra) == 0 && len(diff.BirthInfo) == 0)
}

func rosterValue(offenders []models.Offender) string {
	out := ""
	for i, o := range offenders {
		if i > 0 {
			out += ", "
		}
		out += o.DisplayName()
	}
	return out
}

// humanizeDelta renders a signed minute delta as "±H ч M мин".
func humanizeDelta(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
	}
	v := abs(minutes)
	if v >= 60 {
		return fmt.Sprintf("%s%d ч %d мин", sign, v/60, v%60)
	}
	return fmt.Sprintf("%s%d мин", sign, v)
}

func ptr(v float64) *float64 { return &v }
