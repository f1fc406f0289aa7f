package compare

import (
	"fmt"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// explain builds the ordered human-readable notes for the audit trail. The
// wording is presentation, but the set of surfaced facts is load-bearing:
// primary event id, fired signals, time delta, subdivision score, both
// rosters, overlap percentage and counts, the explicit zero-overlap callout,
// below-threshold and mismatch details, and the duplicate count.
func explain(extracted *models.ExtractedEvent, offenders []models.Offender, primary *scored, attributes map[string]models.AttributeStatus, qualifiedCount int, opts Options) []string {
	var notes []string
	add := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	if primary == nil {
		add("Кандидаты в окне ±%d мин не найдены", opts.WindowMinutes)
		return notes
	}

	add("Основное событие портала: %s", primary.event.EventID)
	add("Совпавшие атрибуты: %s", firedSignals(primary))

	if ts := attributes[models.AttrTimestamp]; ts.DeltaMinutes != nil {
		add("Расхождение по времени: %s", ts.DeltaHuman)
	} else if !extracted.TimestampHasTime && extracted.Timestamp != nil {
		add("Время суток не извлечено, сравнение только по дате")
	}

	if extracted.SubdivisionText != "" {
		if extracted.SubdivisionSimilarity != nil && *extracted.SubdivisionSimilarity >= opts.Threshold {
			add("Подразделение: %s (сходство %.2f)", extracted.SubdivisionName, *extracted.SubdivisionSimilarity)
		} else {
			add("Подразделение не распознано: сходство ниже порога %.2f", opts.Threshold)
		}
	}

	if len(offenders) > 0 {
		add("Нарушители в своде: %s", rosterValue(offenders))
		if len(primary.event.Offenders) > 0 {
			add("Нарушители на портале: %s", rosterValue(primary.event.Offenders))
		} else {
			add("Нарушители на портале: не указаны")
		}
		add("Совпадение нарушителей: %.0f%% (%d из %d)",
			primary.overlap*100, overlapCount(primary, offenders), len(offenders))
		if primary.overlap == 0 {
			add("Ни один нарушитель не совпал")
		}
		for _, note := range birthNotes(attributes[models.AttrOffenders]) {
			add("%s", note)
		}
	}

	if primary.event.EventTypeName != "" {
		add("Тип события на портале: %s", primary.event.EventTypeName)
	}

	if qualifiedCount > 1 {
		add("Найдено несколько записей: %d", qualifiedCount)
	}
	return notes
}

func firedSignals(s *scored) string {
	out := ""
	write := func(label string, fired bool) {
		mark := "−"
		if fired {
			mark = "+"
		}
		if out != "" {
			out += ", "
		}
		out += label + mark
	}
	write("время", s.timeMatch)
	write("подразделение", s.subdivisionMatch)
	write("нарушители", s.offendersMatch)
	return out
}

func overlapCount(s *scored, offenders []models.Offender) int {
	return int(s.overlap*float64(len(offenders)) + 0.5)
}

func birthNotes(status models.AttributeStatus) []string {
	if status.Diff == nil {
		return nil
	}
	var notes []string
	for _, note := range status.Diff.BirthInfo {
		switch note.Kind {
		case "mismatch":
			notes = append(notes, fmt.Sprintf("Несовпадение ДР у %s: в своде %s, на портале %s",
				note.Name, note.Extracted, note.Portal))
		case "missing_extracted":
			notes = append(notes, fmt.Sprintf("ДР не извлечена у %s (на портале %s)", note.Name, note.Portal))
		case "missing_portal":
			notes = append(notes, fmt.Sprintf("ДР отсутствует на портале у %s (в своде %s)", note.Name, note.Extracted))
		}
	}
	return notes
}
