package compare

import (
	"html"
	"sort"
	"strings"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// statusClass maps an attribute status to the CSS class used in the
// highlighted rendering.
func statusClass(status string) string {
	switch status {
	case models.StatusExact:
		return "hl-exact"
	case models.StatusPartial:
		return "hl-partial"
	case models.StatusMismatch:
		return "hl-miss"
	default:
		return "hl-none"
	}
}

type highlightSpan struct {
	start int
	end   int
	class string
}

// highlight builds an HTML-escaped copy of the raw text with the matched
// timestamp, subdivision and offender substrings wrapped in status-colored
// spans. Longer substrings are placed first so a short substring nested in a
// longer one is not double-wrapped.
func highlight(extracted *models.ExtractedEvent, attributes map[string]models.AttributeStatus) string {
	type fragment struct {
		text  string
		class string
	}
	fragments := make([]fragment, 0, 2+len(extracted.Offenders))
	if extracted.TimestampText != "" {
		fragments = append(fragments, fragment{extracted.TimestampText, statusClass(attributes[models.AttrTimestamp].Status)})
	}
	if extracted.SubdivisionText != "" {
		fragments = append(fragments, fragment{extracted.SubdivisionText, statusClass(attributes[models.AttrSubdivision].Status)})
	}
	offenderClass := statusClass(attributes[models.AttrOffenders].Status)
	for _, o := range extracted.Offenders {
		if o.Raw != "" {
			fragments = append(fragments, fragment{o.Raw, offenderClass})
		}
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return len(fragments[i].text) > len(fragments[j].text)
	})

	var spans []highlightSpan
	for _, f := range fragments {
		idx := strings.Index(extracted.RawText, f.text)
		for idx >= 0 {
			candidate := highlightSpan{start: idx, end: idx + len(f.text), class: f.class}
			if !spanOverlaps(candidate, spans) {
				spans = append(spans, candidate)
				break
			}
			next := strings.Index(extracted.RawText[candidate.end:], f.text)
			if next < 0 {
				break
			}
			idx = candidate.end + next
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	cursor := 0
	for _, span := range spans {
		b.WriteString(html.EscapeString(extracted.RawText[cursor:span.start]))
		b.WriteString(`<span class="` + span.class + `">`)
		b.WriteString(html.EscapeString(extracted.RawText[span.start:span.end]))
		b.WriteString(`</span>`)
		cursor = span.end
	}
	b.WriteString(html.EscapeString(extracted.RawText[cursor:]))
	return b.String()
}

func spanOverlaps(candidate highlightSpan, spans []highlightSpan) bool {
	for _, s := range spans {
		if candidate.start < s.end && candidate.end > s.start {
			return true
		}
	}
	return false
}
