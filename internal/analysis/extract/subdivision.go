package extract

import (
	"strings"
	"unicode"
)

// subdivisionMarkers are short unit-type abbreviations (border post, border
// control unit). Longer tokens come first so "окпп" is not shadowed by "кпп".
var subdivisionMarkers = []string{"окпп", "зкпп", "кпп", "опк", "погз", "погк", "пз"}

// subdivisionStopWords end the marker window: what follows belongs to the
// narrative, not the unit name.
var subdivisionStopWords = []string{
	"паспорт", "паспорта", "гражданин", "гражданина", "гражданка",
	"выявлен", "выявлена", "выявлено", "установлен", "установлено",
	"задержан", "задержана", "документ", "документы",
}

// phraseMarkerGroups are tried in priority order; within a group the earliest
// occurrence wins. The mention is the text following the marker.
var phraseMarkerGroups = [][]string{
	{"сотрудниками подразделения", "военнослужащими подразделения", "сотрудниками"},
	{"на посту", "на пункте пропуска"},
	{"подразделением", "подразделения"},
}

const (
	markerWindowBefore = 10
	markerWindowAfter  = 80
	phraseWindowAfter  = 160
)

// extractSubdivision tries the marker-window heuristic, then phrase markers,
// then the NER ORG fallback. Marker hits inside offender name spans are
// skipped so surnames that happen to contain a unit token do not win.
func (e *Extractor) extractSubdivision(text string, offenderSpans [][2]int) string {
	if s := markerWindow(text, offenderSpans); s != "" {
		return s
	}
	if s := phraseMarker(text); s != "" {
		return s
	}
	if e.ner != nil {
		if spans := e.ner.OrgSpans(text); len(spans) > 0 {
			return strings.TrimSpace(spans[0].Text)
		}
	}
	return ""
}

func markerWindow(text string, offenderSpans [][2]int) string {
	lower := strings.ToLower(text)
	best := -1
	for _, marker := range subdivisionMarkers {
		from := 0
		for {
			idx := findToken(lower[from:], marker)
			if idx < 0 {
				break
			}
			idx += from
			if !overlaps(idx, idx+len(marker), offenderSpans) {
				if best == -1 || idx < best {
					best = idx
				}
				break
			}
			from = idx + len(marker)
		}
	}
	if best < 0 {
		return ""
	}

	start := expandLeft(text, best, markerWindowBefore)
	end := expandRight(text, best, markerWindowAfter)
	window := strings.TrimLeftFunc(text[start:end], func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return trimMention(cutAtStopWord(window))
}

func phraseMarker(text string) string {
	lower := strings.ToLower(text)
	for _, group := range phraseMarkerGroups {
		best := -1
		bestEnd := 0
		for _, phrase := range group {
			if idx := strings.Index(lower, phrase); idx >= 0 && (best == -1 || idx < best) {
				best = idx
				bestEnd = idx + len(phrase)
			}
		}
		if best < 0 {
			continue
		}
		window := text[bestEnd:expandRight(text, bestEnd, phraseWindowAfter)]
		if cut := strings.IndexAny(window, ".;\n"); cut >= 0 {
			window = window[:cut]
		}
		if mention := trimMention(window); mention != "" {
			return mention
		}
	}
	return ""
}

// cutAtStopWord truncates the window at the earliest stop word or sentence
// punctuation.
func cutAtStopWord(window string) string {
	cut := len(window)
	lower := strings.ToLower(window)
	for _, stop := range subdivisionStopWords {
		if idx := findToken(lower, stop); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	if idx := strings.IndexAny(window, ".;!?\n"); idx >= 0 && idx < cut {
		cut = idx
	}
	return window[:cut]
}

func trimMention(s string) string {
	return strings.Trim(strings.TrimSpace(s), ",:-—")
}
