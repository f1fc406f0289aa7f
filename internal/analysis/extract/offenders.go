package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// personRe is the fallback when no NER backend is configured: 2-3 consecutive
// capitalized tokens read as last/first/middle.
var personRe = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+){1,2}`)

var birthYearRe = regexp.MustCompile(`(?:19|20)\d{2}`)

const (
	// birthWindowRunes bounds how far after a name a birth date is searched.
	birthWindowRunes = 80
	// bareYearRunes is how close a bare 4-digit year must follow the name to
	// count as a birth year without an explicit marker.
	bareYearRunes = 5
	// yearMarkerRunes is how close a birth marker must follow a year.
	yearMarkerRunes = 15
)

// extractOffenders returns the offender records and their byte spans in text.
func (e *Extractor) extractOffenders(text string) ([]models.Offender, [][2]int) {
	spans := e.personSpans(text)

	offenders := make([]models.Offender, 0, len(spans))
	offsets := make([][2]int, 0, len(spans))
	for _, span := range spans {
		offender, ok := e.offenderFromSpan(text, span)
		if !ok {
			continue
		}
		offenders = append(offenders, offender)
		offsets = append(offsets, [2]int{span.Start, span.End})
	}
	return offenders, offsets
}

func (e *Extractor) personSpans(text string) []models.TextSpan {
	if e.ner != nil {
		return e.ner.PersonSpans(text)
	}
	var spans []models.TextSpan
	for _, m := range personRe.FindAllStringIndex(text, -1) {
		spans = append(spans, models.TextSpan{Start: m[0], End: m[1], Text: text[m[0]:m[1]]})
	}
	return spans
}

func (e *Extractor) offenderFromSpan(text string, span models.TextSpan) (models.Offender, bool) {
	tokens := strings.Fields(span.Text)
	if len(tokens) == 0 || len(tokens) > 3 {
		return models.Offender{}, false
	}
	if len(tokens) == 1 && e.isFalsePositive(tokens[0]) {
		return models.Offender{}, false
	}

	offender := models.Offender{LastName: tokens[0], Raw: span.Text}
	if len(tokens) > 1 {
		offender.FirstName = tokens[1]
	}
	if len(tokens) > 2 {
		offender.MiddleName = tokens[2]
	}
	if !offender.HasName() {
		return models.Offender{}, false
	}

	window := text[span.End:expandRight(text, span.End, birthWindowRunes)]
	if dob, ok := birthDateIn(window); ok {
		offender.DateOfBirth = &dob
	} else if year, ok := birthYearIn(window); ok {
		offender.BirthYear = year
	}
	return offender, true
}

// isFalsePositive drops single-token "offenders" that are really subdivision
// name fragments or adjectives. The morphology check is skipped when no
// backend is configured.
func (e *Extractor) isFalsePositive(token string) bool {
	lower := strings.ToLower(token)
	if _, ok := e.stoplist[lower]; ok {
		return true
	}
	return e.morph != nil && e.morph.IsAdjective(lower)
}

// clockAfterRe detects a clock time right after a date, which marks an event
// timestamp rather than a birth date.
var clockAfterRe = regexp.MustCompile(`^\s*(?:в\s*)?\d{1,2}[:.]\d{2}`)

// birthDateIn finds an exact birth date in the trailing window: a valid
// DD.MM.YYYY inside a birth-marker context, parenthesized, or immediately
// following the name with no clock time attached.
func birthDateIn(window string) (time.Time, bool) {
	for _, m := range dateOnlyRe.FindAllStringSubmatchIndex(window, -1) {
		adjacent := utf8.RuneCountInString(window[:m[0]]) <= bareYearRunes &&
			!clockAfterRe.MatchString(window[m[1]:])
		if !inBirthContext(window, m[0], m[1]) && !parenthesized(window, m[0], m[1]) && !adjacent {
			continue
		}
		day, _ := strconv.Atoi(window[m[2]:m[3]])
		month, _ := strconv.Atoi(window[m[4]:m[5]])
		year, _ := strconv.Atoi(window[m[6]:m[7]])
		if ts, ok := validDate(year, month, day, 0, 0); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

// birthYearIn finds a year-only birth mention: a bare 4-digit year right after
// the name, or one followed closely by a birth marker.
func birthYearIn(window string) (int, bool) {
	for _, m := range birthYearRe.FindAllStringIndex(window, -1) {
		if !wordBoundary(window, m[0], m[1]) {
			continue
		}
		year, _ := strconv.Atoi(window[m[0]:m[1]])
		if utf8.RuneCountInString(window[:m[0]]) <= bareYearRunes {
			return year, true
		}
		tail := window[m[1]:expandRight(window, m[1], yearMarkerRunes)]
		if birthContextRe.MatchString(tail) {
			return year, true
		}
	}
	return 0, false
}

func parenthesized(text string, start, end int) bool {
	before := strings.TrimRight(text[:start], " ")
	after := strings.TrimLeft(text[end:], " ")
	return strings.HasSuffix(before, "(") && strings.HasPrefix(after, ")")
}
