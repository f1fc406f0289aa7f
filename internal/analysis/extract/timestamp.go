package extract

import (
	"regexp"
	"strconv"
	"time"
)

var (
	// time then date: "12:00 10.01.2024", tolerating "12.00" clock notation.
	timeDateRe = regexp.MustCompile(`(\d{1,2})[:.](\d{2})\s+(?:час[а-я]*\s+)?(\d{2})\.(\d{2})\.(\d{4})`)
	// date then time: "10.01.2024 в 12:00".
	dateTimeRe = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})(?:\s+г\.)?(?:\s+(?:в|около))?\s+(\d{1,2})[:.](\d{2})`)
	dateOnlyRe = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)

	birthContextRe = regexp.MustCompile(`(?i)г\.\s*р|год[а-я]*\s+рожден`)
)

// birthContextRunes is how far around a date match a birth-year marker still
// disqualifies it as the event timestamp.
const birthContextRunes = 10

type timestampCandidate struct {
	start   int
	text    string
	ts      time.Time
	hasTime bool
}

// extractTimestamp finds the event timestamp: the earliest time+date pair
// outside a birth-date context, falling back to a bare date. Dates that match
// the pattern but are not valid calendar dates are silently dropped.
func extractTimestamp(text string) (*time.Time, bool, string) {
	var candidates []timestampCandidate

	for _, m := range timeDateRe.FindAllStringSubmatchIndex(text, -1) {
		c, ok := timedCandidate(text, m, 3, 4, 5, 1, 2)
		if ok {
			candidates = append(candidates, c)
		}
	}
	for _, m := range dateTimeRe.FindAllStringSubmatchIndex(text, -1) {
		c, ok := timedCandidate(text, m, 1, 2, 3, 4, 5)
		if ok {
			candidates = append(candidates, c)
		}
	}

	if best := earliest(candidates); best != nil {
		return &best.ts, true, best.text
	}

	// No full timestamp; fall back to a date without a clock time.
	for _, m := range dateOnlyRe.FindAllStringSubmatchIndex(text, -1) {
		if inBirthContext(text, m[0], m[1]) {
			continue
		}
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		year, _ := strconv.Atoi(text[m[6]:m[7]])
		ts, ok := validDate(year, month, day, 0, 0)
		if !ok {
			continue
		}
		candidates = append(candidates, timestampCandidate{
			start: m[0],
			text:  text[m[0]:m[1]],
			ts:    ts,
		})
	}
	if best := earliest(candidates); best != nil {
		return &best.ts, false, best.text
	}
	return nil, false, ""
}

// timedCandidate builds a candidate from a submatch index slice given the
// group numbers for day/month/year and hour/minute.
func timedCandidate(text string, m []int, dg, mg, yg, hg, ming int) (timestampCandidate, bool) {
	if inBirthContext(text, m[0], m[1]) {
		return timestampCandidate{}, false
	}
	day, _ := strconv.Atoi(text[m[2*dg]:m[2*dg+1]])
	month, _ := strconv.Atoi(text[m[2*mg]:m[2*mg+1]])
	year, _ := strconv.Atoi(text[m[2*yg]:m[2*yg+1]])
	hour, _ := strconv.Atoi(text[m[2*hg]:m[2*hg+1]])
	minute, _ := strconv.Atoi(text[m[2*ming]:m[2*ming+1]])
	if hour > 23 || minute > 59 {
		return timestampCandidate{}, false
	}
	ts, ok := validDate(year, month, day, hour, minute)
	if !ok {
		return timestampCandidate{}, false
	}
	return timestampCandidate{
		start:   m[0],
		text:    text[m[0]:m[1]],
		ts:      ts,
		hasTime: true,
	}, true
}

// validDate rejects pattern matches that are not real calendar dates, e.g.
// 31.02.2024: time.Date would silently normalize them.
func validDate(year, month, day, hour, minute int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if ts.Day() != day || int(ts.Month()) != month || ts.Year() != year {
		return time.Time{}, false
	}
	return ts, true
}

// earliest picks the candidate with the smallest start offset; ties are
// impossible because offsets are distinct match starts.
func earliest(candidates []timestampCandidate) *timestampCandidate {
	var best *timestampCandidate
	for i := range candidates {
		if best == nil || candidates[i].start < best.start {
			best = &candidates[i]
		}
	}
	return best
}

// inBirthContext reports whether a birth-year marker occurs within the
// exclusion window around [start, end).
func inBirthContext(text string, start, end int) bool {
	lo := expandLeft(text, start, birthContextRunes)
	hi := expandRight(text, end, birthContextRunes)
	return birthContextRe.MatchString(text[lo:hi])
}
