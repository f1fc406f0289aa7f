// Package reference holds the subdivision directory and event-type catalog:
// the authoritative names the resolver matches against, plus the token
// stoplist the extractor's false-positive filter uses.
package reference

import (
	"strings"
	"unicode"
)

// Unit is a parent organization (directorate) a subdivision belongs to.
type Unit struct {
	ShortName string
	FullName  string
}

// Subdivision is one reference directory entity.
type Subdivision struct {
	Code      string
	UnitName  string
	ShortName string
	FullName  string
	Aliases   []string
}

// EventType is a classifiable incident category with its example phrases.
type EventType struct {
	Name     string
	Patterns []string
}

// stoplistMinRunes is the minimal token length admitted into the stoplist;
// shorter tokens are too ambiguous to disqualify an offender candidate.
const stoplistMinRunes = 4

// Stoplist derives the extractor's false-positive token set from all names
// and aliases in the directory: tokens of at least four letters, non-numeric,
// lowercased.
func Stoplist(entities []Subdivision) map[string]struct{} {
	tokens := make(map[string]struct{})
	add := func(text string) {
		for _, token := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			if len([]rune(token)) < stoplistMinRunes {
				continue
			}
			if strings.IndexFunc(token, unicode.IsDigit) >= 0 {
				continue
			}
			tokens[token] = struct{}{}
		}
	}
	for _, e := range entities {
		add(e.ShortName)
		add(e.FullName)
		for _, alias := range e.Aliases {
			add(alias)
		}
	}
	return tokens
}
