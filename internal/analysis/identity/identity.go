// Package identity provides offender name normalization, identity keys,
// deduplication and roster diffing shared by the resolver and the comparison
// engine.
package identity

import (
	"sort"
	"strconv"
	"strings"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// NormalizeName casefolds, collapses whitespace and maps ё to е so spelling
// variants of the same person produce one identity. Idempotent.
func NormalizeName(value string) string {
	cleaned := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), " ")
	return strings.ReplaceAll(cleaned, "ё", "е")
}

// NormalizedName builds the "last first middle" identity string for an
// offender.
func NormalizedName(o models.Offender) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.LastName, o.FirstName, o.MiddleName} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return NormalizeName(strings.Join(parts, " "))
}

// Key is the deduplication key: normalized name, suffixed with the exact birth
// date when one is known.
func Key(o models.Offender) string {
	key := NormalizedName(o)
	if o.DateOfBirth != nil {
		key += "|" + o.DateOfBirth.Format("2006-01-02")
	}
	return key
}

// Dedupe removes duplicate offenders, keeping the first occurrence of each key
// and dropping nameless records. Applying it twice yields the same result.
func Dedupe(offenders []models.Offender) []models.Offender {
	seen := make(map[string]struct{}, len(offenders))
	out := make([]models.Offender, 0, len(offenders))
	for _, o := range offenders {
		if !o.HasName() {
			continue
		}
		key := Key(o)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}

// NameSet collects the normalized names of a roster, dropping nameless
// records.
func NameSet(offenders []models.Offender) map[string]struct{} {
	set := make(map[string]struct{}, len(offenders))
	for _, o := range offenders {
		if name := NormalizedName(o); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// OverlapRatio is |extracted ∩ matched| / |extracted|. An empty extracted set
// contributes no signal and yields 0.
func OverlapRatio(extracted, matched map[string]struct{}) float64 {
	if len(extracted) == 0 {
		return 0
	}
	shared := 0
	for name := range extracted {
		if _, ok := matched[name]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(extracted))
}

// Diff compares two rosters grouped by normalized name. Missing holds names
// only the portal side has, Extra names only the extraction has. For shared
// names birth info is compared; an exact date agrees with a bare year from the
// same calendar year.
func Diff(extracted, matched []models.Offender) *models.OffendersDiff {
	extractedByName := groupByName(extracted)
	matchedByName := groupByName(matched)

	diff := &models.OffendersDiff{}
	for name := range matchedByName {
		if _, ok := extractedByName[name]; !ok {
			diff.Missing = append(diff.Missing, name)
		}
	}
	for name := range extractedByName {
		if _, ok := matchedByName[name]; !ok {
			diff.Extra = append(diff.Extra, name)
		}
	}
	sort.Strings(diff.Missing)
	sort.Strings(diff.Extra)

	names := make([]string, 0, len(extractedByName))
	for name := range extractedByName {
		if _, ok := matchedByName[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if note := compareBirthInfo(name, extractedByName[name], matchedByName[name]); note != nil {
			diff.BirthInfo = append(diff.BirthInfo, *note)
		}
	}
	return diff
}

func groupByName(offenders []models.Offender) map[string][]models.Offender {
	groups := make(map[string][]models.Offender, len(offenders))
	for _, o := range offenders {
		if name := NormalizedName(o); name != "" {
			groups[name] = append(groups[name], o)
		}
	}
	return groups
}

func compareBirthInfo(name string, extracted, matched []models.Offender) *models.BirthInfoNote {
	extValues := birthValues(extracted)
	porValues := birthValues(matched)

	switch {
	case len(extValues) == 0 && len(porValues) == 0:
		return nil
	case len(extValues) == 0:
		return &models.BirthInfoNote{Name: name, Kind: "missing_extracted", Portal: strings.Join(porValues, ", ")}
	case len(porValues) == 0:
		return &models.BirthInfoNote{Name: name, Kind: "missing_portal", Extracted: strings.Join(extValues, ", ")}
	}

	for _, e := range extracted {
		for _, p := range matched {
			if birthAgrees(e, p) {
				return nil
			}
		}
	}
	return &models.BirthInfoNote{
		Name:      name,
		Kind:      "mismatch",
		Extracted: strings.Join(extValues, ", "),
		Portal:    strings.Join(porValues, ", "),
	}
}

// birthAgrees treats a year-only record as agreeing with an exact date from
// the same year.
func birthAgrees(a, b models.Offender) bool {
	yearOf := func(o models.Offender) int {
		if o.DateOfBirth != nil {
			return o.DateOfBirth.Year()
		}
		return o.BirthYear
	}
	ya, yb := yearOf(a), yearOf(b)
	if ya == 0 || yb == 0 {
		return false
	}
	if a.DateOfBirth != nil && b.DateOfBirth != nil {
		return a.DateOfBirth.Equal(*b.DateOfBirth)
	}
	return ya == yb
}

func birthValues(offenders []models.Offender) []string {
	values := make([]string, 0, len(offenders))
	seen := make(map[string]struct{}, len(offenders))
	for _, o := range offenders {
		var v string
		switch {
		case o.DateOfBirth != nil:
			v = o.DateOfBirth.Format("02.01.2006")
		case o.BirthYear != 0:
			v = strconv.Itoa(o.BirthYear)
		default:
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
