package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

func dob(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "семенов артем", NormalizeName("  Семёнов   Артём "))
	assert.Equal(t, "иванов иван", NormalizeName("ИВАНОВ ИВАН"))
	// Idempotent.
	once := NormalizeName("Семёнов Артём")
	assert.Equal(t, once, NormalizeName(once))
}

func TestNormalizedName_Order(t *testing.T) {
	o := models.Offender{FirstName: "Иван", MiddleName: "Иванович", LastName: "Иванов"}
	assert.Equal(t, "иванов иван иванович", NormalizedName(o))
}

func TestKey_IncludesBirthDate(t *testing.T) {
	withDate := models.Offender{LastName: "Иванов", FirstName: "Иван", DateOfBirth: dob(1990, 5, 5)}
	withoutDate := models.Offender{LastName: "Иванов", FirstName: "Иван"}
	assert.NotEqual(t, Key(withDate), Key(withoutDate))
	assert.Equal(t, "иванов иван|1990-05-05", Key(withDate))
}

func TestDedupe(t *testing.T) {
	offenders := []models.Offender{
		{LastName: "Иванов", FirstName: "Иван", Raw: "first"},
		{LastName: "иванов", FirstName: "ИВАН", Raw: "second"},
		{},
		{LastName: "Петров", FirstName: "Петр"},
	}
	out := Dedupe(offenders)
	require.Len(t, out, 2)
	// First occurrence wins.
	assert.Equal(t, "first", out[0].Raw)
	assert.Equal(t, "Петров", out[1].LastName)

	// Idempotent.
	assert.Equal(t, out, Dedupe(out))
}

func TestDedupe_DifferentBirthDatesKept(t *testing.T) {
	offenders := []models.Offender{
		{LastName: "Иванов", FirstName: "Иван", DateOfBirth: dob(1990, 5, 5)},
		{LastName: "Иванов", FirstName: "Иван", DateOfBirth: dob(1991, 6, 6)},
	}
	assert.Len(t, Dedupe(offenders), 2)
}

func TestOverlapRatio(t *testing.T) {
	extracted := map[string]struct{}{"a": {}, "b": {}}
	matched := map[string]struct{}{"b": {}, "c": {}, "d": {}}
	assert.InDelta(t, 0.5, OverlapRatio(extracted, matched), 0.001)
	assert.Zero(t, OverlapRatio(map[string]struct{}{}, matched))
	assert.Zero(t, OverlapRatio(extracted, map[string]struct{}{}))
}

func TestDiff_MissingAndExtra(t *testing.T) {
	extracted := []models.Offender{{LastName: "Иванов", FirstName: "Иван"}}
	matched := []models.Offender{{LastName: "Петров", FirstName: "Петр"}}

	diff := Diff(extracted, matched)
	assert.Equal(t, []string{"петров петр"}, diff.Missing)
	assert.Equal(t, []string{"иванов иван"}, diff.Extra)
	assert.Empty(t, diff.BirthInfo)
}

func TestDiff_BirthInfoNotes(t *testing.T) {
	t.Run("missing extracted", func(t *testing.T) {
		diff := Diff(
			[]models.Offender{{LastName: "Петров", FirstName: "Петр"}},
			[]models.Offender{{LastName: "Петров", FirstName: "Петр", BirthYear: 1990}},
		)
		require.Len(t, diff.BirthInfo, 1)
		assert.Equal(t, "missing_extracted", diff.BirthInfo[0].Kind)
		assert.Equal(t, "1990", diff.BirthInfo[0].Portal)
	})

	t.Run("missing portal", func(t *testing.T) {
		diff := Diff(
			[]models.Offender{{LastName: "Петров", FirstName: "Петр", DateOfBirth: dob(1990, 5, 5)}},
			[]models.Offender{{LastName: "Петров", FirstName: "Петр"}},
		)
		require.Len(t, diff.BirthInfo, 1)
		assert.Equal(t, "missing_portal", diff.BirthInfo[0].Kind)
		assert.Equal(t, "05.05.1990", diff.BirthInfo[0].Extracted)
	})

	t.Run("mismatch", func(t *testing.T) {
		diff := Diff(
			[]models.Offender{{LastName: "Петров", FirstName: "Петр", DateOfBirth: dob(1990, 5, 5)}},
			[]models.Offender{{LastName: "Петров", FirstName: "Петр", DateOfBirth: dob(1991, 6, 6)}},
		)
		require.Len(t, diff.BirthInfo, 1)
		assert.Equal(t, "mismatch", diff.BirthInfo[0].Kind)
	})

	t.Run("year agrees with exact date from same year", func(t *testing.T) {
		diff := Diff(
			[]models.Offender{{LastName: "Петров", FirstName: "Петр", BirthYear: 1990}},
			[]models.Offender{{LastName: "Петров", FirstName: "Петр", DateOfBirth: dob(1990, 5, 5)}},
		)
		assert.Empty(t, diff.BirthInfo)
	})
}
