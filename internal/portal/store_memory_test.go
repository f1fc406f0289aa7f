package portal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

func seeded(t *testing.T) *MemoryStore {
	t.Helper()
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Seed([]models.PortalEvent{
		{EventID: "inside", DateDetection: &base},
		{EventID: "edge", DateDetection: ptrTime(base.Add(30 * time.Minute))},
		{EventID: "outside", DateDetection: ptrTime(base.Add(45 * time.Minute))},
		{EventID: "undated"},
	})
	return store
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestFetchCandidates_Window(t *testing.T) {
	store := seeded(t)
	ts := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	events, err := store.FetchCandidates(context.Background(), &ts, 30)
	require.NoError(t, err)

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.EventID)
	}
	assert.ElementsMatch(t, []string{"inside", "edge"}, ids)
}

func TestFetchCandidates_NilTimestampReturnsAll(t *testing.T) {
	store := seeded(t)
	events, err := store.FetchCandidates(context.Background(), nil, 30)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestParseOffenders(t *testing.T) {
	payload := []byte(`[
		{"last_name": "Иванов", "first_name": "Иван", "birth_date": "1990-05-05"},
		{"last_name": "Петров", "birth_year": 1991},
		{"last_name": "Строков", "birth_year": "1985"},
		"garbage",
		{"last_name": "Кривой", "birth_date": "not-a-date"}
	]`)

	offenders := parseOffenders(payload)
	require.Len(t, offenders, 4)

	require.NotNil(t, offenders[0].DateOfBirth)
	assert.Equal(t, 1990, offenders[0].DateOfBirth.Year())
	assert.Equal(t, 1991, offenders[1].BirthYear)
	assert.Equal(t, 1985, offenders[2].BirthYear)
	assert.Nil(t, offenders[3].DateOfBirth)
}

func TestParseOffenders_Malformed(t *testing.T) {
	assert.Nil(t, parseOffenders(nil))
	assert.Nil(t, parseOffenders([]byte("not json")))
}
