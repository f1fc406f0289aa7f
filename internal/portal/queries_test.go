package portal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryYAML = `
queries:
  find_candidates: "SELECT 1"
  fetch_offenders: "SELECT 2"
  fetch_subdivision: "SELECT 3"
  extra_report: "SELECT 4"
`

func TestLoadQueries(t *testing.T) {
	q, err := LoadQueries(strings.NewReader(queryYAML))
	require.NoError(t, err)

	stmt, err := q.Get(QueryFindCandidates)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", stmt)

	// Optional extras beyond the required set are kept.
	stmt, err = q.Get("extra_report")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 4", stmt)
}

func TestLoadQueries_MissingRequired(t *testing.T) {
	_, err := LoadQueries(strings.NewReader(`
queries:
  find_candidates: "SELECT 1"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch_offenders")
	assert.Contains(t, err.Error(), "fetch_subdivision")
}

func TestQueries_GetUnknown(t *testing.T) {
	q, err := LoadQueries(strings.NewReader(queryYAML))
	require.NoError(t, err)
	_, err = q.Get("no_such_query")
	require.Error(t, err)
}
