// Package portal reads event candidates from the external registry database.
// The registry schema is not ours, so the SQL lives in a deployment-owned YAML
// file rather than in code.
package portal

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	derrors "github.com/benderprog/analiz-svodok/pkg/domain-errors"
)

// Query names every deployment must define.
//
// find_candidates($1=window start, $2=window end, $3=exact timestamp,
// $4=limit) returns (event_id, detected_at, subdivision_id, fullname,
// offenders payload, event_type). Registries without aggregated columns may
// return NULL for fullname and the payload; those rows are completed with
// fetch_subdivision($1=subdivision_id) -> (fullname) and
// fetch_offenders($1=event_id) -> (first_name, middle_name, last_name,
// birth_date, birth_year).
const (
	QueryFindCandidates   = "find_candidates"
	QueryFetchOffenders   = "fetch_offenders"
	QueryFetchSubdivision = "fetch_subdivision"
)

var requiredQueries = []string{QueryFindCandidates, QueryFetchOffenders, QueryFetchSubdivision}

// Queries is the validated set of registry SQL statements.
type Queries struct {
	byName map[string]string
}

type queryFile struct {
	Queries map[string]string `yaml:"queries"`
}

// LoadQueries reads and validates the query config.
func LoadQueries(r io.Reader) (*Queries, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "read portal query config")
	}
	var file queryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "parse portal query config")
	}

	var missing []string
	for _, name := range requiredQueries {
		if file.Queries[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, derrors.Newf(derrors.CodeInternal,
			"portal query config is missing required queries: %v", missing)
	}
	return &Queries{byName: file.Queries}, nil
}

// LoadQueriesFile loads the query config from disk.
func LoadQueriesFile(path string) (*Queries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derrors.Wrapf(err, derrors.CodeInternal, "open portal query config %s", path)
	}
	defer f.Close()
	return LoadQueries(f)
}

// Get returns the named query.
func (q *Queries) Get(name string) (string, error) {
	stmt, ok := q.byName[name]
	if !ok {
		return "", fmt.Errorf("portal query %q is not defined in config", name)
	}
	return stmt, nil
}
