package portal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benderprog/analiz-svodok/internal/analysis/models"
)

// candidateLimit caps one window fetch. The registry accumulates events for
// years; an unbounded broad-window query would drag the whole table over.
const candidateLimit = 200

// PostgresStore fetches candidates from the registry database. The connection
// points at the registry replica, not the application database.
type PostgresStore struct {
	db      *sql.DB
	queries *Queries
}

// NewPostgres constructs a registry-backed candidate store.
func NewPostgres(db *sql.DB, queries *Queries) *PostgresStore {
	return &PostgresStore{db: db, queries: queries}
}

// rawCandidate is one find_candidates row before NULL columns are completed
// through the per-entity queries.
type rawCandidate struct {
	eventID       string
	detectedAt    sql.NullTime
	subdivisionID sql.NullInt64
	fullName      sql.NullString
	payload       []byte
	eventType     sql.NullString
}

// FetchCandidates returns registry events detected inside ±window around the
// timestamp. A nil timestamp widens the window to the registry's full history
// so the comparison can still rank by the remaining attributes.
func (s *PostgresStore) FetchCandidates(ctx context.Context, timestamp *time.Time, windowMinutes int) ([]models.PortalEvent, error) {
	query, err := s.queries.Get(QueryFindCandidates)
	if err != nil {
		return nil, err
	}

	var exact, from, to time.Time
	if timestamp == nil {
		exact = time.Now().UTC()
		from = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	} else {
		exact = *timestamp
		from = timestamp.Add(-time.Duration(windowMinutes) * time.Minute)
		to = timestamp.Add(time.Duration(windowMinutes) * time.Minute)
	}

	rows, err := s.db.QueryContext(ctx, query, from, to, exact, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("find portal candidates: %w", err)
	}
	defer rows.Close()

	var raws []rawCandidate
	for rows.Next() {
		var raw rawCandidate
		if err := rows.Scan(&raw.eventID, &raw.detectedAt, &raw.subdivisionID,
			&raw.fullName, &raw.payload, &raw.eventType); err != nil {
			return nil, fmt.Errorf("scan portal candidate: %w", err)
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var events []models.PortalEvent
	for _, raw := range raws {
		event, err := s.buildEvent(ctx, raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// buildEvent converts one row, filling columns the find_candidates query left
// NULL through fetch_subdivision and fetch_offenders.
func (s *PostgresStore) buildEvent(ctx context.Context, raw rawCandidate) (models.PortalEvent, error) {
	name := raw.fullName.String
	if name == "" && raw.subdivisionID.Valid {
		fetched, err := s.fetchSubdivision(ctx, raw.subdivisionID.Int64)
		if err != nil {
			return models.PortalEvent{}, err
		}
		name = fetched
	}

	offenders := parseOffenders(raw.payload)
	if len(raw.payload) == 0 {
		fetched, err := s.fetchOffenders(ctx, raw.eventID)
		if err != nil {
			return models.PortalEvent{}, err
		}
		offenders = fetched
	}

	event := models.PortalEvent{
		EventID:              raw.eventID,
		SubdivisionName:      name,
		SubdivisionShortName: name,
		SubdivisionFullName:  name,
		Offenders:            offenders,
		EventTypeName:        raw.eventType.String,
	}
	if raw.detectedAt.Valid {
		t := raw.detectedAt.Time
		event.DateDetection = &t
	}
	return event, nil
}

func (s *PostgresStore) fetchSubdivision(ctx context.Context, subdivisionID int64) (string, error) {
	query, err := s.queries.Get(QueryFetchSubdivision)
	if err != nil {
		return "", err
	}
	var name sql.NullString
	err = s.db.QueryRowContext(ctx, query, subdivisionID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch portal subdivision: %w", err)
	}
	return name.String, nil
}

func (s *PostgresStore) fetchOffenders(ctx context.Context, eventID string) ([]models.Offender, error) {
	query, err := s.queries.Get(QueryFetchOffenders)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch portal offenders: %w", err)
	}
	defer rows.Close()

	var out []models.Offender
	for rows.Next() {
		var (
			first, middle, last sql.NullString
			birthDate           sql.NullTime
			birthYear           sql.NullInt64
		)
		if err := rows.Scan(&first, &middle, &last, &birthDate, &birthYear); err != nil {
			return nil, fmt.Errorf("scan portal offender: %w", err)
		}
		o := models.Offender{
			FirstName:  first.String,
			MiddleName: middle.String,
			LastName:   last.String,
			BirthYear:  int(birthYear.Int64),
		}
		if birthDate.Valid {
			t := birthDate.Time
			o.DateOfBirth = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// parseOffenders decodes the aggregated offenders column. The payload comes
// from a registry we do not control, so malformed entries are skipped rather
// than failing the whole fetch.
func parseOffenders(payload []byte) []models.Offender {
	if len(payload) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}
	var out []models.Offender
	for _, entry := range raw {
		var item map[string]any
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		o := models.Offender{
			FirstName:   stringField(item, "first_name"),
			MiddleName:  stringField(item, "middle_name"),
			LastName:    stringField(item, "last_name"),
			DateOfBirth: dateField(item, "birth_date"),
			BirthYear:   yearField(item, "birth_year"),
		}
		out = append(out, o)
	}
	return out
}

func stringField(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return s
}

func dateField(item map[string]any, key string) *time.Time {
	s, ok := item[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func yearField(item map[string]any, key string) int {
	switch v := item[key].(type) {
	case float64:
		return int(v)
	case string:
		var year int
		if _, err := fmt.Sscanf(v, "%d", &year); err == nil {
			return year
		}
	}
	return 0
}
