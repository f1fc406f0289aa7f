package reference

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists the reference directory in the application database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed reference store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the reference tables when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS units (
			short_name TEXT PRIMARY KEY,
			full_name  TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS subdivision_refs (
			id         BIGSERIAL PRIMARY KEY,
			code       TEXT UNIQUE,
			unit_name  TEXT NOT NULL REFERENCES units (short_name),
			short_name TEXT NOT NULL,
			full_name  TEXT NOT NULL UNIQUE,
			aliases    JSONB NOT NULL DEFAULT '[]'
		);
		CREATE TABLE IF NOT EXISTS event_types (
			name     TEXT PRIMARY KEY,
			patterns JSONB NOT NULL DEFAULT '[]'
		);`)
	if err != nil {
		return fmt.Errorf("migrate reference tables: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Subdivision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(code, ''), unit_name, short_name, full_name, aliases
		FROM subdivision_refs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subdivisions: %w", err)
	}
	defer rows.Close()

	var out []Subdivision
	for rows.Next() {
		var sub Subdivision
		var aliases []byte
		if err := rows.Scan(&sub.Code, &sub.UnitName, &sub.ShortName, &sub.FullName, &aliases); err != nil {
			return nil, fmt.Errorf("scan subdivision: %w", err)
		}
		if err := json.Unmarshal(aliases, &sub.Aliases); err != nil {
			return nil, fmt.Errorf("decode subdivision aliases: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListEventTypes(ctx context.Context) ([]EventType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, patterns FROM event_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	var out []EventType
	for rows.Next() {
		var et EventType
		var patterns []byte
		if err := rows.Scan(&et.Name, &patterns); err != nil {
			return nil, fmt.Errorf("scan event type: %w", err)
		}
		if err := json.Unmarshal(patterns, &et.Patterns); err != nil {
			return nil, fmt.Errorf("decode event type patterns: %w", err)
		}
		out = append(out, et)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertUnit(ctx context.Context, unit Unit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (short_name, full_name) VALUES ($1, $2)
		ON CONFLICT (short_name) DO UPDATE SET full_name = EXCLUDED.full_name`,
		unit.ShortName, unit.FullName)
	if err != nil {
		return fmt.Errorf("upsert unit: %w", err)
	}
	return nil
}

// UpsertSubdivision matches by code when present, else by full name, and
// reports whether a new row was created.
func (s *PostgresStore) UpsertSubdivision(ctx context.Context, sub Subdivision) (bool, error) {
	aliases, err := json.Marshal(sub.Aliases)
	if err != nil {
		return false, fmt.Errorf("encode subdivision aliases: %w", err)
	}

	var query string
	if sub.Code != "" {
		query = `
			INSERT INTO subdivision_refs (code, unit_name, short_name, full_name, aliases)
			VALUES (NULLIF($1, ''), $2, $3, $4, $5)
			ON CONFLICT (code) DO UPDATE
				SET unit_name = EXCLUDED.unit_name,
				    short_name = EXCLUDED.short_name,
				    full_name = EXCLUDED.full_name,
				    aliases = EXCLUDED.aliases
			RETURNING (xmax = 0)`
	} else {
		query = `
			INSERT INTO subdivision_refs (code, unit_name, short_name, full_name, aliases)
			VALUES (NULLIF($1, ''), $2, $3, $4, $5)
			ON CONFLICT (full_name) DO UPDATE
				SET unit_name = EXCLUDED.unit_name,
				    short_name = EXCLUDED.short_name,
				    aliases = EXCLUDED.aliases
			RETURNING (xmax = 0)`
	}

	var created bool
	err = s.db.QueryRowContext(ctx, query,
		sub.Code, sub.UnitName, sub.ShortName, sub.FullName, aliases,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert subdivision: %w", err)
	}
	return created, nil
}
