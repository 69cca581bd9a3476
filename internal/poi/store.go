// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package poi persists the park's point-of-interest catalog and the visit
// events recorded when the user enters or leaves a geofence.
package poi

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wneessen/parktrack/internal/geo"
	"github.com/wneessen/parktrack/internal/geofence"
)

const schema = `
CREATE TABLE IF NOT EXISTS points (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	lon        REAL NOT NULL,
	lat        REAL NOT NULL,
	properties TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS visits (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	point_id   TEXT NOT NULL,
	entered    INTEGER NOT NULL,
	distance   REAL NOT NULL,
	visited_at TIMESTAMP NOT NULL,
	FOREIGN KEY (point_id) REFERENCES points (id)
);
CREATE INDEX IF NOT EXISTS idx_visits_session ON visits (session_id);
`

// Store is a sqlite-backed point-of-interest catalog and visit log.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the store at the given path and ensures
// the schema exists. SQLite supports a single writer; the connection pool is
// capped accordingly.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal=WAL&_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Points loads the full point-of-interest catalog in insertion order.
func (s *Store) Points(ctx context.Context) ([]geofence.PointOfInterest, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, lon, lat, properties FROM points ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []geofence.PointOfInterest
	for rows.Next() {
		var p geofence.PointOfInterest
		var properties string
		if err = rows.Scan(&p.ID, &p.Title, &p.Coordinate.Lon, &p.Coordinate.Lat, &properties); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		if err = json.Unmarshal([]byte(properties), &p.Properties); err != nil {
			return nil, fmt.Errorf("failed to decode point properties: %w", err)
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate points: %w", err)
	}
	return points, nil
}

// UpsertPoint inserts or replaces a point of interest.
func (s *Store) UpsertPoint(ctx context.Context, p geofence.PointOfInterest) error {
	if !p.Coordinate.Valid() {
		return fmt.Errorf("invalid coordinate for point %q", p.ID)
	}
	properties := p.Properties
	if properties == nil {
		properties = map[string]string{}
	}
	encoded, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("failed to encode point properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO points (id, title, lon, lat, properties) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET title = excluded.title, lon = excluded.lon,
			lat = excluded.lat, properties = excluded.properties`,
		p.ID, p.Title, p.Coordinate.Lon, p.Coordinate.Lat, string(encoded))
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Visit is a single recorded geofence transition.
type Visit struct {
	ID        string
	SessionID string
	PointID   string
	Entered   bool
	Distance  float64
	VisitedAt time.Time
}

// RecordVisit persists a geofence transition. It satisfies the tracking
// controller's visit recorder interface.
func (s *Store) RecordVisit(ctx context.Context, sessionID string, entry geofence.Entry,
	entered bool, at time.Time,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visits (id, session_id, point_id, entered, distance, visited_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, entry.ID, entered, geo.Truncate(entry.Distance, 2), at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

// Visits returns all visit events of a tracking session, oldest first.
func (s *Store) Visits(ctx context.Context, sessionID string) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, point_id, entered, distance, visited_at
		FROM visits WHERE session_id = ? ORDER BY visited_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err = rows.Scan(&v.ID, &v.SessionID, &v.PointID, &v.Entered, &v.Distance, &v.VisitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return visits, nil
}
