// Package storage provides SQLite trip storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SqliteTripStore implements TripStore using SQLite.
type SqliteTripStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteTripStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	return newSqliteTripStore(db)
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteTripStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	return newSqliteTripStore(db)
}

func newSqliteTripStore(db *sql.DB) (*SqliteTripStore, error) {
	store := &SqliteTripStore{db: db, now: time.Now}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SqliteTripStore) Close() error {
	return s.db.Close()
}

func (s *SqliteTripStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS trips (
			user_id TEXT NOT NULL,
			trip_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			trip_name TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (user_id, trip_id)
		);

		CREATE INDEX IF NOT EXISTS idx_trips_user_created
		ON trips(user_id, created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores a trip and returns its id.
func (s *SqliteTripStore) Save(ctx context.Context, userID string, data TripData) (string, error) {
	b, err := encodeTrip(data)
	if err != nil {
		return "", err
	}
	userID = SanitizeUserID(userID)

	for attempt := 0; attempt < 3; attempt++ {
		id := newTripID()
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO trips (user_id, trip_id, created_at, trip_name, data) VALUES (?, ?, ?, ?, ?)",
			userID, id, s.now().UnixNano(), data.TripName, string(b))
		if err == nil {
			return id, nil
		}
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			continue
		}
		return "", fmt.Errorf("failed to insert trip: %w", err)
	}
	return "", ErrIDExhausted
}

// Load returns a trip, or nil when it does not exist.
func (s *SqliteTripStore) Load(ctx context.Context, userID, tripID string) (*TripRecord, error) {
	userID = SanitizeUserID(userID)

	var createdAt int64
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at, data FROM trips WHERE user_id = ? AND trip_id = ?",
		userID, tripID).Scan(&createdAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trip: %w", err)
	}

	rec := TripRecord{
		TripID:    tripID,
		UserID:    userID,
		CreatedAt: time.Unix(0, createdAt),
	}
	if err := json.Unmarshal([]byte(raw), &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to decode trip %s: %w", tripID, err)
	}
	return &rec, nil
}

// List returns summaries newest first.
func (s *SqliteTripStore) List(ctx context.Context, userID string) ([]TripSummary, error) {
	userID = SanitizeUserID(userID)

	rows, err := s.db.QueryContext(ctx,
		"SELECT trip_id, created_at, data FROM trips WHERE user_id = ? ORDER BY created_at DESC LIMIT ?",
		userID, MaxListed)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	summaries := []TripSummary{}
	for rows.Next() {
		var rec TripRecord
		var createdAt int64
		var raw string
		if err := rows.Scan(&rec.TripID, &createdAt, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &rec.Data); err != nil {
			return nil, fmt.Errorf("failed to decode trip %s: %w", rec.TripID, err)
		}
		rec.CreatedAt = time.Unix(0, createdAt)
		summaries = append(summaries, summarize(rec))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}

	return summaries, nil
}

// Delete removes a trip.
func (s *SqliteTripStore) Delete(ctx context.Context, userID, tripID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM trips WHERE user_id = ? AND trip_id = ?",
		SanitizeUserID(userID), tripID)
	if err != nil {
		return false, fmt.Errorf("failed to delete trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

// Verify SqliteTripStore implements TripStore
var _ TripStore = (*SqliteTripStore)(nil)
