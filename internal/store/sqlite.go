package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/devaloi/huddle/internal/domain"
)

// SQLiteStore implements MeetingStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database that lives as long as the process.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS meetings (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL
		);
	`)
	return err
}

// CreateMeeting inserts a meeting record unless its id is already present.
func (s *SQLiteStore) CreateMeeting(ctx context.Context, m domain.Meeting) error {
	ts := m.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO meetings (id, created_at) VALUES (?, ?)",
		m.ID, ts,
	)
	if err != nil {
		return fmt.Errorf("insert meeting %s: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert meeting %s: %w", m.ID, err)
	}
	if n == 0 {
		return ErrDuplicateMeeting
	}
	return nil
}

// Meeting returns the meeting record with the given id.
func (s *SQLiteStore) Meeting(ctx context.Context, id string) (domain.Meeting, error) {
	var m domain.Meeting
	err := s.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM meetings WHERE id = ?", id,
	).Scan(&m.ID, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Meeting{}, ErrNotFound
	}
	if err != nil {
		return domain.Meeting{}, fmt.Errorf("select meeting %s: %w", id, err)
	}
	return m, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
