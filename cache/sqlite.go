package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS responses (
	fingerprint TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	created_at  INTEGER NOT NULL
)`

// SQLite stores responses in a single-table database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "abilityc-cache.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open sqlite %s: %w", path, err)
	}
	// One writer at a time; the batch command shares the store across workers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM responses WHERE fingerprint = ?`, fingerprint).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: sqlite get: %w", err)
	}
	return text, true, nil
}

func (s *SQLite) Put(ctx context.Context, fingerprint, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses (fingerprint, text, created_at) VALUES (?, ?, ?)`,
		fingerprint, text, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cache: sqlite put: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
