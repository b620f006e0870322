package progress

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// maxSamples caps the weight of history so predictions follow recent runs.
const maxSamples = 10

// Store is a Memory backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS predictions (
    key TEXT PRIMARY KEY,
    duration_ms INTEGER NOT NULL,
    samples INTEGER NOT NULL,
    updated_at TEXT NOT NULL
);`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Predict returns the running average duration recorded for key.
func (s *Store) Predict(key string) (time.Duration, bool, error) {
	var ms int64
	err := s.db.QueryRow("SELECT duration_ms FROM predictions WHERE key = ?", key).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return time.Duration(ms) * time.Millisecond, true, nil
}

// Record folds d into the average for key.
func (s *Store) Record(key string, d time.Duration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var avg, samples int64
	err = tx.QueryRow("SELECT duration_ms, samples FROM predictions WHERE key = ?", key).Scan(&avg, &samples)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	ms := d.Milliseconds()
	avg = (avg*samples + ms) / (samples + 1)
	samples = min(samples+1, maxSamples)

	_, err = tx.Exec(`
INSERT INTO predictions (key, duration_ms, samples, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET duration_ms = excluded.duration_ms, samples = excluded.samples, updated_at = excluded.updated_at`,
		key, avg, samples, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return tx.Commit()
}
