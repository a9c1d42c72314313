// Package idx is the relational index backing the data model: rip jobs,
// video/subtitle files, catalog downloads, match verdicts, and the movie/TV
// catalog rows video files get tagged against. It is a pure-Go SQLite store
// (modernc.org/sqlite, no cgo), matching the on-disk "database.sqlite" file
// named in the external-interfaces layout.
package idx

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed relational index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database file under dataDir and
// applies any pending migrations.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "database.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
