// Package sqlite is the default embedded medium: a single SQLite file holding
// the record store snapshot.
package sqlite

import (
	"context"
	"corpgraph/internal/infra/persistence/memory"
	"corpgraph/internal/infra/persistence/sqlstate"
	"corpgraph/pkg/domain"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when NewStore receives an empty path.
const DefaultPath = "corpgraph.db"

var dialect = sqlstate.Dialect{
	Op:     "sqlite",
	Schema: `CREATE TABLE IF NOT EXISTS state (bucket TEXT PRIMARY KEY, payload BLOB NOT NULL)`,
	Upsert: `INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
}

// Store is a memory store snapshotted into SQLite after every commit.
type Store struct {
	*sqlstate.Medium
	path string
}

// NewStore opens (or creates) the SQLite file at path and loads any snapshot it holds.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	medium, err := sqlstate.Open(context.Background(), db, dialect, engine, opts...)
	if err != nil {
		return nil, fmt.Errorf("sqlite %s: %w", path, err)
	}
	return &Store{Medium: medium, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }
