// Package postgres is the server medium: the record store snapshot kept in a
// JSONB state table.
package postgres

import (
	"context"
	"corpgraph/internal/infra/persistence/memory"
	"corpgraph/internal/infra/persistence/sqlstate"
	"corpgraph/pkg/domain"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultDSN is used when NewStore receives an empty DSN.
const DefaultDSN = "postgres://localhost/corpgraph?sslmode=disable"

var dialect = sqlstate.Dialect{
	Op:     "postgres",
	Schema: `CREATE TABLE IF NOT EXISTS state (bucket TEXT PRIMARY KEY, payload JSONB NOT NULL)`,
	Upsert: `INSERT INTO state(bucket, payload) VALUES($1, $2) ON CONFLICT(bucket) DO UPDATE SET payload = EXCLUDED.payload`,
}

var (
	openMu  sync.Mutex
	sqlOpen = sql.Open
)

// Store is a memory store snapshotted into Postgres after every commit.
type Store struct {
	*sqlstate.Medium
}

// NewStore connects with dsn (DefaultDSN when empty), verifies the server is
// reachable and loads any stored snapshot.
func NewStore(ctx context.Context, dsn string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	open := sqlOpen
	openMu.Unlock()
	db, err := open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	medium, err := sqlstate.Open(ctx, db, dialect, engine, opts...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return &Store{Medium: medium}, nil
}

// OverrideSQLOpen replaces the sql.Open used by NewStore and returns a restore func.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
