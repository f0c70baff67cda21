// Package sqlstate keeps a memory.Store durable in a database/sql table named
// state, one row per snapshot bucket. The sqlite and postgres media supply the
// dialect; everything else is shared.
package sqlstate

import (
	"context"
	"corpgraph/internal/infra/persistence/memory"
	"corpgraph/pkg/domain"
	"database/sql"
	"fmt"
	"sync"
)

// Dialect holds the statements a driver needs for the state table.
type Dialect struct {
	// Op labels persistence errors raised by this medium.
	Op     string
	Schema string
	// Upsert takes (bucket, payload) and replaces an existing row.
	Upsert string
}

// Medium embeds the in-memory store and writes a full snapshot to db after
// every committed transaction.
type Medium struct {
	*memory.Store
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

// Open creates the state table if needed and hydrates a memory store from it.
// db is closed when Open fails.
func Open(ctx context.Context, db *sql.DB, dialect Dialect, engine *domain.RulesEngine, opts ...memory.Option) (*Medium, error) {
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	rows, err := readBuckets(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, err := memory.DecodeBuckets(rows)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore(engine, opts...)
	mem.ImportState(snapshot)
	return &Medium{Store: mem, db: db, dialect: dialect}, nil
}

// RunInTransaction commits fn in memory and then persists the new state. A
// persist failure is returned as a *domain.PersistenceError; the in-memory
// commit stands.
func (m *Medium) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := m.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	return res, m.Persist(ctx)
}

// Persist writes every bucket inside one database transaction.
func (m *Medium) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.NewPersistenceError(m.dialect.Op, m.write(ctx, m.ExportState()))
}

// Close releases the database handle.
func (m *Medium) Close() error { return m.db.Close() }

// DB exposes the underlying handle.
func (m *Medium) DB() *sql.DB { return m.db }

func (m *Medium) write(ctx context.Context, snapshot memory.Snapshot) (err error) {
	payloads, err := memory.EncodeBuckets(snapshot)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range memory.Buckets {
		if _, err = tx.ExecContext(ctx, m.dialect.Upsert, bucket, payloads[bucket]); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func readBuckets(ctx context.Context, db *sql.DB) (map[string][]byte, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	return out, nil
}
