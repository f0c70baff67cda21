// Package blobstate persists the record store as one JSON document inside a
// blob store, so any blob driver (filesystem, S3, memory) can act as the
// backing medium.
package blobstate

import (
	"bytes"
	"context"
	"corpgraph/internal/blob"
	"corpgraph/internal/infra/persistence/memory"
	"corpgraph/pkg/domain"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultKey names the snapshot object when NewStore receives an empty key.
const DefaultKey = "corpgraph/state.json"

const contentType = "application/json"

// Store snapshots the embedded memory store to a single blob after every
// successful transaction.
type Store struct {
	*memory.Store
	blobs blob.Store
	key   string
	mu    sync.Mutex
}

// NewStore hydrates from the snapshot at key. A missing object yields an empty store.
func NewStore(ctx context.Context, blobs blob.Store, key string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if key == "" {
		key = DefaultKey
	}
	s := &Store{Store: memory.NewStore(engine, opts...), blobs: blobs, key: key}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	_, rc, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", s.key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", s.key, err)
	}
	var snapshot memory.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.key, err)
	}
	s.ImportState(snapshot)
	return nil
}

// Persist replaces the snapshot object with the current state.
func (s *Store) Persist(ctx context.Context) error {
	return domain.NewPersistenceError("blob", s.persist(ctx))
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.ExportState())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	opts := blob.PutOptions{ContentType: contentType, Metadata: map[string]string{"format": "corpgraph-snapshot"}}
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// RunInTransaction applies fn and writes the snapshot when it commits.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.Persist(ctx); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// Key returns the snapshot object key.
func (s *Store) Key() string { return s.key }

