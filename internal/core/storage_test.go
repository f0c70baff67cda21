package core

import (
	"context"
	"corpgraph/internal/blob"
	"corpgraph/internal/infra/persistence/blobstate"
	"corpgraph/internal/infra/persistence/memory"
	"corpgraph/internal/infra/persistence/postgres"
	"corpgraph/internal/infra/persistence/sqlite"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenPersistentStoreDrivers(t *testing.T) {
	ctx := context.Background()
	engine := NewDefaultRulesEngine(nil)

	mem, err := OpenPersistentStore(ctx, StorageConfig{Driver: StorageMemory}, engine, nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", mem)
	}

	path := filepath.Join(t.TempDir(), "corpgraph.db")
	lite, err := OpenPersistentStore(ctx, StorageConfig{SQLitePath: path}, engine, nil)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { _ = lite.Close() })
	if _, ok := lite.(*sqlite.Store); !ok {
		t.Fatalf("expected sqlite store by default, got %T", lite)
	}

	blobCfg := StorageConfig{Driver: StorageBlob, Blob: blob.Config{Driver: blob.DriverFilesystem, FSRoot: t.TempDir()}, BlobKey: "state.json"}
	bs, err := OpenPersistentStore(ctx, blobCfg, engine, nil)
	if err != nil {
		t.Fatalf("blob: %v", err)
	}
	if b, ok := bs.(*blobstate.Store); !ok || b.Key() != "state.json" {
		t.Fatalf("expected blob state store, got %T", bs)
	}

	if _, err := OpenPersistentStore(ctx, StorageConfig{Driver: "mongo"}, engine, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenPersistentStoreFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(obsCore)

	restore := postgres.OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("refused") })
	defer restore()
	store, err := OpenPersistentStore(ctx, StorageConfig{Driver: StoragePostgres}, nil, logger)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory fallback, got %T", store)
	}
	if logs.FilterMessage("storage unavailable, continuing with an empty in-memory store").Len() != 1 {
		t.Fatalf("expected fallback to be logged, got %v", logs.All())
	}

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "state.json"), []byte("{corrupt"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "state.json.meta"), []byte(`{"etag":"x","size":8}`), 0o600); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	cfg := StorageConfig{Driver: StorageBlob, Blob: blob.Config{FSRoot: root}, BlobKey: "state.json"}
	store, err = OpenPersistentStore(ctx, cfg, nil, logger)
	if err != nil {
		t.Fatalf("corrupt snapshot fallback: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory fallback for corrupt snapshot, got %T", store)
	}
}
