package core

import (
	"context"
	"corpgraph/internal/blob"
	"corpgraph/internal/infra/persistence/blobstate"
	"corpgraph/internal/infra/persistence/memory"
	"corpgraph/internal/infra/persistence/postgres"
	"corpgraph/internal/infra/persistence/sqlite"
	"fmt"

	"go.uber.org/zap"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file (default)
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // JSON snapshot in a blob store
)

// StorageConfig selects and configures the backing medium.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	BlobKey     string
}

// OpenPersistentStore opens the medium named by cfg.Driver (sqlite when
// empty). When the medium cannot be opened or its contents cannot be loaded
// the failure is logged and an empty in-memory store is returned instead.
// Only an unknown driver is reported as an error.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine, logger *zap.Logger, opts ...memory.Option) (PersistentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	var (
		store PersistentStore
		err   error
	)
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine, opts...), nil
	case StorageSQLite:
		store, err = sqlite.NewStore(cfg.SQLitePath, engine, opts...)
	case StoragePostgres:
		store, err = postgres.NewStore(ctx, cfg.PostgresDSN, engine, opts...)
	case StorageBlob:
		store, err = openBlobState(ctx, cfg, engine, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
	if err != nil {
		logger.Error("storage unavailable, continuing with an empty in-memory store",
			zap.String("driver", string(driver)),
			zap.Error(err),
		)
		return memory.NewStore(engine, opts...), nil
	}
	logger.Debug("storage opened", zap.String("driver", string(driver)))
	return store, nil
}

func openBlobState(ctx context.Context, cfg StorageConfig, engine *RulesEngine, opts ...memory.Option) (PersistentStore, error) {
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}
	return blobstate.NewStore(ctx, blobs, cfg.BlobKey, engine, opts...)
}
