// Package backend builds the storage backend and the optional external
// adapters from configuration.
package backend

import (
	"context"
	"fmt"

	"classroom/internal/config"
	"classroom/internal/log"
	"classroom/internal/storage"
	"classroom/internal/storage/memory"
)

// Store is a KV backend the commands can health-check and close.
type Store interface {
	storage.KV
	Ping(ctx context.Context) error
	Close() error
}

// OpenStore opens the KV store named by cfg.DataBackend.
func OpenStore(cfg *config.Config, logger *log.Logger) (Store, error) {
	logger = logger.WithComponent(log.ComponentStorage)
	switch cfg.DataBackend {
	case config.BackendMemory:
		var kv *memory.KV
		if cfg.MemorySeedDir != "" {
			kv = memory.NewFromDir(cfg.MemorySeedDir)
		} else {
			kv = memory.New()
		}
		logger.Info("Initialized memory backend", "seed_dir", cfg.MemorySeedDir)
		return kv, nil
	case config.BackendSQLite, "":
		kv, err := storage.NewSQLiteKV(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store at %s: %w", cfg.SQLiteDBPath, err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return kv, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}
