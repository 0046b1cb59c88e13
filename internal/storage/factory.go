// Package storage selects and constructs the configured storage backend.
package storage

import (
	"fmt"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
	"github.com/sanjaydutta/fintra/internal/storage/badger"
	"github.com/sanjaydutta/fintra/internal/storage/memory"
	"github.com/sanjaydutta/fintra/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendBadger    = "badger"
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// NewStorageManager creates a storage manager based on the configuration.
// Supported backends: "badger" (default), "surrealdb", and "memory" for
// throwaway development instances.
func NewStorageManager(logger *common.Logger, cfg *common.Config) (interfaces.StorageManager, error) {
	backend := cfg.Storage.Backend
	if backend == "" {
		backend = BackendBadger
	}

	switch backend {
	case BackendBadger:
		return badger.NewManager(logger, cfg)

	case BackendSurrealDB:
		return surrealdb.NewManager(logger, cfg)

	case BackendMemory:
		logger.Warn().Msg("Using in-memory storage: all data is lost on shutdown")
		return memory.NewManager(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: badger, surrealdb, memory)", backend)
	}
}
