// Package surrealdb implements the storage interfaces over a SurrealDB
// server. Suited to multi-instance deployments where the embedded Badger
// backend cannot be shared.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	internalStore *InternalStore
	dataStore     *DataStore
}

// NewManager connects to SurrealDB and prepares the stores.
func NewManager(logger *common.Logger, cfg *common.Config) (*Manager, error) {
	ctx := context.Background()
	sc := cfg.Storage.SurrealDB

	db, err := surrealdb.New(sc.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": sc.Username,
		"pass": sc.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, sc.Namespace, sc.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// Define tables to ensure they exist (SurrealDB v3 errors on querying
	// non-existent tables)
	tables := []string{"user", "user_kv", "system_kv", "user_data"}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	m := &Manager{
		db:     db,
		logger: logger,
	}
	m.internalStore = NewInternalStore(db, logger)
	m.dataStore = NewDataStore(db, logger)

	logger.Info().
		Str("address", sc.Address).
		Str("namespace", sc.Namespace).
		Str("database", sc.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func (m *Manager) InternalStore() interfaces.InternalStore {
	return m.internalStore
}

func (m *Manager) DataStore() interfaces.DataStore {
	return m.dataStore
}

func (m *Manager) Close() error {
	if m.db != nil {
		m.db.Close(context.Background())
	}
	return nil
}

// isNotFoundError reports whether a SurrealDB error is a missing-record
// condition rather than a transport or query failure.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no record")
}

var _ interfaces.StorageManager = (*Manager)(nil)
