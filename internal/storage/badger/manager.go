package badger

import (
	"fmt"

	"github.com/sanjaydutta/fintra/internal/common"
	"github.com/sanjaydutta/fintra/internal/interfaces"
)

// Manager implements interfaces.StorageManager over two BadgerHold databases:
// one for user accounts and config, one for domain records.
type Manager struct {
	internal *InternalStore
	data     *DataStore
	logger   *common.Logger
}

// NewManager opens both databases from the configured paths.
func NewManager(logger *common.Logger, cfg *common.Config) (*Manager, error) {
	internalStore, err := NewInternalStore(logger, cfg.Storage.Badger.InternalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create internal store: %w", err)
	}

	dataStore, err := NewDataStore(logger, cfg.Storage.Badger.DataPath)
	if err != nil {
		internalStore.Close()
		return nil, fmt.Errorf("failed to create data store: %w", err)
	}

	logger.Info().
		Str("internal", cfg.Storage.Badger.InternalPath).
		Str("data", cfg.Storage.Badger.DataPath).
		Msg("Badger storage manager initialized")

	return &Manager{
		internal: internalStore,
		data:     dataStore,
		logger:   logger,
	}, nil
}

func (m *Manager) InternalStore() interfaces.InternalStore {
	return m.internal
}

func (m *Manager) DataStore() interfaces.DataStore {
	return m.data
}

// Close shuts down both databases.
func (m *Manager) Close() error {
	var firstErr error
	if err := m.internal.Close(); err != nil {
		firstErr = err
	}
	if err := m.data.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

var _ interfaces.StorageManager = (*Manager)(nil)
