package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// Manager owns the Badger-backed key/value store used for API keys and
// other runtime secrets/variables.
type Manager struct {
	db     *BadgerDB
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewManager opens the Badger database at dir and wires the key/value
// store on top of it.
func NewManager(logger arbor.ILogger, dir string) (*Manager, error) {
	db, err := NewBadgerDB(logger, dir)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		db:     db,
		kv:     NewKVStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("badger key/value store initialized")
	return m, nil
}

// KeyValueStorage returns the key/value storage interface.
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
