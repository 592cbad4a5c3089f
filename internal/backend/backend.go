// Package backend selects and constructs the user-state store from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"perks/internal/config"
	"perks/internal/storage"
	"perks/internal/userstate"
)

// Type identifies a user-state store implementation.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) String() string { return string(t) }

func (t Type) Valid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// Open constructs the store named by the configuration.
func Open(cfg *config.Config, logger *slog.Logger) (userstate.Store, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	if !t.Valid() {
		return nil, nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
		return store, store.Close, nil
	default:
		store, err := userstate.NewMemoryStore(cfg.StatePath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize memory store: %w", err)
		}
		logger.Info("Initialized memory backend", "path", cfg.StatePath)
		return store, store.Close, nil
	}
}
