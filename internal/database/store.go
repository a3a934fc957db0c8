package database

import (
	"context"
	"fmt"

	"github.com/rickgao/stockwatch/internal/config"
	"github.com/rickgao/stockwatch/internal/writer"
)

// HistoryStore is a quote history backend.
type HistoryStore interface {
	writer.Store

	// History returns up to limit rows for a symbol key, newest first.
	History(ctx context.Context, symbolKey string, limit int) ([]writer.QuoteRow, error)

	Close() error
}

// Open connects the configured backend and ensures its schema. The "none"
// driver returns a nil store.
func Open(ctx context.Context, cfg config.DatabaseConfig) (HistoryStore, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		store, err := OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		pool, err := Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
