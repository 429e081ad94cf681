package repository

import (
	"context"
	"fmt"

	"github.com/cureworks/pandemic-server-go/internal/config"
	"github.com/cureworks/pandemic-server-go/internal/game"
	"go.uber.org/zap"
)

// Store is a game.Store that can enumerate and release its games.
type Store interface {
	game.Store
	List(ctx context.Context) ([]string, error)
	Close()
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// New opens the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		if logger != nil {
			logger.Info("using in-memory game store")
		}
		return NewMemoryStore(), nil
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
