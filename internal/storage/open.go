// ABOUTME: Factory that builds the configured Store backend.
// ABOUTME: Chooses memory, sqlite, postgres, or qdrant from config.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389-research/echonote/internal/config"
)

// Open builds the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	backend := cfg.StoreBackend()
	slog.Debug("opening vector store", "backend", backend)

	switch backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		path, err := cfg.GetSQLitePath()
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(ctx, path)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	case config.BackendQdrant:
		q := cfg.Store.Qdrant
		return NewQdrantStore(QdrantConfig{
			Host:   q.Host,
			Port:   q.Port,
			APIKey: q.APIKey,
			UseTLS: q.UseTLS,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
