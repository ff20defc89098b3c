package main

import (
	"context"
	"fmt"

	"github.com/asheshgoplani/workdeck/internal/config"
	"github.com/asheshgoplani/workdeck/internal/nodes"
	"github.com/asheshgoplani/workdeck/internal/persist"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// openBackend opens the storage backend selected in the config.
func openBackend(cfg *config.Config) (persist.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		b, err := persist.OpenSQLiteBackend(cfg.Resolve(cfg.Storage.SQLitePath))
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		b, err := persist.NewFileBackend(cfg.Resolve(cfg.Storage.StateDir))
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// loadState loads saved state. Tabs of unregistered nodes are dropped
// only once at least one node is registered.
func loadState(ctx context.Context, b persist.Backend, registry *nodes.Registry) (persist.LoadResult, error) {
	var opts workspace.SanitizeOptions
	ids, err := registry.IDs()
	if err != nil {
		return persist.LoadResult{}, fmt.Errorf("load nodes: %w", err)
	}
	if len(ids) > 0 {
		opts.KnownNodes = ids
	}
	return persist.Load(ctx, b, opts)
}
