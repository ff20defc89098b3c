package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/asheshgoplani/workdeck/internal/config"
	"github.com/asheshgoplani/workdeck/internal/nodes"
	"github.com/asheshgoplani/workdeck/internal/persist"
)

// handleMigrate loads the saved state, which upgrades and backs it up when
// it is older than the current format, and writes it back sanitized.
func handleMigrate(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Println("Usage: workdeck migrate")
		fmt.Println()
		fmt.Printf("Upgrade saved state to format version %d and drop dangling references.\n", persist.CurrentVersion)
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	res, err := migrateState(context.Background(), backend, nodes.NewRegistry(cfg.Dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if res.Empty {
		fmt.Println("No saved state, nothing to migrate.")
		return
	}
	if res.Migrated {
		fmt.Printf("Migrated state from version %d to %d.\n", res.FromVersion, persist.CurrentVersion)
	} else {
		fmt.Printf("State already at version %d; rewritten.\n", res.FromVersion)
	}
	fmt.Printf("%d tabs, %d panes.\n", res.State.TabCount(), res.State.PaneCount())
}

// migrateState loads and rewrites the saved state. State written by a newer
// release is left untouched.
func migrateState(ctx context.Context, b persist.Backend, registry *nodes.Registry) (persist.LoadResult, error) {
	res, err := loadState(ctx, b, registry)
	if err != nil {
		return res, err
	}
	if res.Newer {
		return res, fmt.Errorf("saved state is version %d, this build understands up to %d: %w",
			res.FromVersion, persist.CurrentVersion, persist.ErrNewerVersion)
	}
	if res.Empty {
		return res, nil
	}
	if err := persist.Save(ctx, b, res.State); err != nil {
		return res, err
	}
	return res, nil
}
