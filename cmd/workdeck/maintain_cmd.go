package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/asheshgoplani/workdeck/internal/config"
	"github.com/asheshgoplani/workdeck/internal/persist"
)

// handleMaintain runs one maintenance pass, or lists backups.
func handleMaintain(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("maintain", flag.ExitOnError)
	keep := fs.Int("keep", cfg.Maintenance.KeepBackups, "Number of backups to keep")
	list := fs.Bool("list", false, "List backups instead of creating one (file storage only)")
	fs.Usage = func() {
		fmt.Println("Usage: workdeck maintain [options]")
		fmt.Println()
		fmt.Println("Back up the saved state and prune old backups.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
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

	if *list {
		fb, ok := backend.(*persist.FileBackend)
		if !ok {
			fmt.Fprintln(os.Stderr, "Error: backups can only be listed with file storage")
			os.Exit(1)
		}
		names, err := fb.Backups()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(names) == 0 {
			fmt.Println("No backups.")
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	res, err := persist.Maintenance(context.Background(), backend, *keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if res.Backup == "" {
		fmt.Println("Nothing to back up.")
	} else {
		fmt.Printf("Backup: %s\n", res.Backup)
	}
	fmt.Printf("Pruned %d backups in %v.\n", res.PrunedBackups, res.Duration.Round(time.Millisecond))
}
