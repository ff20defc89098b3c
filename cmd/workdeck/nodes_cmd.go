package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asheshgoplani/workdeck/internal/config"
	"github.com/asheshgoplani/workdeck/internal/nodes"
)

// handleNodes manages nodes.yaml.
func handleNodes(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("nodes", flag.ExitOnError)
	name := fs.String("name", "", "Display name (add)")
	path := fs.String("path", "", "Project directory (add)")
	fs.Usage = func() {
		fmt.Println("Usage: workdeck nodes [list|add <id>|remove <id>] [options]")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  workdeck nodes add api --path ~/src/api --name \"API\"")
		fmt.Println("  workdeck nodes remove api")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	registry := nodes.NewRegistry(cfg.Dir)
	switch fs.Arg(0) {
	case "", "list":
		list, err := registry.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(list) == 0 {
			fmt.Printf("No nodes registered in %s.\n", registry.FilePath())
			return
		}
		for _, n := range list {
			fmt.Printf("%-20s %-20s %s\n", n.ID, n.DisplayName(), n.Path)
		}
	case "add":
		id := fs.Arg(1)
		if id == "" {
			fs.Usage()
			os.Exit(1)
		}
		dir := *path
		if strings.HasPrefix(dir, "~/") {
			dir = cfg.Resolve(dir)
		} else if dir != "" {
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
		}
		if err := registry.Put(nodes.Node{ID: id, Name: *name, Path: dir}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registered node %s\n", id)
	case "remove":
		id := fs.Arg(1)
		if id == "" {
			fs.Usage()
			os.Exit(1)
		}
		if _, found, err := registry.Get(id); err == nil && !found {
			fmt.Fprintf(os.Stderr, "Error: node %q is not registered.", id)
			if ids, err := registry.IDs(); err == nil {
				if s, ok := nodes.Suggest(id, ids); ok {
					fmt.Fprintf(os.Stderr, " Did you mean %q?", s)
				}
			}
			fmt.Fprintln(os.Stderr)
			os.Exit(1)
		}
		if err := registry.Remove(id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed node %s\n", id)
	default:
		fs.Usage()
		os.Exit(1)
	}
}
