package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/workdeck/internal/config"
)

// handleConfig prints the effective configuration or writes it out.
func handleConfig(cfg *config.Config, path string, args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Println("Usage: workdeck config [show|init]")
		fmt.Println()
		fmt.Println("  show   Print the effective configuration (default)")
		fmt.Println("  init   Write the effective configuration to config.toml")
	}
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}

	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		path = p
	}

	switch fs.Arg(0) {
	case "", "show":
		fmt.Printf("# %s\n", path)
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Save(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	default:
		fs.Usage()
		os.Exit(1)
	}
}
