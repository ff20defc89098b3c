package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/asheshgoplani/workdeck/internal/config"
)

// Version is set at build time.
var Version = "dev"

func main() {
	args := os.Args[1:]
	configPath, args := extractConfigFlag(args)

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "--version":
		fmt.Printf("workdeck %s\n", Version)
		return
	}

	cfg := loadConfig(configPath)

	switch args[0] {
	case "web":
		handleWeb(cfg, args[1:])
	case "inspect":
		handleInspect(cfg, args[1:])
	case "migrate":
		handleMigrate(cfg, args[1:])
	case "maintain":
		handleMaintain(cfg, args[1:])
	case "config":
		handleConfig(cfg, configPath, args[1:])
	case "nodes":
		handleNodes(cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: workdeck [-c config.toml] <command> [options]")
	fmt.Println()
	fmt.Println("Tab and pane layouts for your project nodes.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  web        Serve the workspace API and web UI")
	fmt.Println("  inspect    Print the saved workspace")
	fmt.Println("  migrate    Upgrade saved state to the current format")
	fmt.Println("  maintain   Back up saved state and prune old backups")
	fmt.Println("  config     Show or initialize config.toml")
	fmt.Println("  nodes      List, add or remove registered nodes")
	fmt.Println("  version    Print the version")
	fmt.Println()
	fmt.Printf("Data directory: ~/.workdeck (override with %s)\n", config.EnvDir)
}

// extractConfigFlag pulls a leading -c/--config flag out of args.
func extractConfigFlag(args []string) (string, []string) {
	path := ""
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case len(rest) > 0:
			rest = append(rest, arg)
		case arg == "-c" || arg == "--config":
			if i+1 < len(args) {
				path = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "-c="):
			path = strings.TrimPrefix(arg, "-c=")
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(arg, "--config=")
		default:
			rest = append(rest, arg)
		}
	}
	return path, rest
}

// loadConfig reads the config file, falling back to defaults with a
// warning when it cannot be parsed.
func loadConfig(path string) *config.Config {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	return cfg
}

// normalizeArgs moves flags ahead of positional arguments so that
// "inspect mynode --json" parses like "inspect --json mynode".
func normalizeArgs(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return append(flags, positional...)
}
