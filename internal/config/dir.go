package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvDir overrides the data directory.
const EnvDir = "WORKDECK_DIR"

// Dir returns the workdeck data directory (~/.workdeck unless WORKDECK_DIR
// is set).
func Dir() (string, error) {
	if d := os.Getenv(EnvDir); d != "" {
		return d, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".workdeck"), nil
}

// DefaultPath returns the config file path inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
