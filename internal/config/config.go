package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the sections of config.toml workdeck reads.
type Config struct {
	Storage     StorageConfig     `toml:"storage"`
	Web         WebConfig         `toml:"web"`
	Tmux        TmuxConfig        `toml:"tmux"`
	Logging     LoggingConfig     `toml:"logging"`
	Maintenance MaintenanceConfig `toml:"maintenance"`

	// Dir is the data directory relative paths resolve against.
	Dir string `toml:"-"`
}

// StorageConfig selects where workspace state lives.
type StorageConfig struct {
	Backend    string `toml:"backend"` // "file" or "sqlite"
	StateDir   string `toml:"state_dir"`
	SQLitePath string `toml:"sqlite_path"`
}

// WebConfig configures the HTTP API.
type WebConfig struct {
	Listen   string `toml:"listen"`
	ReadOnly bool   `toml:"read_only"`
	Token    string `toml:"token"`
}

// TmuxConfig configures the terminal collaborator.
type TmuxConfig struct {
	SessionPrefix  string `toml:"session_prefix"`
	ReleaseTimeout string `toml:"release_timeout"`
	LogDir         string `toml:"log_dir"`
	WatchLogs      *bool  `toml:"watch_logs"`
}

// LoggingConfig configures the rotated log file.
type LoggingConfig struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   *bool  `toml:"compress"`
	Debug      bool   `toml:"debug"`
}

// MaintenanceConfig configures the backup worker.
type MaintenanceConfig struct {
	Enabled     *bool  `toml:"enabled"`
	Interval    string `toml:"interval"`
	KeepBackups int    `toml:"keep_backups"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	defaultListen         = "127.0.0.1:8420"
	defaultSessionPrefix  = "workdeck_"
	defaultReleaseTimeout = "5s"
	defaultInterval       = "15m"
	defaultKeepBackups    = 3
	defaultMaxSizeMB      = 10
	defaultMaxBackups     = 3
	defaultMaxAgeDays     = 28
)

func boolPtr(b bool) *bool { return &b }

// Default returns the configuration used when no file exists.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	return c
}

// Load reads the config file at path. A missing file yields defaults; an
// unparsable file also yields defaults, together with the parse error so
// the caller can warn. Invalid values fall back to their defaults.
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(dir), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(dir), fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Dir = dir
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
		// Valid
	default:
		c.Storage.Backend = BackendFile
	}
	if c.Storage.StateDir == "" {
		c.Storage.StateDir = "state"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = filepath.Join("state", "workdeck.sqlite")
	}

	if c.Web.Listen == "" {
		c.Web.Listen = defaultListen
	}

	if c.Tmux.SessionPrefix == "" {
		c.Tmux.SessionPrefix = defaultSessionPrefix
	}
	if _, err := time.ParseDuration(c.Tmux.ReleaseTimeout); err != nil {
		c.Tmux.ReleaseTimeout = defaultReleaseTimeout
	}
	if c.Tmux.LogDir == "" {
		c.Tmux.LogDir = filepath.Join("logs", "panes")
	}
	if c.Tmux.WatchLogs == nil {
		c.Tmux.WatchLogs = boolPtr(true)
	}

	if c.Logging.File == "" {
		c.Logging.File = "workdeck.log"
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultMaxSizeMB
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = defaultMaxBackups
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = defaultMaxAgeDays
	}
	if c.Logging.Compress == nil {
		c.Logging.Compress = boolPtr(true)
	}

	if c.Maintenance.Enabled == nil {
		c.Maintenance.Enabled = boolPtr(true)
	}
	if d, err := time.ParseDuration(c.Maintenance.Interval); err != nil || d < time.Minute {
		c.Maintenance.Interval = defaultInterval
	}
	if c.Maintenance.KeepBackups <= 0 {
		c.Maintenance.KeepBackups = defaultKeepBackups
	}
}

// Resolve makes p absolute against the data directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(c.Dir, p)
}

// ReleaseTimeout returns the parsed tmux release timeout.
func (c *Config) ReleaseTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Tmux.ReleaseTimeout)
	return d
}

// MaintenanceInterval returns the parsed maintenance interval.
func (c *Config) MaintenanceInterval() time.Duration {
	d, _ := time.ParseDuration(c.Maintenance.Interval)
	return d
}

// WatchLogs reports whether pane logs drive activity status.
func (c *Config) WatchLogs() bool { return c.Tmux.WatchLogs == nil || *c.Tmux.WatchLogs }

// MaintenanceEnabled reports whether the backup worker runs.
func (c *Config) MaintenanceEnabled() bool {
	return c.Maintenance.Enabled == nil || *c.Maintenance.Enabled
}

// CompressLogs reports whether rotated logs are gzipped.
func (c *Config) CompressLogs() bool { return c.Logging.Compress == nil || *c.Logging.Compress }

// Save writes the workdeck sections to path, preserving every other
// section already in the file.
func Save(path string, c *Config) error {
	existingData, _ := os.ReadFile(path)

	var existing map[string]interface{}
	if len(existingData) > 0 {
		if err := toml.Unmarshal(existingData, &existing); err != nil {
			existing = make(map[string]interface{})
		}
	} else {
		existing = make(map[string]interface{})
	}

	existing["storage"] = map[string]interface{}{
		"backend":     c.Storage.Backend,
		"state_dir":   c.Storage.StateDir,
		"sqlite_path": c.Storage.SQLitePath,
	}
	existing["web"] = map[string]interface{}{
		"listen":    c.Web.Listen,
		"read_only": c.Web.ReadOnly,
		"token":     c.Web.Token,
	}
	existing["tmux"] = map[string]interface{}{
		"session_prefix":  c.Tmux.SessionPrefix,
		"release_timeout": c.Tmux.ReleaseTimeout,
		"log_dir":         c.Tmux.LogDir,
		"watch_logs":      c.WatchLogs(),
	}
	existing["logging"] = map[string]interface{}{
		"file":         c.Logging.File,
		"max_size_mb":  c.Logging.MaxSizeMB,
		"max_backups":  c.Logging.MaxBackups,
		"max_age_days": c.Logging.MaxAgeDays,
		"compress":     c.CompressLogs(),
		"debug":        c.Logging.Debug,
	}
	existing["maintenance"] = map[string]interface{}{
		"enabled":      c.MaintenanceEnabled(),
		"interval":     c.Maintenance.Interval,
		"keep_backups": c.Maintenance.KeepBackups,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	if len(existingData) == 0 {
		buf.WriteString("# workdeck configuration\n\n")
	}
	if err := toml.NewEncoder(&buf).Encode(existing); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
