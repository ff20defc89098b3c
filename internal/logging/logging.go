// Package logging points the standard logger at a size-rotated file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Echo also writes to stderr.
	Echo bool
}

// Setup routes the standard logger to a rotated file and returns the
// closer for it. With an empty File the logger writes to stderr only.
func Setup(opts Options) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	var out io.Writer = rotator
	if opts.Echo {
		out = io.MultiWriter(rotator, os.Stderr)
	}
	log.SetOutput(out)
	return rotator, nil
}
