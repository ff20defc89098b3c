package logging

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "workdeck.log")
	closer, err := Setup(Options{File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		_ = closer.Close()
	})

	log.Printf("[TEST] hello %d", 42)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[TEST] hello 42"))
}

func TestSetupWithoutFile(t *testing.T) {
	closer, err := Setup(Options{})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}
