package tmux

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultSessionPrefix namespaces the tmux sessions backing terminal panes.
const DefaultSessionPrefix = "workdeck_"

// DefaultReleaseTimeout bounds a single kill-session call.
const DefaultReleaseTimeout = 5 * time.Second

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Releaser terminates the tmux session behind a terminal pane.
type Releaser struct {
	Prefix  string
	Timeout time.Duration
	Binary  string
	run     Runner
}

// NewReleaser returns a Releaser using the tmux binary on PATH.
func NewReleaser(prefix string, timeout time.Duration) *Releaser {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	if timeout <= 0 {
		timeout = DefaultReleaseTimeout
	}
	return &Releaser{Prefix: prefix, Timeout: timeout, Binary: "tmux", run: execRunner}
}

// WithRunner replaces command execution, for tests.
func (r *Releaser) WithRunner(run Runner) *Releaser {
	r.run = run
	return r
}

// SessionName returns the tmux session name of a pane.
func (r *Releaser) SessionName(paneID string) string {
	return r.Prefix + paneID
}

// Release kills the pane's session. A session or server that is already
// gone counts as released.
func (r *Releaser) Release(ctx context.Context, paneID string) error {
	if paneID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	// "=" makes tmux match the name exactly instead of by prefix.
	out, err := r.run(ctx, r.Binary, "kill-session", "-t", "="+r.SessionName(paneID))
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(string(out))
	if isGoneMessage(msg) {
		return nil
	}
	if msg != "" {
		return fmt.Errorf("kill tmux session %s: %w: %s", r.SessionName(paneID), err, msg)
	}
	return fmt.Errorf("kill tmux session %s: %w", r.SessionName(paneID), err)
}

func isGoneMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, s := range []string{"can't find session", "session not found", "no server running", "error connecting to"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
