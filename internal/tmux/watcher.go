package tmux

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// eventsPerSecond caps activity callbacks per pane.
const eventsPerSecond = 20

// LogWatcher watches a directory of pane output logs (<paneID>.log, as
// written by tmux pipe-pane) and reports which pane produced output.
// Callbacks are rate limited per pane.
type LogWatcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	callback func(paneID string)

	mu       sync.Mutex
	limiters map[string]*RateLimiter

	done      chan struct{}
	closeOnce sync.Once
}

// NewLogWatcher starts watching dir. Events are delivered once Start runs.
func NewLogWatcher(dir string, callback func(paneID string)) (*LogWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create log watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch log directory %s: %w", dir, err)
	}
	return &LogWatcher{
		dir:      dir,
		watcher:  w,
		callback: callback,
		limiters: make(map[string]*RateLimiter),
		done:     make(chan struct{}),
	}, nil
}

// Start delivers events until Close is called.
func (lw *LogWatcher) Start() {
	for {
		select {
		case <-lw.done:
			return
		case ev, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			lw.handle(ev.Name)
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[TMUX] Log watcher error: %v", err)
		}
	}
}

func (lw *LogWatcher) handle(path string) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".log") {
		return
	}
	paneID := strings.TrimSuffix(base, ".log")
	if paneID == "" {
		return
	}

	lw.mu.Lock()
	rl, ok := lw.limiters[paneID]
	if !ok {
		rl = NewRateLimiter(eventsPerSecond)
		lw.limiters[paneID] = rl
	}
	lw.mu.Unlock()

	rl.Coalesce(func() { lw.callback(paneID) })
}

// Forget drops the rate limiter of a pane that no longer exists.
func (lw *LogWatcher) Forget(paneID string) {
	lw.mu.Lock()
	delete(lw.limiters, paneID)
	lw.mu.Unlock()
}

// Close stops Start and releases the underlying watcher.
func (lw *LogWatcher) Close() error {
	var err error
	lw.closeOnce.Do(func() {
		close(lw.done)
		err = lw.watcher.Close()
	})
	return err
}
