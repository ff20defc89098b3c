package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	stateFileName = "state.json"
	backupPrefix  = stateFileName + ".bak."
	backupSuffix  = ".zst"
)

// FileBackend keeps the document in dir/state.json. Writes go through a
// temp file and rename so a crash never leaves a torn file. Backups are
// zstd-compressed copies named state.json.bak.<timestamp>.zst.
type FileBackend struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewFileBackend creates dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	return &FileBackend{
		dir: dir,
		now: func() time.Time { return time.Now().UTC() },
		enc: enc,
		dec: dec,
	}, nil
}

// Path returns the state file path.
func (f *FileBackend) Path() string {
	return filepath.Join(f.dir, stateFileName)
}

func (f *FileBackend) Read(_ context.Context) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.Path())
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

func (f *FileBackend) Write(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.Path()
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

// Backup writes a compressed copy of the current state file and returns
// its name. With no state file there is nothing to back up.
func (f *FileBackend) Backup(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path())
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read state file: %w", err)
	}
	name := backupPrefix + f.now().Format("20060102T150405.000000000") + backupSuffix
	compressed := f.enc.EncodeAll(data, nil)
	if err := os.WriteFile(filepath.Join(f.dir, name), compressed, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return name, nil
}

// Backups lists backup names, newest first.
func (f *FileBackend) Backups() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.listBackups()
}

func (f *FileBackend) listBackups() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read state directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) || !strings.HasSuffix(e.Name(), backupSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	// The timestamp format sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// ReadBackup returns the decompressed contents of a backup.
func (f *FileBackend) ReadBackup(name string) ([]byte, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, backupPrefix) {
		return nil, fmt.Errorf("invalid backup name: %q", name)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	compressed, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", name, err)
	}
	data, err := f.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress backup %s: %w", name, err)
	}
	return data, nil
}

// PruneBackups deletes all but the keep newest backups.
func (f *FileBackend) PruneBackups(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	names, err := f.listBackups()
	if err != nil {
		return 0, err
	}
	if len(names) <= keep {
		return 0, nil
	}
	pruned := 0
	for _, name := range names[keep:] {
		if err := os.Remove(filepath.Join(f.dir, name)); err == nil {
			pruned++
		}
	}
	return pruned, nil
}

func (f *FileBackend) Close() error {
	f.dec.Close()
	return f.enc.Close()
}
