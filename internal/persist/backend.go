package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// ErrNotFound is returned by a Backend that holds no saved state yet.
var ErrNotFound = errors.New("no saved workspace state")

// Backend stores the encoded workspace document.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Backuper is implemented by backends that keep point-in-time copies.
type Backuper interface {
	Backup(ctx context.Context) (string, error)
	PruneBackups(keep int) (int, error)
}

// LoadResult describes what Load found.
type LoadResult struct {
	State       *workspace.State
	FromVersion int
	Migrated    bool
	Empty       bool
	// Newer is set when the document came from a newer release. Saving
	// the state back would drop whatever that release added.
	Newer bool
}

// Load reads, migrates and sanitizes the saved state. Missing or corrupt
// data yields an empty state; only backend I/O failures are errors. A
// migrated document is backed up (when the backend supports it) and
// rewritten at the current version. A document from a newer release is
// read best-effort and backed up, but never rewritten here.
func Load(ctx context.Context, b Backend, opts workspace.SanitizeOptions) (LoadResult, error) {
	data, err := b.Read(ctx)
	if errors.Is(err, ErrNotFound) {
		return LoadResult{State: workspace.NewState(), Empty: true}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("read workspace state: %w", err)
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		log.Printf("[PERSIST] Ignoring unreadable workspace state: %v", err)
		return LoadResult{State: workspace.NewState(), Empty: true}, nil
	}
	res := LoadResult{FromVersion: doc.Version}
	if res.FromVersion == 0 {
		res.FromVersion = 1
	}

	migrated, err := Migrate(doc)
	if err != nil {
		log.Printf("[PERSIST] Loading workspace state best-effort: %v", err)
		res.Newer = errors.Is(err, ErrNewerVersion)
	}
	res.Migrated = migrated
	res.State = Decode(doc, opts)

	if migrated || res.Newer {
		backupBeforeRewrite(ctx, b)
	}
	if migrated {
		if err := Save(ctx, b, res.State); err != nil {
			return res, err
		}
	}
	return res, nil
}

func backupBeforeRewrite(ctx context.Context, b Backend) {
	bk, ok := b.(Backuper)
	if !ok {
		return
	}
	if name, err := bk.Backup(ctx); err != nil {
		log.Printf("[PERSIST] Backup of saved state failed: %v", err)
	} else {
		log.Printf("[PERSIST] Saved backup %s before rewriting state", name)
	}
}

// Save encodes st at the current version and writes it.
func Save(ctx context.Context, b Backend, st *workspace.State) error {
	doc, err := Encode(st)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workspace state: %w", err)
	}
	if err := b.Write(ctx, data); err != nil {
		return fmt.Errorf("write workspace state: %w", err)
	}
	return nil
}

// DecodeDocument parses a document without migrating it.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal workspace state: %w", err)
	}
	return &doc, nil
}
