package persist

import (
	"errors"
	"fmt"
	"log"

	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// ErrNewerVersion is returned by Migrate for documents written by a newer
// release. Load still reads them best-effort.
var ErrNewerVersion = errors.New("document written by a newer version")

// migrations maps a source version to the step that lifts a document to
// the next version.
var migrations = map[int]func(*Document){
	1: migrateV1ToV2,
	2: migrateV2ToV3,
}

// Migrate upgrades doc in place to CurrentVersion and reports whether any
// step ran. A missing version is version 1.
func Migrate(doc *Document) (bool, error) {
	if doc.Version <= 0 {
		doc.Version = 1
	}
	if doc.Version > CurrentVersion {
		return false, fmt.Errorf("%w: %d > %d", ErrNewerVersion, doc.Version, CurrentVersion)
	}
	migrated := false
	for doc.Version < CurrentVersion {
		step, ok := migrations[doc.Version]
		if !ok {
			return migrated, fmt.Errorf("no migration from version %d", doc.Version)
		}
		step(doc)
		log.Printf("[PERSIST] Migrated workspace state v%d -> v%d", doc.Version, doc.Version+1)
		doc.Version++
		migrated = true
	}
	return migrated, nil
}

// migrateV1ToV2 turns the needsAttention flag into the review status.
func migrateV1ToV2(doc *Document) {
	for id, p := range doc.Panes {
		if p.NeedsAttention == nil {
			continue
		}
		if *p.NeedsAttention {
			p.Status = workspace.PaneStatusReview
		}
		p.NeedsAttention = nil
		doc.Panes[id] = p
	}
}

// migrateV2ToV3 renames fileViewer.isLocked to isPinned. Viewers saved
// without the flag predate preview reuse: each was opened on purpose, so
// they come back pinned.
func migrateV2ToV3(doc *Document) {
	for id, p := range doc.Panes {
		if p.FileViewer == nil {
			continue
		}
		fv := *p.FileViewer
		if fv.IsLocked == nil {
			fv.IsPinned = true
		} else {
			fv.IsPinned = fv.IsPinned || *fv.IsLocked
		}
		fv.IsLocked = nil
		p.FileViewer = &fv
		doc.Panes[id] = p
	}
}
