package persist

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/asheshgoplani/workdeck/internal/layout"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 3

// Document is the on-disk form of the workspace state.
type Document struct {
	Version          int                   `json:"version,omitempty"`
	Tabs             []TabRecord           `json:"tabs"`
	Panes            map[string]PaneRecord `json:"panes"`
	ActiveTabByNode  map[string]string     `json:"activeTabByNode,omitempty"`
	HistoryByNode    map[string][]string   `json:"historyByNode,omitempty"`
	FocusedPaneByTab map[string]string     `json:"focusedPaneByTab,omitempty"`
}

// TabRecord is a persisted tab. Layout holds the tree in wire form.
type TabRecord struct {
	ID        string          `json:"id"`
	NodeID    string          `json:"nodeId"`
	Name      string          `json:"name,omitempty"`
	UserTitle string          `json:"userTitle,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Layout    json.RawMessage `json:"layout"`
}

// PaneRecord is a persisted pane, including fields only older schema
// versions carry.
type PaneRecord struct {
	ID         string               `json:"id"`
	TabID      string               `json:"tabId"`
	Type       workspace.PaneType   `json:"type"`
	Status     workspace.PaneStatus `json:"status,omitempty"`
	Title      string               `json:"title,omitempty"`
	Cwd        string               `json:"cwd,omitempty"`
	FileViewer *FileViewerRecord    `json:"fileViewer,omitempty"`
	Dashboard  *workspace.Dashboard `json:"dashboard,omitempty"`

	// v1 only.
	NeedsAttention *bool `json:"needsAttention,omitempty"`
}

// FileViewerRecord is a persisted file-viewer payload.
type FileViewerRecord struct {
	FilePath   string                 `json:"filePath"`
	ViewMode   workspace.ViewMode     `json:"viewMode,omitempty"`
	IsPinned   bool                   `json:"isPinned"`
	Diff       *workspace.DiffContext `json:"diff,omitempty"`
	CommitHash string                 `json:"commitHash,omitempty"`

	// v1 and v2 only.
	IsLocked *bool `json:"isLocked,omitempty"`
}

// Encode converts a state to a current-version document.
func Encode(st *workspace.State) (*Document, error) {
	snap := st.Snapshot()
	doc := &Document{
		Version:          CurrentVersion,
		Tabs:             make([]TabRecord, 0, len(snap.Tabs)),
		Panes:            make(map[string]PaneRecord, len(snap.Panes)),
		ActiveTabByNode:  snap.ActiveTabByNode,
		HistoryByNode:    snap.HistoryByNode,
		FocusedPaneByTab: snap.FocusedPaneByTab,
	}
	for _, t := range snap.Tabs {
		tree, err := layout.Marshal(t.Layout)
		if err != nil {
			return nil, fmt.Errorf("marshal layout of tab %s: %w", t.ID, err)
		}
		doc.Tabs = append(doc.Tabs, TabRecord{
			ID:        t.ID,
			NodeID:    t.NodeID,
			Name:      t.Name,
			UserTitle: t.UserTitle,
			CreatedAt: t.CreatedAt,
			Layout:    tree,
		})
	}
	for id, p := range snap.Panes {
		rec := PaneRecord{
			ID:        p.ID,
			TabID:     p.TabID,
			Type:      p.Type,
			Status:    p.Status,
			Title:     p.Title,
			Cwd:       p.Cwd,
			Dashboard: p.Dashboard,
		}
		if fv := p.FileViewer; fv != nil {
			rec.FileViewer = &FileViewerRecord{
				FilePath:   fv.FilePath,
				ViewMode:   fv.ViewMode,
				IsPinned:   fv.IsPinned,
				Diff:       fv.Diff,
				CommitHash: fv.CommitHash,
			}
		}
		doc.Panes[id] = rec
	}
	return doc, nil
}

// Decode converts a migrated document to a sanitized state. Every pane's
// status goes through workspace.RestoredStatus. A tab whose layout cannot
// be parsed loses its layout and is then dropped with its panes.
func Decode(doc *Document, opts workspace.SanitizeOptions) *workspace.State {
	snap := workspace.Snapshot{
		Tabs:             make([]workspace.Tab, 0, len(doc.Tabs)),
		Panes:            make(map[string]workspace.Pane, len(doc.Panes)),
		ActiveTabByNode:  doc.ActiveTabByNode,
		HistoryByNode:    doc.HistoryByNode,
		FocusedPaneByTab: doc.FocusedPaneByTab,
	}
	for _, rec := range doc.Tabs {
		tree, err := layout.Unmarshal(rec.Layout)
		if err != nil {
			tree = nil
		}
		snap.Tabs = append(snap.Tabs, workspace.Tab{
			ID:        rec.ID,
			NodeID:    rec.NodeID,
			Name:      rec.Name,
			UserTitle: rec.UserTitle,
			CreatedAt: rec.CreatedAt,
			Layout:    tree,
		})
	}
	for key, rec := range doc.Panes {
		typ := rec.Type
		if typ == "" {
			typ = workspace.PaneTypeTerminal
		}
		p := workspace.Pane{
			ID:        rec.ID,
			TabID:     rec.TabID,
			Type:      typ,
			Status:    workspace.RestoredStatus(rec.Status),
			Title:     rec.Title,
			Cwd:       rec.Cwd,
			Dashboard: rec.Dashboard,
		}
		if fv := rec.FileViewer; fv != nil {
			mode := fv.ViewMode
			if mode == "" {
				mode = workspace.ViewModeSource
			}
			p.FileViewer = &workspace.FileViewer{
				FilePath:   fv.FilePath,
				ViewMode:   mode,
				IsPinned:   fv.IsPinned,
				Diff:       fv.Diff,
				CommitHash: fv.CommitHash,
			}
		}
		snap.Panes[key] = p
	}
	return workspace.FromSnapshot(snap, opts)
}
