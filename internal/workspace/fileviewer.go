package workspace

import (
	"github.com/asheshgoplani/workdeck/internal/layout"
)

// AddFileViewerPane shows a file on the node using preview semantics.
//
// Within the node's active tab a pinned viewer already showing the same
// file is refocused. Otherwise the tab's one unpinned "preview" viewer is
// reused: refocused when it already shows the file, overwritten in place
// when it shows another. Only when neither exists is a new pane split in.
// ForceNewTab, or a node without tabs, opens a new tab instead.
func (s *Store) AddFileViewerPane(nodeID string, opts FileViewerOptions) Outcome {
	if nodeID == "" || opts.FilePath == "" {
		return Outcome{}
	}
	viewer := opts.viewer()
	newTab := func() Outcome {
		return s.AddTab(nodeID, PaneOptions{Type: PaneTypeFileViewer, FileViewer: viewer})
	}
	if opts.ForceNewTab {
		return newTab()
	}
	tabID := s.state.ActiveTabID(nodeID)
	if tabID == "" {
		return newTab()
	}

	identity := viewer.Identity()
	panes := s.state.PanesForTab(tabID)

	for _, p := range panes {
		if p.Type == PaneTypeFileViewer && p.FileViewer != nil &&
			p.FileViewer.IsPinned && p.FileViewer.Identity() == identity {
			return s.focusViewer(tabID, p.ID, nil)
		}
	}

	for _, p := range panes {
		if p.Type != PaneTypeFileViewer || p.FileViewer == nil || p.FileViewer.IsPinned {
			continue
		}
		if p.FileViewer.Identity() == identity {
			return s.focusViewer(tabID, p.ID, func(fv *FileViewer) {
				if opts.ViewMode != "" {
					fv.ViewMode = opts.ViewMode
				}
				if opts.IsPinned {
					fv.IsPinned = true
				}
			})
		}
		return s.focusViewer(tabID, p.ID, func(fv *FileViewer) {
			*fv = *viewer
		})
	}

	tab := s.state.tabs[tabID]
	p := s.newPane(tabID, PaneOptions{Type: PaneTypeFileViewer, FileViewer: viewer})
	next := s.state.clone()
	next.putPane(p)
	next.setLayout(tabID, layout.AddPaneToLayout(tab.Layout, p.ID))
	next.focused[tabID] = p.ID
	return s.commit(next, Outcome{TabID: tabID, PaneID: p.ID, PaneIDs: []string{p.ID}})
}

// focusViewer focuses an existing viewer, optionally editing its payload.
func (s *Store) focusViewer(tabID, paneID string, edit func(*FileViewer)) Outcome {
	next := s.state.clone()
	changed := false
	if edit != nil {
		p := next.panes[paneID]
		before := *p.FileViewer
		edit(p.FileViewer)
		if before.Identity() != p.FileViewer.Identity() ||
			before.ViewMode != p.FileViewer.ViewMode ||
			before.IsPinned != p.FileViewer.IsPinned {
			changed = true
			p.Title = ""
			next.panes[paneID] = p
			next.refreshName(tabID)
		}
	}
	if next.focused[tabID] != paneID {
		next.focused[tabID] = paneID
		changed = true
	}
	out := Outcome{TabID: tabID, PaneID: paneID}
	if !changed {
		return out
	}
	return s.commit(next, out)
}

// SetFileViewMode changes how a file viewer presents its file.
func (s *Store) SetFileViewMode(paneID string, mode ViewMode) Outcome {
	p, ok := s.state.panes[paneID]
	if !ok || p.FileViewer == nil || p.FileViewer.ViewMode == mode {
		return Outcome{}
	}
	return s.focusViewer(p.TabID, paneID, func(fv *FileViewer) { fv.ViewMode = mode })
}

// PinFileViewer pins or unpins a file viewer. Pinning the preview makes
// the next opened file split in a fresh preview pane.
func (s *Store) PinFileViewer(paneID string, pinned bool) Outcome {
	p, ok := s.state.panes[paneID]
	if !ok || p.FileViewer == nil || p.FileViewer.IsPinned == pinned {
		return Outcome{}
	}
	return s.focusViewer(p.TabID, paneID, func(fv *FileViewer) { fv.IsPinned = pinned })
}
