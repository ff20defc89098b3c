package workspace

import (
	"github.com/asheshgoplani/workdeck/internal/layout"
)

// Snapshot is the plain-data form of a State used for persistence.
type Snapshot struct {
	Tabs             []Tab
	Panes            map[string]Pane
	ActiveTabByNode  map[string]string
	HistoryByNode    map[string][]string
	FocusedPaneByTab map[string]string
}

// Snapshot exports the state. Tabs are grouped by node in first-seen node
// order, each node's tabs in registry order.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Panes:            make(map[string]Pane, len(s.panes)),
		ActiveTabByNode:  make(map[string]string, len(s.activeTab)),
		HistoryByNode:    make(map[string][]string, len(s.history)),
		FocusedPaneByTab: make(map[string]string, len(s.focused)),
	}
	for _, node := range s.nodeOrder {
		snap.Tabs = append(snap.Tabs, s.TabsForNode(node)...)
	}
	for id, p := range s.panes {
		snap.Panes[id] = p.clone()
	}
	for k, v := range s.activeTab {
		snap.ActiveTabByNode[k] = v
	}
	for k, v := range s.history {
		snap.HistoryByNode[k] = append([]string(nil), v...)
	}
	for k, v := range s.focused {
		snap.FocusedPaneByTab[k] = v
	}
	return snap
}

// SanitizeOptions tunes FromSnapshot.
type SanitizeOptions struct {
	// KnownNodes, when non-nil, is the authoritative node list: tabs of any
	// other node are dropped.
	KnownNodes []string
}

// FromSnapshot rebuilds a State from possibly stale or inconsistent data.
// Dangling references are pruned rather than reported: panes without a tab
// go, layouts are cleaned down to one leaf per pane their tab owns, emptied tabs
// go, and per node the active pointer is re-resolved, history filtered to
// the node's tabs and focus pointers checked against ownership.
func FromSnapshot(snap Snapshot, opts SanitizeOptions) *State {
	st := NewState()

	var known map[string]bool
	if opts.KnownNodes != nil {
		known = make(map[string]bool, len(opts.KnownNodes))
		for _, n := range opts.KnownNodes {
			known[n] = true
		}
	}

	kept := make(map[string]Tab)
	var order []string
	for _, t := range snap.Tabs {
		if t.ID == "" || t.NodeID == "" {
			continue
		}
		if _, dup := kept[t.ID]; dup {
			continue
		}
		if known != nil && !known[t.NodeID] {
			continue
		}
		kept[t.ID] = t
		order = append(order, t.ID)
	}

	owned := make(map[string]map[string]bool)
	panes := make(map[string]Pane)
	for key, p := range snap.Panes {
		if p.ID == "" {
			p.ID = key
		}
		if p.ID != key {
			continue
		}
		if _, ok := kept[p.TabID]; !ok {
			continue
		}
		if owned[p.TabID] == nil {
			owned[p.TabID] = make(map[string]bool)
		}
		owned[p.TabID][p.ID] = true
		panes[p.ID] = p.clone()
	}

	for _, id := range order {
		t := kept[id]
		t.Layout = layout.CleanLayout(t.Layout, owned[id])
		if t.Layout == nil {
			continue
		}
		st.putTab(t)
		for _, pid := range layout.ExtractPaneIDs(t.Layout) {
			st.putPane(panes[pid])
		}
		st.refreshNameIfBlank(id)
	}

	for tabID, paneID := range snap.FocusedPaneByTab {
		if p, ok := st.panes[paneID]; ok && p.TabID == tabID {
			st.focused[tabID] = paneID
		}
	}

	nodes := make(map[string]bool)
	for _, n := range st.nodeOrder {
		nodes[n] = true
	}
	for n := range snap.ActiveTabByNode {
		nodes[n] = true
	}
	for n := range snap.HistoryByNode {
		nodes[n] = true
	}
	for n := range known {
		nodes[n] = true
	}
	for n := range nodes {
		st.activeTab[n] = snap.ActiveTabByNode[n]
		st.history[n] = snap.HistoryByNode[n]
		active := st.ActiveTabID(n)
		if active == "" {
			delete(st.activeTab, n)
		} else {
			st.activeTab[n] = active
		}
		var filtered []string
		for _, id := range UpdateHistoryStack(st.history[n], "", active, "") {
			if t, ok := st.tabs[id]; ok && t.NodeID == n {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == 0 {
			delete(st.history, n)
		} else {
			st.history[n] = filtered
		}
	}
	return st
}

func (s *State) refreshNameIfBlank(tabID string) {
	if t := s.tabs[tabID]; t.Name == "" {
		s.refreshName(tabID)
	}
}
