package workspace

import (
	"sort"

	"github.com/asheshgoplani/workdeck/internal/layout"
)

// State is an immutable snapshot of the tab and pane registries. Store
// produces a new State for every change; readers may hold on to one safely.
type State struct {
	tabs      map[string]Tab
	panes     map[string]Pane
	activeTab map[string]string   // node -> tab pointer, may be stale
	history   map[string][]string // node -> MRU tab ids
	focused   map[string]string   // tab -> pane pointer, may be stale

	nodeOrder []string
	nodeTabs  map[string][]string        // node -> tab ids in registry order
	tabPanes  map[string]map[string]bool // tab -> owned pane ids
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		tabs:      make(map[string]Tab),
		panes:     make(map[string]Pane),
		activeTab: make(map[string]string),
		history:   make(map[string][]string),
		focused:   make(map[string]string),
		nodeTabs:  make(map[string][]string),
		tabPanes:  make(map[string]map[string]bool),
	}
}

func (s *State) clone() *State {
	next := NewState()
	for id, t := range s.tabs {
		next.tabs[id] = t
	}
	for id, p := range s.panes {
		next.panes[id] = p.clone()
	}
	for k, v := range s.activeTab {
		next.activeTab[k] = v
	}
	for k, v := range s.history {
		next.history[k] = append([]string(nil), v...)
	}
	for k, v := range s.focused {
		next.focused[k] = v
	}
	next.nodeOrder = append([]string(nil), s.nodeOrder...)
	for k, v := range s.nodeTabs {
		next.nodeTabs[k] = append([]string(nil), v...)
	}
	for k, set := range s.tabPanes {
		cp := make(map[string]bool, len(set))
		for id := range set {
			cp[id] = true
		}
		next.tabPanes[k] = cp
	}
	return next
}

// Tab returns a tab by id.
func (s *State) Tab(id string) (Tab, bool) {
	t, ok := s.tabs[id]
	return t, ok
}

// Pane returns a pane by id.
func (s *State) Pane(id string) (Pane, bool) {
	p, ok := s.panes[id]
	if !ok {
		return Pane{}, false
	}
	return p.clone(), true
}

// TabCount returns the number of tabs across all nodes.
func (s *State) TabCount() int { return len(s.tabs) }

// PaneCount returns the number of panes across all tabs.
func (s *State) PaneCount() int { return len(s.panes) }

// Nodes returns every node that owns at least one tab, in first-seen order.
func (s *State) Nodes() []string {
	out := make([]string, 0, len(s.nodeOrder))
	for _, n := range s.nodeOrder {
		if len(s.nodeTabs[n]) > 0 {
			out = append(out, n)
		}
	}
	return out
}

// TabsForNode returns the node's tabs in registry order.
func (s *State) TabsForNode(nodeID string) []Tab {
	ids := s.nodeTabs[nodeID]
	out := make([]Tab, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tabs[id])
	}
	return out
}

// ActiveTabID returns the resolved active tab of the node, or "".
func (s *State) ActiveTabID(nodeID string) string {
	belongs := func(id string) bool {
		t, ok := s.tabs[id]
		return ok && t.NodeID == nodeID
	}
	first := ""
	if ids := s.nodeTabs[nodeID]; len(ids) > 0 {
		first = ids[0]
	}
	return resolveActive(belongs, first, s.activeTab[nodeID], s.history[nodeID])
}

// ActiveTab returns the resolved active tab of the node.
func (s *State) ActiveTab(nodeID string) (Tab, bool) {
	return s.Tab(s.ActiveTabID(nodeID))
}

// History returns a copy of the node's MRU stack.
func (s *State) History(nodeID string) []string {
	return append([]string(nil), s.history[nodeID]...)
}

// PanesForTab returns the tab's panes in visual order.
func (s *State) PanesForTab(tabID string) []Pane {
	ids := s.paneIDsOfTab(tabID)
	out := make([]Pane, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.panes[id].clone())
	}
	return out
}

// FocusedPaneID returns the tab's focused pane, falling back to the first
// pane when the stored pointer is missing or stale.
func (s *State) FocusedPaneID(tabID string) string {
	t, ok := s.tabs[tabID]
	if !ok {
		return ""
	}
	if id := s.focused[tabID]; s.tabPanes[tabID][id] {
		return id
	}
	id, _ := layout.FirstPaneID(t.Layout)
	return id
}

// FocusedPane returns the tab's focused pane.
func (s *State) FocusedPane(tabID string) (Pane, bool) {
	return s.Pane(s.FocusedPaneID(tabID))
}

// paneIDsOfTab lists owned panes in layout order followed by any owned pane
// the layout does not reference, sorted.
func (s *State) paneIDsOfTab(tabID string) []string {
	t, ok := s.tabs[tabID]
	if !ok {
		return nil
	}
	owned := s.tabPanes[tabID]
	seen := make(map[string]bool, len(owned))
	var out []string
	for _, id := range layout.ExtractPaneIDs(t.Layout) {
		if owned[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	var rest []string
	for id := range owned {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (s *State) putTab(t Tab) {
	if _, exists := s.tabs[t.ID]; !exists {
		if _, known := s.nodeTabs[t.NodeID]; !known {
			s.nodeOrder = append(s.nodeOrder, t.NodeID)
		}
		s.nodeTabs[t.NodeID] = append(s.nodeTabs[t.NodeID], t.ID)
		if s.tabPanes[t.ID] == nil {
			s.tabPanes[t.ID] = make(map[string]bool)
		}
	}
	s.tabs[t.ID] = t
}

// deleteTab removes the tab record and every reference to it. Panes are
// left to the caller.
func (s *State) deleteTab(tabID string) {
	t, ok := s.tabs[tabID]
	if !ok {
		return
	}
	delete(s.tabs, tabID)
	delete(s.tabPanes, tabID)
	delete(s.focused, tabID)
	s.nodeTabs[t.NodeID] = removeString(s.nodeTabs[t.NodeID], tabID)
	if s.activeTab[t.NodeID] == tabID {
		delete(s.activeTab, t.NodeID)
	}
	if h, ok := s.history[t.NodeID]; ok {
		s.history[t.NodeID] = UpdateHistoryStack(h, "", "", tabID)
	}
}

func (s *State) putPane(p Pane) {
	if old, ok := s.panes[p.ID]; ok && old.TabID != p.TabID {
		delete(s.tabPanes[old.TabID], p.ID)
	}
	s.panes[p.ID] = p
	set := s.tabPanes[p.TabID]
	if set == nil {
		set = make(map[string]bool)
		s.tabPanes[p.TabID] = set
	}
	set[p.ID] = true
}

func (s *State) deletePane(id string) {
	p, ok := s.panes[id]
	if !ok {
		return
	}
	delete(s.panes, id)
	delete(s.tabPanes[p.TabID], id)
	if s.focused[p.TabID] == id {
		delete(s.focused, p.TabID)
	}
}

func (s *State) setLayout(tabID string, tree layout.Node) {
	t := s.tabs[tabID]
	t.Layout = tree
	s.tabs[tabID] = t
	s.refreshName(tabID)
}

func removeString(list []string, v string) []string {
	out := list[:0:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
