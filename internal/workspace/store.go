package workspace

import (
	"time"

	"github.com/google/uuid"

	"github.com/asheshgoplani/workdeck/internal/layout"
)

// Store is the single mutation surface for tabs, panes and history. Every
// command derives a new State from the current one, swaps it in, and
// returns the side effects the caller must run. Store is not safe for
// concurrent use; wrap it (see engine) when sharing.
type Store struct {
	state *State
	newID func() string
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides uuid-based id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// NewStore wraps initial (or an empty state when nil).
func NewStore(initial *State, opts ...Option) *Store {
	if initial == nil {
		initial = NewState()
	}
	s := &Store{
		state: initial,
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() *State { return s.state }

// Replace swaps in a whole new state, e.g. after reloading from disk.
func (s *Store) Replace(st *State) {
	if st == nil {
		st = NewState()
	}
	s.state = st
}

func (s *Store) commit(next *State, out Outcome) Outcome {
	s.state = next
	out.Changed = true
	return out
}

func (s *Store) newPane(tabID string, opts PaneOptions) Pane {
	typ := opts.Type
	if typ == "" {
		typ = PaneTypeTerminal
	}
	p := Pane{
		ID:     s.newID(),
		TabID:  tabID,
		Type:   typ,
		Status: PaneStatusIdle,
		Title:  opts.Title,
		Cwd:    opts.Cwd,
		IsNew:  true,
	}
	if len(opts.InitialCommands) > 0 {
		p.InitialCommands = append([]string(nil), opts.InitialCommands...)
	}
	if opts.FileViewer != nil {
		fv := *opts.FileViewer
		p.FileViewer = &fv
	}
	if opts.Dashboard != nil {
		d := *opts.Dashboard
		p.Dashboard = &d
	}
	return p.clone()
}

// activate points the node at tabID, records prev in history and
// acknowledges the tab's panes.
func activate(next *State, nodeID, prev, tabID string) {
	next.activeTab[nodeID] = tabID
	next.history[nodeID] = UpdateHistoryStack(next.history[nodeID], prev, tabID, "")
	next.acknowledgeTab(tabID)
}

// AddTab opens a one-pane tab on the node and makes it active.
func (s *Store) AddTab(nodeID string, opts PaneOptions) Outcome {
	return s.AddTabWithMultiplePanes(nodeID, []PaneOptions{opts})
}

// AddTabWithMultiplePanes opens a tab holding one pane per spec in a
// balanced layout, activates it and focuses the first pane.
func (s *Store) AddTabWithMultiplePanes(nodeID string, specs []PaneOptions) Outcome {
	if nodeID == "" || len(specs) == 0 {
		return Outcome{}
	}
	next := s.state.clone()
	prev := next.ActiveTabID(nodeID)

	tab := Tab{ID: s.newID(), NodeID: nodeID, CreatedAt: s.now()}
	ids := make([]string, 0, len(specs))
	next.putTab(tab)
	for _, spec := range specs {
		p := s.newPane(tab.ID, spec)
		next.putPane(p)
		ids = append(ids, p.ID)
	}
	next.setLayout(tab.ID, layout.BuildMultiPaneLayout(ids))
	next.focused[tab.ID] = ids[0]
	activate(next, nodeID, prev, tab.ID)

	return s.commit(next, Outcome{TabID: tab.ID, PaneID: ids[0], PaneIDs: ids})
}

// RemoveTab closes a tab with all its panes. When it was the node's active
// tab the next one is chosen with FindNextTab.
func (s *Store) RemoveTab(tabID string) Outcome {
	if _, ok := s.state.tabs[tabID]; !ok {
		return Outcome{}
	}
	next := s.state.clone()
	intents := dropTab(next, tabID, true, true)
	return s.commit(next, Outcome{TabID: tabID, Intents: intents})
}

// dropTab deletes the tab (and, with deletePanes, its panes). With
// repairActive a closing active tab hands over to FindNextTab's choice.
func dropTab(next *State, tabID string, deletePanes, repairActive bool) []Intent {
	tab := next.tabs[tabID]
	nodeID := tab.NodeID
	wasActive := repairActive && next.ActiveTabID(nodeID) == tabID
	successor := ""
	if wasActive {
		successor = FindNextTab(next, tabID)
	}

	var intents []Intent
	if deletePanes {
		for _, id := range next.paneIDsOfTab(tabID) {
			if in, ok := releaseIntent(next.panes[id]); ok {
				intents = append(intents, in)
			}
			next.deletePane(id)
		}
	}
	next.deleteTab(tabID)

	if wasActive {
		if successor != "" {
			next.activeTab[nodeID] = successor
			next.history[nodeID] = UpdateHistoryStack(next.history[nodeID], "", successor, tabID)
		} else {
			delete(next.activeTab, nodeID)
		}
	}
	if len(next.history[nodeID]) == 0 {
		delete(next.history, nodeID)
	}
	return intents
}

// SetActiveTab switches the node to tabID and acknowledges its panes. It is
// a no-op when the tab does not belong to the node.
func (s *Store) SetActiveTab(nodeID, tabID string) Outcome {
	t, ok := s.state.tabs[tabID]
	if !ok || t.NodeID != nodeID {
		return Outcome{}
	}
	prev := s.state.ActiveTabID(nodeID)
	if prev == tabID && s.state.activeTab[nodeID] == tabID && !s.state.tabNeedsAck(tabID) {
		return Outcome{TabID: tabID}
	}
	next := s.state.clone()
	activate(next, nodeID, prev, tabID)
	return s.commit(next, Outcome{TabID: tabID})
}

// UpdateTabLayout adopts a layout produced by the UI (resize, drag). Panes
// that disappear from the layout and still belong to this tab are
// released and deleted; leaves naming foreign panes are ignored so a drag
// between tabs cannot corrupt either tab.
func (s *Store) UpdateTabLayout(tabID string, tree layout.Node) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok || layout.Equal(tab.Layout, tree) {
		return Outcome{}
	}
	if tree == nil {
		return s.RemoveTab(tabID)
	}

	owned := s.state.tabPanes[tabID]
	cleaned := layout.CleanLayout(tree, owned)
	if cleaned == nil {
		return Outcome{}
	}
	if layout.Equal(tab.Layout, cleaned) {
		return Outcome{}
	}

	next := s.state.clone()
	kept := make(map[string]bool)
	for _, id := range layout.ExtractPaneIDs(cleaned) {
		kept[id] = true
	}
	var intents []Intent
	for _, id := range layout.ExtractPaneIDs(tab.Layout) {
		if kept[id] {
			continue
		}
		p, ok := next.panes[id]
		if !ok || p.TabID != tabID {
			continue
		}
		if in, ok := releaseIntent(p); ok {
			intents = append(intents, in)
		}
		next.deletePane(id)
	}
	next.setLayout(tabID, cleaned)
	if !kept[next.focused[tabID]] {
		first, _ := layout.FirstPaneID(cleaned)
		next.focused[tabID] = first
	}
	return s.commit(next, Outcome{TabID: tabID, Intents: intents})
}

// AddPane appends one pane to the tab.
func (s *Store) AddPane(tabID string, opts PaneOptions) Outcome {
	return s.AddPanesToTab(tabID, []PaneOptions{opts})
}

// AddPanesToTab wraps the tab's layout in a row split whose second side is
// a balanced layout of the new panes, and focuses the first new pane.
func (s *Store) AddPanesToTab(tabID string, specs []PaneOptions) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok || len(specs) == 0 {
		return Outcome{}
	}
	next := s.state.clone()
	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		p := s.newPane(tabID, spec)
		next.putPane(p)
		ids = append(ids, p.ID)
	}
	added := layout.BuildMultiPaneLayout(ids)
	tree := added
	if tab.Layout != nil {
		tree = layout.NewSplit(layout.DirectionRow, tab.Layout, added, layout.DefaultSplitPercentage)
	}
	next.setLayout(tabID, tree)
	next.focused[tabID] = ids[0]
	return s.commit(next, Outcome{TabID: tabID, PaneID: ids[0], PaneIDs: ids})
}

// RemovePane closes one pane. The last pane of a tab closes the tab.
func (s *Store) RemovePane(paneID string) Outcome {
	p, ok := s.state.panes[paneID]
	if !ok {
		return Outcome{}
	}
	tab, ok := s.state.tabs[p.TabID]
	if !ok {
		return Outcome{}
	}
	_, inLayout := layout.FindPanePath(tab.Layout, paneID)
	if inLayout && layout.Count(tab.Layout) <= 1 {
		return s.RemoveTab(tab.ID)
	}

	// Adjacency only exists before the leaf is gone.
	adjacent, _ := layout.AdjacentPaneID(tab.Layout, paneID)
	wasFocused := s.state.FocusedPaneID(tab.ID) == paneID

	next := s.state.clone()
	var intents []Intent
	if in, ok := releaseIntent(p); ok {
		intents = append(intents, in)
	}
	next.deletePane(paneID)
	if inLayout {
		next.setLayout(tab.ID, layout.RemovePaneFromLayout(tab.Layout, paneID))
	}
	if wasFocused && adjacent != "" {
		next.focused[tab.ID] = adjacent
	}
	return s.commit(next, Outcome{TabID: tab.ID, PaneID: adjacent, Intents: intents})
}

// SplitPaneVertical places a new pane beside the subtree at path (or the
// whole layout when path is nil).
func (s *Store) SplitPaneVertical(tabID, sourcePaneID string, path layout.Path, opts PaneOptions) Outcome {
	return s.splitPane(tabID, sourcePaneID, path, layout.DirectionRow, opts)
}

// SplitPaneHorizontal places a new pane below the subtree at path.
func (s *Store) SplitPaneHorizontal(tabID, sourcePaneID string, path layout.Path, opts PaneOptions) Outcome {
	return s.splitPane(tabID, sourcePaneID, path, layout.DirectionColumn, opts)
}

// SplitPaneAuto splits along the longer side of the split site.
func (s *Store) SplitPaneAuto(tabID, sourcePaneID string, path layout.Path, width, height int, opts PaneOptions) Outcome {
	if width >= height {
		return s.SplitPaneVertical(tabID, sourcePaneID, path, opts)
	}
	return s.SplitPaneHorizontal(tabID, sourcePaneID, path, opts)
}

func (s *Store) splitPane(tabID, sourcePaneID string, path layout.Path, dir layout.Direction, opts PaneOptions) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok {
		return Outcome{}
	}
	if src, ok := s.state.panes[sourcePaneID]; ok && src.TabID == tabID && opts.Cwd == "" {
		opts.Cwd = src.Cwd
	}
	p := s.newPane(tabID, opts)
	tree, ok := layout.SplitAt(tab.Layout, path, p.ID, dir)
	if !ok {
		return Outcome{}
	}
	next := s.state.clone()
	next.putPane(p)
	next.setLayout(tabID, tree)
	next.focused[tabID] = p.ID
	return s.commit(next, Outcome{TabID: tabID, PaneID: p.ID, PaneIDs: []string{p.ID}})
}

// MovePaneToTab moves a pane into another tab of the same node, appending
// it with a row split. The source tab closes if the pane was its last; the
// target tab becomes active with the pane focused.
func (s *Store) MovePaneToTab(paneID, targetTabID string) Outcome {
	p, ok := s.state.panes[paneID]
	if !ok {
		return Outcome{}
	}
	src, ok := s.state.tabs[p.TabID]
	if !ok {
		return Outcome{}
	}
	target, ok := s.state.tabs[targetTabID]
	if !ok || target.ID == src.ID || target.NodeID != src.NodeID {
		return Outcome{}
	}

	next := s.state.clone()
	prev := next.ActiveTabID(src.NodeID)
	detach(next, src, paneID)
	if prev == src.ID {
		if _, still := next.tabs[src.ID]; !still {
			prev = ""
		}
	}

	p.TabID = target.ID
	next.putPane(p)
	next.setLayout(target.ID, layout.AddPaneToLayout(target.Layout, paneID))
	next.focused[target.ID] = paneID
	activate(next, target.NodeID, prev, target.ID)
	return s.commit(next, Outcome{TabID: target.ID, PaneID: paneID})
}

// MovePaneToNewTab lifts a pane out of its tab into a fresh tab on the same
// node. A pane that is already alone stays where it is.
func (s *Store) MovePaneToNewTab(paneID string) Outcome {
	p, ok := s.state.panes[paneID]
	if !ok {
		return Outcome{}
	}
	src, ok := s.state.tabs[p.TabID]
	if !ok || layout.Count(src.Layout) <= 1 {
		return Outcome{}
	}

	next := s.state.clone()
	prev := next.ActiveTabID(src.NodeID)
	detach(next, src, paneID)

	tab := Tab{ID: s.newID(), NodeID: src.NodeID, CreatedAt: s.now()}
	next.putTab(tab)
	p.TabID = tab.ID
	next.putPane(p)
	next.setLayout(tab.ID, layout.Leaf(paneID))
	next.focused[tab.ID] = paneID
	activate(next, tab.NodeID, prev, tab.ID)
	return s.commit(next, Outcome{TabID: tab.ID, PaneID: paneID})
}

// detach removes the pane's leaf from its source tab without deleting the
// pane, dropping the tab if it empties.
func detach(next *State, src Tab, paneID string) {
	adjacent, _ := layout.AdjacentPaneID(src.Layout, paneID)
	wasFocused := next.FocusedPaneID(src.ID) == paneID
	delete(next.tabPanes[src.ID], paneID)

	tree := layout.RemovePaneFromLayout(src.Layout, paneID)
	if tree == nil {
		dropTab(next, src.ID, false, false)
		return
	}
	next.setLayout(src.ID, tree)
	if wasFocused {
		next.focused[src.ID] = adjacent
	}
}

// ClearNodeAttention applies the activation rule to every pane of every
// tab of the node.
func (s *Store) ClearNodeAttention(nodeID string) Outcome {
	var pending []string
	for _, tabID := range s.state.nodeTabs[nodeID] {
		if s.state.tabNeedsAck(tabID) {
			pending = append(pending, tabID)
		}
	}
	if len(pending) == 0 {
		return Outcome{}
	}
	next := s.state.clone()
	for _, tabID := range pending {
		next.acknowledgeTab(tabID)
	}
	return s.commit(next, Outcome{})
}

// ReportActivity marks a pane working. Only an explicit stop clears it.
func (s *Store) ReportActivity(paneID string) Outcome {
	return s.SetPaneStatus(paneID, PaneStatusWorking)
}

// ReportPermission marks a pane as blocked on a user decision.
func (s *Store) ReportPermission(paneID string) Outcome {
	return s.SetPaneStatus(paneID, PaneStatusPermission)
}

// ReportStopped is the stop signal: the pane's output awaits review.
func (s *Store) ReportStopped(paneID string) Outcome {
	return s.SetPaneStatus(paneID, PaneStatusReview)
}

// SetPaneStatus sets a pane's status directly.
func (s *Store) SetPaneStatus(paneID string, status PaneStatus) Outcome {
	p, ok := s.state.panes[paneID]
	if !ok || !status.Valid() || p.Status == status {
		return Outcome{}
	}
	next := s.state.clone()
	p = next.panes[paneID]
	p.Status = status
	next.panes[paneID] = p
	return s.commit(next, Outcome{TabID: p.TabID, PaneID: paneID})
}

// FocusPane focuses a pane within its own tab.
func (s *Store) FocusPane(paneID string) Outcome {
	p, ok := s.state.panes[paneID]
	if !ok || s.state.focused[p.TabID] == paneID {
		return Outcome{}
	}
	next := s.state.clone()
	next.focused[p.TabID] = paneID
	return s.commit(next, Outcome{TabID: p.TabID, PaneID: paneID})
}

// FocusNextPane cycles focus forward within the tab.
func (s *Store) FocusNextPane(tabID string) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok {
		return Outcome{}
	}
	id, ok := layout.NextPaneID(tab.Layout, s.state.FocusedPaneID(tabID))
	if !ok {
		return Outcome{}
	}
	return s.FocusPane(id)
}

// FocusPreviousPane cycles focus backward within the tab.
func (s *Store) FocusPreviousPane(tabID string) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok {
		return Outcome{}
	}
	id, ok := layout.PreviousPaneID(tab.Layout, s.state.FocusedPaneID(tabID))
	if !ok {
		return Outcome{}
	}
	return s.FocusPane(id)
}

// RenameTab sets or clears (with "") the user title.
func (s *Store) RenameTab(tabID, title string) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok || tab.UserTitle == title {
		return Outcome{}
	}
	next := s.state.clone()
	tab.UserTitle = title
	next.tabs[tabID] = tab
	return s.commit(next, Outcome{TabID: tabID})
}

// ReorderTab moves a tab to index within its node's tab order.
func (s *Store) ReorderTab(tabID string, index int) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok {
		return Outcome{}
	}
	order := s.state.nodeTabs[tab.NodeID]
	from := indexOf(order, tabID)
	if index < 0 {
		index = 0
	}
	if index >= len(order) {
		index = len(order) - 1
	}
	if from < 0 || from == index {
		return Outcome{}
	}
	next := s.state.clone()
	rest := removeString(next.nodeTabs[tab.NodeID], tabID)
	reordered := make([]string, 0, len(order))
	reordered = append(reordered, rest[:index]...)
	reordered = append(reordered, tabID)
	reordered = append(reordered, rest[index:]...)
	next.nodeTabs[tab.NodeID] = reordered
	return s.commit(next, Outcome{TabID: tabID})
}

// ResizeSplit sets the ratio of the split at path.
func (s *Store) ResizeSplit(tabID string, path layout.Path, pct float64) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok {
		return Outcome{}
	}
	tree, ok := layout.SetSplitPercentage(tab.Layout, path, pct)
	if !ok || layout.Equal(tree, tab.Layout) {
		return Outcome{}
	}
	next := s.state.clone()
	next.setLayout(tabID, tree)
	return s.commit(next, Outcome{TabID: tabID})
}

// RebalanceTab gives every pane of the tab an equal share along its run.
func (s *Store) RebalanceTab(tabID string) Outcome {
	tab, ok := s.state.tabs[tabID]
	if !ok {
		return Outcome{}
	}
	tree := layout.Rebalance(tab.Layout)
	if layout.Equal(tree, tab.Layout) {
		return Outcome{}
	}
	next := s.state.clone()
	next.setLayout(tabID, tree)
	return s.commit(next, Outcome{TabID: tabID})
}
