package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/workdeck/internal/layout"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore()
	a := s.AddTabWithMultiplePanes("n1", []PaneOptions{{}, {}})
	b := s.AddTab("n1", PaneOptions{})
	c := s.AddTab("n2", PaneOptions{})
	s.SetActiveTab("n1", a.TabID)
	s.FocusPane(a.PaneIDs[1])

	st := FromSnapshot(s.State().Snapshot(), SanitizeOptions{})

	assert.Equal(t, a.TabID, st.ActiveTabID("n1"))
	assert.Equal(t, c.TabID, st.ActiveTabID("n2"))
	assert.Equal(t, []string{b.TabID}, st.History("n1"))
	assert.Equal(t, a.PaneIDs[1], st.FocusedPaneID(a.TabID))
	assert.Equal(t, []string{"n1", "n2"}, st.Nodes())
	assert.Equal(t, 4, st.PaneCount())

	tab, _ := st.Tab(a.TabID)
	orig, _ := s.State().Tab(a.TabID)
	assert.True(t, layout.Equal(orig.Layout, tab.Layout))
}

func TestFromSnapshotPrunesDanglingReferences(t *testing.T) {
	snap := Snapshot{
		Tabs: []Tab{
			{ID: "t1", NodeID: "n1", Layout: layout.NewSplit(layout.DirectionRow, layout.Leaf("p1"), layout.Leaf("ghost"), 50)},
			{ID: "t1", NodeID: "n1", Layout: layout.Leaf("p9")},
			{ID: "t2", NodeID: "n1", Layout: layout.Leaf("gone")},
			{ID: "t3", NodeID: "retired", Layout: layout.Leaf("p3")},
			{ID: "t4", NodeID: "n1", Layout: layout.Leaf("p4")},
		},
		Panes: map[string]Pane{
			"p1":     {TabID: "t1", Type: PaneTypeTerminal, Status: PaneStatusIdle},
			"p3":     {ID: "p3", TabID: "t3", Type: PaneTypeTerminal},
			"p4":     {ID: "p4", TabID: "t4", Type: PaneTypeDashboard},
			"orphan": {ID: "orphan", TabID: "nope"},
			"p5":     {ID: "mismatch", TabID: "t1"},
		},
		ActiveTabByNode:  map[string]string{"n1": "t2", "retired": "t3"},
		HistoryByNode:    map[string][]string{"n1": {"t2", "t3", "t4", "t4"}},
		FocusedPaneByTab: map[string]string{"t1": "ghost", "t4": "p1"},
	}

	st := FromSnapshot(snap, SanitizeOptions{KnownNodes: []string{"n1"}})

	assert.Equal(t, 2, st.TabCount())
	assert.Equal(t, 2, st.PaneCount())
	_, ok := st.Tab("t2")
	assert.False(t, ok, "tab whose panes are all gone is dropped")
	_, ok = st.Tab("t3")
	assert.False(t, ok, "tab on unknown node is dropped")
	_, ok = st.Pane("orphan")
	assert.False(t, ok)

	t1, _ := st.Tab("t1")
	assert.Equal(t, layout.Leaf("p1"), t1.Layout)
	assert.Equal(t, "Terminal", t1.DisplayName())

	assert.Equal(t, "t4", st.ActiveTabID("n1"))
	assert.Empty(t, st.History("n1"))
	assert.Equal(t, "p1", st.FocusedPaneID("t1"))
	assert.Equal(t, "p4", st.FocusedPaneID("t4"))
	assert.Equal(t, "", st.ActiveTabID("retired"))
}

func TestFromSnapshotDropsRepeatedLeaves(t *testing.T) {
	snap := Snapshot{
		Tabs: []Tab{{ID: "t1", NodeID: "n1", Layout: layout.NewSplit(layout.DirectionRow,
			layout.Leaf("p1"),
			layout.NewSplit(layout.DirectionColumn, layout.Leaf("p2"), layout.Leaf("p1"), 50),
			50)}},
		Panes: map[string]Pane{
			"p1": {ID: "p1", TabID: "t1", Type: PaneTypeTerminal},
			"p2": {ID: "p2", TabID: "t1", Type: PaneTypeTerminal},
		},
	}

	st := FromSnapshot(snap, SanitizeOptions{})

	t1, ok := st.Tab("t1")
	require.True(t, ok)
	assert.Equal(t, []string{"p1", "p2"}, layout.ExtractPaneIDs(t1.Layout))
	assert.Len(t, st.PanesForTab("t1"), 2)
}

func TestFromSnapshotEmpty(t *testing.T) {
	st := FromSnapshot(Snapshot{}, SanitizeOptions{})
	require.NotNil(t, st)
	assert.Equal(t, 0, st.TabCount())
	assert.Empty(t, st.Nodes())
}
