package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateHistoryStack(t *testing.T) {
	tests := []struct {
		name    string
		stack   []string
		prev    string
		next    string
		removed string
		want    []string
	}{
		{"push previous", []string{"a"}, "b", "c", "", []string{"b", "a"}},
		{"new active leaves stack", []string{"c", "a"}, "b", "c", "", []string{"b", "a"}},
		{"dedupe previous", []string{"a", "b"}, "b", "c", "", []string{"b", "a"}},
		{"same tab", []string{"a"}, "b", "b", "", []string{"a"}},
		{"strip removed", []string{"a", "x", "b"}, "", "c", "x", []string{"a", "b"}},
		{"no previous", nil, "", "a", "", []string{}},
		{"removed previous not pushed", []string{"a"}, "x", "b", "x", []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateHistoryStack(tt.stack, tt.prev, tt.next, tt.removed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateHistoryStackInvariants(t *testing.T) {
	stack := []string{}
	active := ""
	for _, next := range []string{"a", "b", "a", "c", "c", "b", "d", "a"} {
		stack = UpdateHistoryStack(stack, active, next, "")
		active = next

		assert.NotContains(t, stack, active)
		seen := map[string]bool{}
		for _, id := range stack {
			assert.False(t, seen[id], "duplicate %s in %v", id, stack)
			seen[id] = true
		}
	}
	assert.Equal(t, []string{"d", "b", "c"}, stack)
}

func TestResolveActiveTabIDForNode(t *testing.T) {
	tabs := []Tab{
		{ID: "t1", NodeID: "n1"},
		{ID: "t2", NodeID: "n1"},
		{ID: "t3", NodeID: "n2"},
	}

	t.Run("valid pointer", func(t *testing.T) {
		got := ResolveActiveTabIDForNode("n1", tabs,
			map[string]string{"n1": "t2"},
			map[string][]string{"n1": {"t1"}})
		assert.Equal(t, "t2", got)
	})

	t.Run("stale pointer falls back to history", func(t *testing.T) {
		got := ResolveActiveTabIDForNode("n1", tabs,
			map[string]string{"n1": "gone"},
			map[string][]string{"n1": {"gone-too", "t3", "t2"}})
		assert.Equal(t, "t2", got)
	})

	t.Run("foreign pointer falls back to first tab", func(t *testing.T) {
		got := ResolveActiveTabIDForNode("n1", tabs,
			map[string]string{"n1": "t3"},
			nil)
		assert.Equal(t, "t1", got)
	})

	t.Run("no tabs", func(t *testing.T) {
		got := ResolveActiveTabIDForNode("n9", tabs,
			map[string]string{"n9": "t1"},
			map[string][]string{"n9": {"t1"}})
		assert.Equal(t, "", got)
	})
}

func TestCloseActiveTabUsesHistory(t *testing.T) {
	s := newTestStore()
	t1 := s.AddTab("n1", PaneOptions{}).TabID
	t2 := s.AddTab("n1", PaneOptions{}).TabID
	t3 := s.AddTab("n1", PaneOptions{}).TabID

	s.SetActiveTab("n1", t1)
	s.SetActiveTab("n1", t3)
	s.SetActiveTab("n1", t2)
	assert.Equal(t, []string{t3, t1}, s.State().History("n1"))

	assert.Equal(t, t3, FindNextTab(s.State(), t2))
	s.RemoveTab(t2)

	assert.Equal(t, t3, s.State().ActiveTabID("n1"))
	assert.Equal(t, []string{t1}, s.State().History("n1"))
}

func TestFindNextTabFallbacks(t *testing.T) {
	s := newTestStore()
	t1 := s.AddTab("n1", PaneOptions{}).TabID
	t2 := s.AddTab("n1", PaneOptions{}).TabID
	t3 := s.AddTab("n1", PaneOptions{}).TabID
	other := s.AddTab("n2", PaneOptions{}).TabID

	st := s.State().clone()
	st.history["n1"] = []string{other, "ghost"}

	assert.Equal(t, t3, FindNextTab(st, t2), "next neighbour")
	assert.Equal(t, t2, FindNextTab(st, t3), "previous neighbour when last")
	assert.Equal(t, t2, FindNextTab(st, t1))
	assert.Equal(t, "", FindNextTab(st, other), "node becomes empty")
	assert.Equal(t, "", FindNextTab(st, "missing"))
}
