package workspace

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/asheshgoplani/workdeck/internal/layout"
)

// maxTabNameWidth bounds generated tab names in terminal cells.
const maxTabNameWidth = 40

// refreshName regenerates the tab's automatic name from its panes.
func (s *State) refreshName(tabID string) {
	t, ok := s.tabs[tabID]
	if !ok {
		return
	}
	ids := layout.ExtractPaneIDs(t.Layout)
	if len(ids) == 0 {
		return
	}
	name := s.panes[ids[0]].Label()
	if len(ids) > 1 {
		name = fmt.Sprintf("%s +%d", name, len(ids)-1)
	}
	t.Name = TruncateName(name, maxTabNameWidth)
	s.tabs[tabID] = t
}

// TruncateName shortens name to width display cells, marking the cut.
func TruncateName(name string, width int) string {
	if runewidth.StringWidth(name) <= width {
		return name
	}
	return runewidth.Truncate(name, width, "…")
}

// tabSource adapts a node's tabs to fuzzy.Source.
type tabSource []Tab

func (t tabSource) String(i int) string { return t[i].DisplayName() }
func (t tabSource) Len() int            { return len(t) }

// SearchTabs ranks the node's tabs by fuzzy match of query against their
// display names. An empty query returns every tab in registry order.
func (s *State) SearchTabs(nodeID, query string) []Tab {
	tabs := s.TabsForNode(nodeID)
	if query == "" {
		return tabs
	}
	matches := fuzzy.FindFrom(query, tabSource(tabs))
	out := make([]Tab, 0, len(matches))
	for _, m := range matches {
		out = append(out, tabs[m.Index])
	}
	return out
}
