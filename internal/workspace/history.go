package workspace

// UpdateHistoryStack records a switch from prevActive to newActive. The new
// active id leaves the stack, the previous one moves to the front, and
// removed (a closed tab) is stripped wherever it sits. Empty ids are ignored.
// The result never holds duplicates or newActive.
func UpdateHistoryStack(stack []string, prevActive, newActive, removed string) []string {
	out := make([]string, 0, len(stack)+1)
	seen := make(map[string]bool, len(stack)+1)
	push := func(id string) {
		if id == "" || id == newActive || id == removed || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	if prevActive != newActive {
		push(prevActive)
	}
	for _, id := range stack {
		push(id)
	}
	return out
}

// ResolveActiveTabIDForNode picks the tab a node should display: the stored
// pointer if it still names one of the node's tabs, else the first valid
// history entry, else the node's first tab, else "".
func ResolveActiveTabIDForNode(nodeID string, tabs []Tab, activeTabs map[string]string, history map[string][]string) string {
	owned := make(map[string]bool)
	first := ""
	for _, t := range tabs {
		if t.NodeID != nodeID {
			continue
		}
		owned[t.ID] = true
		if first == "" {
			first = t.ID
		}
	}
	belongs := func(id string) bool { return owned[id] }
	return resolveActive(belongs, first, activeTabs[nodeID], history[nodeID])
}

func resolveActive(belongs func(string) bool, first, pointer string, stack []string) string {
	if pointer != "" && belongs(pointer) {
		return pointer
	}
	for _, id := range stack {
		if belongs(id) {
			return id
		}
	}
	return first
}

// FindNextTab chooses the tab to show after closingTabID closes: the most
// recent valid history entry, then the positional neighbour (next, then
// previous), then any other tab of the node. It returns "" when the node
// would be left without tabs.
func FindNextTab(s *State, closingTabID string) string {
	closing, ok := s.tabs[closingTabID]
	if !ok {
		return ""
	}
	nodeID := closing.NodeID
	belongs := func(id string) bool {
		t, ok := s.tabs[id]
		return ok && id != closingTabID && t.NodeID == nodeID
	}

	for _, id := range s.history[nodeID] {
		if belongs(id) {
			return id
		}
	}

	order := s.nodeTabs[nodeID]
	if i := indexOf(order, closingTabID); i >= 0 {
		if i+1 < len(order) && belongs(order[i+1]) {
			return order[i+1]
		}
		if i-1 >= 0 && belongs(order[i-1]) {
			return order[i-1]
		}
	}

	for _, id := range order {
		if belongs(id) {
			return id
		}
	}
	return ""
}

func indexOf(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
