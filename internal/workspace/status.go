package workspace

// ActivationStatus is the status a pane takes when its tab is activated by
// the user. A blocked prompt is assumed to be about to be answered and a
// finished task counts as seen; working stays working.
func ActivationStatus(s PaneStatus) PaneStatus {
	switch s {
	case PaneStatusPermission:
		return PaneStatusWorking
	case PaneStatusReview:
		return PaneStatusIdle
	}
	return s
}

// RestoredStatus is the status a persisted pane takes after a restart. No
// process can be live at load time, so working and permission fall back to
// idle; an unseen review survives.
func RestoredStatus(s PaneStatus) PaneStatus {
	switch s {
	case PaneStatusWorking, PaneStatusPermission, "":
		return PaneStatusIdle
	}
	if !s.Valid() {
		return PaneStatusIdle
	}
	return s
}

// acknowledgeTab applies ActivationStatus to every pane of the tab and
// reports whether anything changed.
func (s *State) acknowledgeTab(tabID string) bool {
	changed := false
	for id := range s.tabPanes[tabID] {
		p := s.panes[id]
		if next := ActivationStatus(p.Status); next != p.Status {
			p.Status = next
			s.panes[id] = p
			changed = true
		}
	}
	return changed
}

// tabNeedsAck reports whether acknowledging the tab would change a pane.
func (s *State) tabNeedsAck(tabID string) bool {
	for id := range s.tabPanes[tabID] {
		if st := s.panes[id].Status; ActivationStatus(st) != st {
			return true
		}
	}
	return false
}

// NeedsAttention reports whether any pane of the node is blocked or has
// unseen output.
func (s *State) NeedsAttention(nodeID string) bool {
	for _, tabID := range s.nodeTabs[nodeID] {
		for id := range s.tabPanes[tabID] {
			switch s.panes[id].Status {
			case PaneStatusPermission, PaneStatusReview:
				return true
			}
		}
	}
	return false
}
