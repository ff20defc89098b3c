package layout

// ExtractPaneIDs returns every leaf in visual order (first before second).
func ExtractPaneIDs(tree Node) []string {
	var ids []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case Leaf:
			ids = append(ids, string(v))
		case *Split:
			walk(v.First)
			walk(v.Second)
		}
	}
	walk(tree)
	return ids
}

// FindPanePath returns the branches leading from the root to the leaf.
func FindPanePath(tree Node, paneID string) (Path, bool) {
	switch n := tree.(type) {
	case Leaf:
		if string(n) == paneID {
			return Path{}, true
		}
	case *Split:
		if p, ok := FindPanePath(n.First, paneID); ok {
			return append(Path{BranchFirst}, p...), true
		}
		if p, ok := FindPanePath(n.Second, paneID); ok {
			return append(Path{BranchSecond}, p...), true
		}
	}
	return nil, false
}

// NodeAt returns the subtree at path.
func NodeAt(tree Node, path Path) (Node, bool) {
	cur := tree
	for _, b := range path {
		s, ok := cur.(*Split)
		if !ok {
			return nil, false
		}
		if b == BranchFirst {
			cur = s.First
		} else {
			cur = s.Second
		}
	}
	return cur, cur != nil
}

// AddPaneToLayout splits the whole tree evenly with the new pane on the right.
func AddPaneToLayout(tree Node, paneID string) Node {
	if tree == nil {
		return Leaf(paneID)
	}
	return NewSplit(DirectionRow, tree, Leaf(paneID), DefaultSplitPercentage)
}

// BuildMultiPaneLayout returns a balanced tree whose leaves, in order, are ids.
func BuildMultiPaneLayout(ids []string) Node {
	switch len(ids) {
	case 0:
		return nil
	case 1:
		return Leaf(ids[0])
	}
	mid := (len(ids) + 1) / 2
	first := BuildMultiPaneLayout(ids[:mid])
	second := BuildMultiPaneLayout(ids[mid:])
	return NewSplit(DirectionRow, first, second, DefaultSplitPercentage)
}

// RemovePaneFromLayout drops the leaf and promotes its sibling into the
// parent's place. It returns nil when the tree was exactly that leaf and the
// tree unchanged when the leaf is absent.
func RemovePaneFromLayout(tree Node, paneID string) Node {
	switch n := tree.(type) {
	case Leaf:
		if string(n) == paneID {
			return nil
		}
		return n
	case *Split:
		if l, ok := n.First.(Leaf); ok && string(l) == paneID {
			return n.Second
		}
		if l, ok := n.Second.(Leaf); ok && string(l) == paneID {
			return n.First
		}
		first := RemovePaneFromLayout(n.First, paneID)
		second := RemovePaneFromLayout(n.Second, paneID)
		if first == n.First && second == n.Second {
			return n
		}
		return rejoin(n, first, second)
	}
	return tree
}

// CleanLayout removes every leaf not in valid and every repeat of a leaf
// already seen in visual order, collapsing splits that lose a side. It
// returns nil when no valid leaf remains.
func CleanLayout(tree Node, valid map[string]bool) Node {
	return cleanLayout(tree, valid, make(map[string]bool))
}

func cleanLayout(tree Node, valid, seen map[string]bool) Node {
	switch n := tree.(type) {
	case Leaf:
		if !valid[string(n)] || seen[string(n)] {
			return nil
		}
		seen[string(n)] = true
		return n
	case *Split:
		first := cleanLayout(n.First, valid, seen)
		second := cleanLayout(n.Second, valid, seen)
		if first == n.First && second == n.Second {
			return n
		}
		return rejoin(n, first, second)
	}
	return nil
}

// rejoin rebuilds a split from possibly-emptied children.
func rejoin(orig *Split, first, second Node) Node {
	switch {
	case first == nil && second == nil:
		return nil
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return NewSplit(orig.Direction, first, second, orig.SplitPercentage)
}

// FirstPaneID returns the leftmost/topmost leaf.
func FirstPaneID(tree Node) (string, bool) {
	for {
		switch n := tree.(type) {
		case Leaf:
			return string(n), true
		case *Split:
			tree = n.First
		default:
			return "", false
		}
	}
}

// NextPaneID returns the cyclic successor of currentID. It falls back to the
// first leaf when currentID is unknown and reports false for a single pane.
func NextPaneID(tree Node, currentID string) (string, bool) {
	ids := ExtractPaneIDs(tree)
	if len(ids) <= 1 {
		return "", false
	}
	i := indexOf(ids, currentID)
	if i < 0 {
		return ids[0], true
	}
	return ids[(i+1)%len(ids)], true
}

// PreviousPaneID returns the cyclic predecessor of currentID. It falls back
// to the last leaf when currentID is unknown.
func PreviousPaneID(tree Node, currentID string) (string, bool) {
	ids := ExtractPaneIDs(tree)
	if len(ids) <= 1 {
		return "", false
	}
	i := indexOf(ids, currentID)
	if i < 0 {
		return ids[len(ids)-1], true
	}
	return ids[(i-1+len(ids))%len(ids)], true
}

// AdjacentPaneID picks the pane that should receive focus when closingID
// closes: the next pane, or the previous one when closingID is last.
func AdjacentPaneID(tree Node, closingID string) (string, bool) {
	ids := ExtractPaneIDs(tree)
	if len(ids) <= 1 {
		return "", false
	}
	i := indexOf(ids, closingID)
	switch {
	case i < 0:
		return ids[0], true
	case i+1 < len(ids):
		return ids[i+1], true
	default:
		return ids[i-1], true
	}
}

// SplitAt replaces the subtree at path with a split of that subtree and the
// new pane. It reports false when path does not exist.
func SplitAt(tree Node, path Path, paneID string, dir Direction) (Node, bool) {
	return replaceAt(tree, path, func(old Node) Node {
		return NewSplit(dir, old, Leaf(paneID), DefaultSplitPercentage)
	})
}

// SetSplitPercentage changes the ratio of the split at path.
func SetSplitPercentage(tree Node, path Path, pct float64) (Node, bool) {
	pct = clampPercentage(pct)
	return replaceAt(tree, path, func(old Node) Node {
		s, ok := old.(*Split)
		if !ok {
			return old
		}
		return NewSplit(s.Direction, s.First, s.Second, pct)
	})
}

// Rebalance sets every split ratio proportional to the leaf counts of its
// children so panes along a run share space equally.
func Rebalance(tree Node) Node {
	s, ok := tree.(*Split)
	if !ok {
		return tree
	}
	first := Rebalance(s.First)
	second := Rebalance(s.Second)
	a, b := runCount(first, s.Direction), runCount(second, s.Direction)
	return NewSplit(s.Direction, first, second, float64(a)*100/float64(a+b))
}

// runCount counts the panes laid out along dir without crossing a split of
// the other direction.
func runCount(tree Node, dir Direction) int {
	s, ok := tree.(*Split)
	if !ok || s.Direction != dir {
		return 1
	}
	return runCount(s.First, dir) + runCount(s.Second, dir)
}

func replaceAt(tree Node, path Path, fn func(Node) Node) (Node, bool) {
	if tree == nil {
		return nil, false
	}
	if len(path) == 0 {
		return fn(tree), true
	}
	s, ok := tree.(*Split)
	if !ok {
		return tree, false
	}
	switch path[0] {
	case BranchFirst:
		child, ok := replaceAt(s.First, path[1:], fn)
		if !ok {
			return tree, false
		}
		return NewSplit(s.Direction, child, s.Second, s.SplitPercentage), true
	case BranchSecond:
		child, ok := replaceAt(s.Second, path[1:], fn)
		if !ok {
			return tree, false
		}
		return NewSplit(s.Direction, s.First, child, s.SplitPercentage), true
	}
	return tree, false
}

func clampPercentage(pct float64) float64 {
	switch {
	case pct < 5:
		return 5
	case pct > 95:
		return 95
	}
	return pct
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
