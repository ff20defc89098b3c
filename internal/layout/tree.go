package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Direction is the axis along which a split divides its area.
type Direction string

const (
	// DirectionRow places children side by side (first on the left).
	DirectionRow Direction = "row"
	// DirectionColumn stacks children (first on top).
	DirectionColumn Direction = "column"
)

// Branch selects one child of a split.
type Branch string

const (
	BranchFirst  Branch = "first"
	BranchSecond Branch = "second"
)

// Path is the sequence of branches from the root to a subtree.
// An empty path addresses the root itself.
type Path []Branch

// DefaultSplitPercentage is the share given to the first child of a new split.
const DefaultSplitPercentage = 50.0

// Node is a split tree: either a Leaf or a *Split. A nil Node is the empty
// tree, which callers treat as "remove the tab".
type Node interface {
	isNode()
}

// Leaf is a single pane.
type Leaf string

func (Leaf) isNode() {}

// Split divides an area between two subtrees.
type Split struct {
	Direction       Direction `json:"direction"`
	First           Node      `json:"-"`
	Second          Node      `json:"-"`
	SplitPercentage float64   `json:"splitPercentage"`
}

func (*Split) isNode() {}

// NewSplit builds a split node.
func NewSplit(dir Direction, first, second Node, pct float64) *Split {
	return &Split{Direction: dir, First: first, Second: second, SplitPercentage: pct}
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Leaf:
		bv, ok := b.(Leaf)
		return ok && av == bv
	case *Split:
		bv, ok := b.(*Split)
		if !ok || av == nil || bv == nil {
			return ok && av == bv
		}
		return av.Direction == bv.Direction &&
			av.SplitPercentage == bv.SplitPercentage &&
			Equal(av.First, bv.First) &&
			Equal(av.Second, bv.Second)
	}
	return false
}

// Count returns the number of leaves in the tree.
func Count(tree Node) int {
	switch n := tree.(type) {
	case Leaf:
		return 1
	case *Split:
		return Count(n.First) + Count(n.Second)
	}
	return 0
}

// wireSplit is the JSON shape of a split node.
type wireSplit struct {
	Direction       Direction       `json:"direction"`
	First           json.RawMessage `json:"first"`
	Second          json.RawMessage `json:"second"`
	SplitPercentage float64         `json:"splitPercentage"`
}

// Marshal encodes a tree. Leaves are JSON strings and splits are objects.
func Marshal(tree Node) ([]byte, error) {
	switch n := tree.(type) {
	case nil:
		return []byte("null"), nil
	case Leaf:
		return json.Marshal(string(n))
	case *Split:
		first, err := Marshal(n.First)
		if err != nil {
			return nil, err
		}
		second, err := Marshal(n.Second)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireSplit{
			Direction:       n.Direction,
			First:           first,
			Second:          second,
			SplitPercentage: n.SplitPercentage,
		})
	}
	return nil, fmt.Errorf("unknown layout node %T", tree)
}

// Unmarshal decodes a tree produced by Marshal. A split missing one side
// collapses to the other side; a split missing both decodes to nil.
func Unmarshal(data []byte) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return nil, fmt.Errorf("decode layout leaf: %w", err)
		}
		if id == "" {
			return nil, nil
		}
		return Leaf(id), nil
	}

	var w wireSplit
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode layout split: %w", err)
	}
	first, err := Unmarshal(w.First)
	if err != nil {
		return nil, err
	}
	second, err := Unmarshal(w.Second)
	if err != nil {
		return nil, err
	}
	switch {
	case first == nil:
		return second, nil
	case second == nil:
		return first, nil
	}
	dir := w.Direction
	if dir != DirectionColumn {
		dir = DirectionRow
	}
	pct := w.SplitPercentage
	if pct <= 0 || pct >= 100 {
		pct = DefaultSplitPercentage
	}
	return NewSplit(dir, first, second, pct), nil
}
