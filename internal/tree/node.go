package tree

import (
	"strings"

	"github.com/agentic-research/axtree/internal/ax"
)

// Node is a live node owned by a Tree. Nodes are only valid until the
// update that destroys them finishes; callers must not keep them across
// updates. The data returned by Data must not be modified.
type Node struct {
	tree   *Tree
	id     ax.NodeID
	parent *Node
	data   ax.NodeData

	children               []*Node
	indexInParent          int
	unignoredIndexInParent int
	unignoredChildCount    int
	ignored                bool

	computed *computedData
}

// computedData holds values derived from a node and its subtree. It is
// dropped whenever the node or one of its descendants changes.
type computedData struct {
	name      string
	nameValid bool
}

func newNode(t *Tree, parent *Node, id ax.NodeID, indexInParent, unignoredIndexInParent int) *Node {
	return &Node{
		tree:                   t,
		id:                     id,
		parent:                 parent,
		indexInParent:          indexInParent,
		unignoredIndexInParent: unignoredIndexInParent,
		data:                   ax.NodeData{ID: id},
	}
}

func (n *Node) ID() ax.NodeID { return n.id }

func (n *Node) Tree() *Tree { return n.tree }

// Data returns the node's current record.
func (n *Node) Data() *ax.NodeData { return &n.data }

func (n *Node) Role() ax.Role { return n.data.Role }

func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) ChildCount() int { return len(n.children) }

func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *Node) IndexInParent() int { return n.indexInParent }

// IsIgnored reports the ignored state computed when the node's data was
// last set, including the focused-node exception.
func (n *Node) IsIgnored() bool { return n.ignored }

func (n *Node) IsInvisibleOrIgnored() bool {
	return n.ignored || n.data.IsInvisible()
}

func (n *Node) HasState(s ax.State) bool { return n.data.HasState(s) }

func (n *Node) GetString(a ax.StringAttribute) string { return n.data.GetString(a) }

func (n *Node) IntAttribute(a ax.IntAttribute) (int32, bool) { return n.data.IntAttribute(a) }

func (n *Node) GetBool(a ax.BoolAttribute) bool { return n.data.GetBool(a) }

// UnignoredParent returns the nearest ancestor that is not ignored.
func (n *Node) UnignoredParent() *Node {
	p := n.parent
	for p != nil && p.IsIgnored() {
		p = p.parent
	}
	return p
}

func (n *Node) UnignoredChildCount() int { return n.unignoredChildCount }

func (n *Node) UnignoredIndexInParent() int { return n.unignoredIndexInParent }

// UnignoredChildren returns the unignored children, descending through
// ignored children in place.
func (n *Node) UnignoredChildren() []*Node {
	out := make([]*Node, 0, n.unignoredChildCount)
	return n.appendUnignoredChildren(out)
}

func (n *Node) appendUnignoredChildren(out []*Node) []*Node {
	for _, c := range n.children {
		if c.IsIgnored() {
			out = c.appendUnignoredChildren(out)
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsDescendantOf reports whether ancestor is n or one of its ancestors.
func (n *Node) IsDescendantOf(ancestor *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// SubtreeCount returns the number of nodes rooted at n, n included.
func (n *Node) SubtreeCount() int {
	count := 1
	for _, c := range n.children {
		count += c.SubtreeCount()
	}
	return count
}

// ComputedName returns the name attribute, or the concatenated names of
// the unignored descendants when the node has none.
func (n *Node) ComputedName() string {
	if n.computed != nil && n.computed.nameValid {
		return n.computed.name
	}
	name, ok := n.data.StringAttribute(ax.StringAttributeName)
	if !ok {
		var parts []string
		for _, c := range n.UnignoredChildren() {
			if s := c.ComputedName(); s != "" {
				parts = append(parts, s)
			}
		}
		name = strings.Join(parts, " ")
	}
	if n.computed == nil {
		n.computed = &computedData{}
	}
	n.computed.name = name
	n.computed.nameValid = true
	return name
}

func (n *Node) clearComputedData() { n.computed = nil }

func (n *Node) setData(src *ax.NodeData) {
	n.data = src.Clone()
	n.ignored = n.tree.computeNodeIsIgnored(&n.tree.data, &n.data)
}

func (n *Node) setIndexInParent(i int) { n.indexInParent = i }

func (n *Node) swapChildren(children *[]*Node) {
	n.children, *children = *children, n.children
}

// updateUnignoredCachedValues recomputes the unignored child count of n
// and the unignored indices of its children.
func (n *Node) updateUnignoredCachedValues() {
	n.computed = nil
	if !n.IsIgnored() {
		n.updateUnignoredCachedValuesRecursive(0)
	}
}

func (n *Node) updateUnignoredCachedValuesRecursive(start int) int {
	count := 0
	for _, c := range n.children {
		if c.IsIgnored() {
			c.unignoredIndexInParent = 0
			count += c.updateUnignoredCachedValuesRecursive(start + count)
		} else {
			c.unignoredIndexInParent = start + count
			count++
		}
	}
	n.unignoredChildCount = count
	return count
}

func (n *Node) String() string { return n.data.String() }
