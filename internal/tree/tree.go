// Package tree maintains an accessibility tree and applies incremental
// updates to it atomically. An update is first planned against a
// read-only view of the tree, then applied, and observers are notified
// before and after the mutation.
package tree

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/axtree/internal/ax"
)

// Recorder receives per-update measurements. internal/metrics provides a
// Prometheus implementation.
type Recorder interface {
	UnserializeSucceeded(d time.Duration, updateNodes, treeNodes int)
	UnserializeFailed(kind string)
	TreeDestroyed(d time.Duration)
}

// Options configures a Tree.
type Options struct {
	// FocusedNodeAlwaysUnignored makes the node named by the tree data's
	// focus id count as unignored even when its data says otherwise.
	FocusedNodeAlwaysUnignored bool

	Logger   *slog.Logger
	Recorder Recorder
}

// Tree is a rooted tree of Nodes keyed by id. A Tree is not safe for
// concurrent use; callers serialize access (see internal/replay).
type Tree struct {
	opts   Options
	logger *slog.Logger

	root      *Node
	idMap     map[ax.NodeID]*Node
	data      ax.TreeData
	observers []Observer

	updateInProgress bool
	unserializing    bool
	destroyed        bool
	errText          string

	intReverse       map[ax.IntAttribute]map[ax.NodeID]*roaring.Bitmap
	intListReverse   map[ax.IntListAttribute]map[ax.NodeID]*roaring.Bitmap
	childTreeReverse map[string]*roaring.Bitmap

	setInfo map[ax.NodeID]*orderedSetInfo
	caches  []DerivedCache

	nextNegativeID ax.NodeID
	hasPagination  bool
}

// New returns an empty tree with no root.
func New(opts Options) *Tree {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tree{
		opts:             opts,
		logger:           logger.With("component", "axtree"),
		idMap:            make(map[ax.NodeID]*Node),
		intReverse:       make(map[ax.IntAttribute]map[ax.NodeID]*roaring.Bitmap),
		intListReverse:   make(map[ax.IntListAttribute]map[ax.NodeID]*roaring.Bitmap),
		childTreeReverse: make(map[string]*roaring.Bitmap),
		setInfo:          make(map[ax.NodeID]*orderedSetInfo),
		nextNegativeID:   -1,
	}
}

// NewFromUpdate returns a tree initialized with update.
func NewFromUpdate(opts Options, update ax.TreeUpdate) (*Tree, error) {
	t := New(opts)
	if err := t.Unserialize(update); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) Root() *Node { return t.root }

// GetFromID returns the node with the given id, or nil.
func (t *Tree) GetFromID(id ax.NodeID) *Node { return t.idMap[id] }

func (t *Tree) Data() ax.TreeData { return t.data }

// UnignoredAncestor returns the nearest unignored ancestor of the node
// with the given id, or nil.
func (t *Tree) UnignoredAncestor(id ax.NodeID) *Node {
	n := t.GetFromID(id)
	if n == nil {
		return nil
	}
	return n.UnignoredParent()
}

func (t *Tree) TreeID() string { return t.data.TreeID }

// Size returns the number of live nodes.
func (t *Tree) Size() int { return len(t.idMap) }

// ErrorLog returns the accumulated diagnostics of failed updates, one
// per line, oldest first.
func (t *Tree) ErrorLog() string { return t.errText }

func (t *Tree) UpdateInProgress() bool { return t.updateInProgress }

func (t *Tree) IsDestroyed() bool { return t.destroyed }

// HasPaginationSupport reports whether any applied record carried the
// page-breaking attribute.
func (t *Tree) HasPaginationSupport() bool { return t.hasPagination }

// NextNegativeInternalNodeID returns an id for a node synthesized by the
// tree itself. Ids start at -1 and decrease, skipping ids in use.
func (t *Tree) NextNegativeInternalNodeID() ax.NodeID {
	for {
		id := t.nextNegativeID
		t.nextNegativeID--
		if t.nextNegativeID > 0 {
			t.nextNegativeID = -1
		}
		if t.idMap[id] == nil {
			return id
		}
	}
}

func (t *Tree) computeNodeIsIgnored(treeData *ax.TreeData, data *ax.NodeData) bool {
	ignored := data.IsIgnored()
	if ignored && t.opts.FocusedNodeAlwaysUnignored && treeData != nil &&
		treeData.FocusID != ax.InvalidNodeID && treeData.FocusID == data.ID {
		ignored = false
	}
	return ignored
}

func (t *Tree) computeNodeIsIgnoredChanged(oldTreeData *ax.TreeData, oldData *ax.NodeData, newTreeData *ax.TreeData, newData *ax.NodeData) bool {
	if oldData == nil || newData == nil {
		return false
	}
	return t.computeNodeIsIgnored(oldTreeData, oldData) != t.computeNodeIsIgnored(newTreeData, newData)
}

// Destroy tears the tree down, notifying observers about every node.
// Any later Unserialize fails with ErrDestroyed.
func (t *Tree) Destroy() {
	start := time.Now()
	for _, c := range t.caches {
		c.Reset()
	}
	t.destroyed = true
	if t.root == nil {
		return
	}

	var deleting IDSet
	t.notifyNodesWillBeDeletedRecursive(t.root, &deleting)
	t.notify(func(o Observer) { o.OnAtomicUpdateStarting(t, deleting.Clone(), IDSet{}) })

	t.updateInProgress = true
	t.destroyNodeAndSubtree(t.root, nil)
	t.root = nil
	t.updateInProgress = false

	if t.opts.Recorder != nil {
		t.opts.Recorder.TreeDestroyed(time.Since(start))
	}
}

func (t *Tree) notifyNodesWillBeDeletedRecursive(n *Node, deleting *IDSet) {
	deleting.Insert(n.id)
	t.notify(func(o Observer) { o.OnNodeWillBeDeleted(t, n) })
	for _, c := range n.children {
		t.notifyNodesWillBeDeletedRecursive(c, deleting)
	}
}

// String dumps the tree, one node per line, indented by depth.
func (t *Tree) String() string { return t.Dump(false) }

// Dump is String with per-node cached values appended when verbose.
func (t *Tree) Dump(verbose bool) string {
	var b strings.Builder
	b.WriteString(t.data.String())
	b.WriteByte('\n')
	if t.root != nil {
		t.dump(&b, t.root, 0, verbose)
	}
	return b.String()
}

func (t *Tree) dump(b *strings.Builder, n *Node, depth int, verbose bool) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.data.String())
	if verbose {
		fmt.Fprintf(b, " index_in_parent=%d unignored_index_in_parent=%d unignored_child_count=%d",
			n.indexInParent, n.unignoredIndexInParent, n.unignoredChildCount)
		if n.ignored != n.data.IsIgnored() {
			b.WriteString(" focused_unignored")
		}
	}
	b.WriteByte('\n')
	for _, c := range n.children {
		t.dump(b, c, depth+1, verbose)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
