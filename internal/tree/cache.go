package tree

import "github.com/agentic-research/axtree/internal/ax"

// DerivedCache is per-node state computed outside the tree from a node
// and its descendants, such as a table layout. The tree keeps registered
// caches coherent across updates.
type DerivedCache interface {
	// Invalidate marks the entry for id stale. It is called for every
	// ancestor of a node whose data changed, the node itself included.
	Invalidate(id ax.NodeID)
	// Drop forgets id. It is called before a node is deleted or moved.
	Drop(id ax.NodeID)
	// Reset forgets every entry. It is called by Destroy.
	Reset()
}

// AddDerivedCache registers c. Adding the same cache twice is a no-op;
// caches are matched like observers.
func (t *Tree) AddDerivedCache(c DerivedCache) {
	for _, e := range t.caches {
		if sameInstance(e, c) {
			return
		}
	}
	t.caches = append(t.caches, c)
}

func (t *Tree) invalidateDerived(id ax.NodeID) {
	for _, c := range t.caches {
		c.Invalidate(id)
	}
}

func (t *Tree) dropDerived(id ax.NodeID) {
	for _, c := range t.caches {
		c.Drop(id)
	}
}
