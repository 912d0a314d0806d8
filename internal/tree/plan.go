package tree

import (
	"slices"

	"github.com/agentic-research/axtree/internal/ax"
)

// computePendingChanges walks the update against the current tree and
// fills s with every creation, destruction and invalidation the apply
// phase will perform. It never modifies the tree. Any structural error
// is reported here, before observers hear about the update.
func (t *Tree) computePendingChanges(s *updateState) error {
	s.status = pendingComputing
	if t.root != nil {
		s.pendingRootID = t.root.id
	}
	defer func() { s.pendingRootID = ax.InvalidNodeID }()

	update := s.update
	if update.HasTreeData && !t.data.Equal(update.TreeData) {
		oldTD, newTD := t.data, update.TreeData
		s.oldTreeData = &oldTD
		s.newTreeData = &newTD
	}

	// Replacing the root is signalled by a new root id; updating it in
	// place by clearing the current root id.
	if update.NodeIDToClear != ax.InvalidNodeID {
		if cleared := t.idMap[update.NodeIDToClear]; cleared != nil {
			if cleared == t.root && update.RootID != s.pendingRootID {
				t.markSubtreeForDestruction(s.pendingRootID, s)
			}
			if s.shouldPendingNodeExistInTree(t.root.id) {
				s.invalidateUnignoredIDs.Insert(cleared.id)
				s.clearLastKnownPendingNodeData(cleared.id)
				for _, c := range cleared.children {
					t.markSubtreeForDestruction(c.id, s)
				}
			}
		}
	}

	if update.RootID != ax.InvalidNodeID {
		s.rootWillBeCreated = t.idMap[update.RootID] == nil || !s.shouldPendingNodeExistInTree(update.RootID)
	}

	for i := range update.Nodes {
		d := &update.Nodes[i]
		if d.ID == ax.InvalidNodeID {
			s.status = pendingFailed
			return t.fail(s, ErrNotInTree, "Node record %d has an invalid id", i)
		}
		isNewRoot := s.rootWillBeCreated && d.ID == update.RootID
		if err := t.computePendingChangesToNode(d, isNewRoot, s); err != nil {
			s.status = pendingFailed
			return err
		}
	}

	// Every id that will exist must have been given a record by now.
	for _, id := range s.pendingOrder {
		if s.pending[id].needsLastKnownData() {
			s.status = pendingFailed
			return t.fail(s, ErrNotInTree,
				"%d will be in the tree but no data was supplied for it", id)
		}
	}

	s.status = pendingComplete
	return nil
}

func (t *Tree) computePendingChangesToNode(d *ax.NodeData, isNewRoot bool, s *updateState) error {
	// A child whose position changed invalidates its parent's unignored
	// index cache.
	for j, childID := range d.ChildIDs {
		if n := t.idMap[childID]; n != nil && n.indexInParent != j {
			s.invalidateParentNodeUnignoredCacheValues(n.id)
		}
	}

	if !s.shouldPendingNodeExistInTree(d.ID) {
		if !isNewRoot {
			return t.fail(s, ErrNotInTree, "%d will not be in the tree and is not the new root", d.ID)
		}
		// Creation is implicit for a new root; a second record for the
		// same id would make it a duplicate.
		if !s.incrementPendingCreateNodeCount(d.ID, ax.InvalidNodeID) {
			return t.fail(s, ErrCreationPending,
				"Node %d is already pending for creation, cannot be the new root", d.ID)
		}
		if s.pendingRootID != ax.InvalidNodeID {
			t.markSubtreeForDestruction(s.pendingRootID, s)
		}
		s.pendingRootID = d.ID
	}

	newChildIDs := sortedUnique(d.ChildIDs)
	if dup := len(d.ChildIDs) - len(newChildIDs); dup > 0 {
		return t.fail(s, ErrDuplicateChild, "Node %d has %d duplicate child ids", d.ID, dup)
	}

	node := t.idMap[d.ID]
	clearedViaNodeIDToClear := false

	// No last known data means the node is new or was cleared. Either
	// way all of its children are created.
	if s.needsLastKnownData(d.ID) {
		s.invalidateUnignoredIDs.Insert(d.ID)
		s.invalidateParentNodeUnignoredCacheValues(d.ID)
		clearedViaNodeIDToClear = node != nil

		for _, childID := range newChildIDs {
			s.invalidateUnignoredIDs.Insert(childID)
			if !s.incrementPendingCreateNodeCount(childID, d.ID) {
				return t.fail(s, ErrCreationPendingForChild,
					"Node %d is already pending for creation, cannot be a new child", childID)
			}
		}
		s.setLastKnownPendingNodeData(d)
		if !clearedViaNodeIDToClear {
			return nil
		}
	}

	var oldData *ax.NodeData
	if clearedViaNodeIDToClear {
		oldData = &node.data
	} else {
		oldData = s.lastKnownPendingNodeData(d.ID)
	}

	oldTD, newTD := s.treeDataForIgnored()
	if t.computeNodeIsIgnoredChanged(oldTD, oldData, newTD, d) {
		s.ignoredStateChangedIDs.Insert(d.ID)
	}
	if clearedViaNodeIDToClear {
		// Descendants were already marked when the clear was planned.
		return nil
	}

	diff := symmetricDifference(sortedUnique(oldData.ChildIDs), newChildIDs)
	if len(diff) > 0 || s.hasIgnoredChanged(d) {
		s.invalidateUnignoredIDs.Insert(d.ID)
		s.invalidateParentNodeUnignoredCacheValues(d.ID)
	}

	for _, childID := range diff {
		if _, added := slices.BinarySearch(newChildIDs, childID); !added {
			t.markSubtreeForDestruction(childID, s)
			continue
		}
		// A node must be removed from its old parent before it can be
		// attached to a new one.
		if s.shouldPendingNodeExistInTree(childID) {
			return t.fail(s, ErrReparent,
				"Node %d is not marked for destruction, would be reparented to %d", childID, d.ID)
		}
		s.invalidateUnignoredIDs.Insert(childID)
		if !s.incrementPendingCreateNodeCount(childID, d.ID) {
			return t.fail(s, ErrCreationPendingForChild,
				"Node %d is already pending for creation, cannot be a new child", childID)
		}
	}

	s.setLastKnownPendingNodeData(d)
	return nil
}

func (t *Tree) markSubtreeForDestruction(id ax.NodeID, s *updateState) {
	s.incrementPendingDestroySubtreeCount(id)
	t.markNodesForDestructionRecursive(id, s)
}

func (t *Tree) markNodesForDestructionRecursive(id ax.NodeID, s *updateState) {
	// Already marked.
	if !s.shouldPendingNodeExistInTree(id) {
		return
	}
	last := s.lastKnownPendingNodeData(id)
	s.incrementPendingDestroyNodeCount(id)
	for _, childID := range last.ChildIDs {
		t.markNodesForDestructionRecursive(childID, s)
	}
}

func sortedUnique(ids []ax.NodeID) []ax.NodeID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// symmetricDifference merges two sorted, duplicate-free lists and returns
// the ids present in exactly one of them, in order.
func symmetricDifference(a, b []ax.NodeID) []ax.NodeID {
	var out []ax.NodeID
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
