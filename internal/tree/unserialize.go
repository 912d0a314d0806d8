package tree

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentic-research/axtree/internal/ax"
)

// Unserialize applies update to the tree. It returns nil when every
// record was applied.
//
// Structural errors are found while planning, before any observer is
// notified, and leave the tree untouched. The error is an
// *UnserializeError wrapping one of the Err* sentinels and is also
// appended to ErrorLog().
//
// Calling Unserialize from inside an observer callback returns
// ErrUpdateInProgress.
func (t *Tree) Unserialize(update ax.TreeUpdate) error {
	if t.destroyed {
		return ErrDestroyed
	}
	if t.unserializing {
		return ErrUpdateInProgress
	}
	t.unserializing = true
	defer func() { t.unserializing = false }()

	start := time.Now()
	if err := t.unserialize(&update); err != nil {
		if t.opts.Recorder != nil {
			t.opts.Recorder.UnserializeFailed(ErrorKind(err))
		}
		return err
	}
	if t.opts.Recorder != nil {
		t.opts.Recorder.UnserializeSucceeded(time.Since(start), len(update.Nodes), len(t.idMap))
	}
	return nil
}

func (t *Tree) unserialize(update *ax.TreeUpdate) error {
	s := newUpdateState(t, update)
	oldRootID := ax.InvalidNodeID
	if t.root != nil {
		oldRootID = t.root.id
	}
	if oldRootID == ax.InvalidNodeID && update.RootID == ax.InvalidNodeID &&
		(!update.HasTreeData || len(update.Nodes) > 0) {
		return t.fail(s, ErrNoRoot, "Tree must have already a valid root or update must have a valid root")
	}

	if err := t.computePendingChanges(s); err != nil {
		return err
	}

	t.notifyPendingChanges(s)

	changes, err := t.applyPendingChanges(s, oldRootID)
	if err != nil {
		return err
	}

	t.notifyAppliedChanges(s, oldRootID, changes)
	t.checkTreeConsistency(s)
	return nil
}

// notifyPendingChanges fires the "Will" callbacks while the tree still
// reflects its state before the update.
func (t *Tree) notifyPendingChanges(s *updateState) {
	for _, id := range s.pendingOrder {
		p := s.pending[id]
		if !p.expectsDestroy() {
			continue
		}
		n := t.idMap[id]
		if n == nil {
			continue
		}
		if p.destroySubtreeCount > 0 {
			t.notifySubtreeWillBeReparentedOrDeleted(n, s)
		}
		if p.destroyNodeCount > 0 {
			t.notifyNodeWillBeReparentedOrDeleted(n, s)
		}
	}

	notified := make(map[ax.NodeID]bool, len(s.update.Nodes))
	for i := range s.update.Nodes {
		d := &s.update.Nodes[i]
		if s.rootWillBeCreated && d.ID == s.update.RootID {
			continue
		}
		n := t.idMap[d.ID]
		if n == nil || d.IsIgnored() || n.data.IsIgnored() || notified[d.ID] {
			continue
		}
		notified[d.ID] = true
		t.notify(func(o Observer) { o.OnNodeDataWillChange(t, &n.data, d) })
	}

	for _, id := range s.ignoredStateChangedIDs.IDs() {
		n := t.idMap[id]
		if n == nil {
			continue
		}
		willBeIgnored := !n.IsIgnored()
		// Only the topmost node of a subtree flipping together is the root
		// of the change.
		isRoot := n.parent == nil ||
			!s.ignoredStateChangedIDs.Has(n.parent.id) ||
			n.IsIgnored() != n.parent.IsIgnored()
		t.notify(func(o Observer) { o.OnIgnoredWillChange(t, n, willBeIgnored, isRoot) })
	}

	deleting, reparenting := s.deletingNodeIDs.Clone(), s.reparentingNodeIDs.Clone()
	t.notify(func(o Observer) { o.OnAtomicUpdateStarting(t, deleting, reparenting) })
}

// applyPendingChanges mutates the tree according to the plan and returns
// the change list for OnAtomicUpdateFinished.
func (t *Tree) applyPendingChanges(s *updateState, oldRootID ax.NodeID) ([]Change, error) {
	t.updateInProgress = true
	defer func() { t.updateInProgress = false }()

	update := s.update
	if s.newTreeData != nil {
		t.data = update.TreeData
	}

	rootUpdated := false
	if update.NodeIDToClear != ax.InvalidNodeID {
		// An update that names the new root as the node to clear while
		// the tree still has a different root means the old root goes.
		idToClear := update.NodeIDToClear
		if t.idMap[idToClear] == nil && update.RootID == idToClear && update.RootID != oldRootID && t.root != nil {
			idToClear = oldRootID
		}
		if cleared := t.idMap[idToClear]; cleared != nil {
			if cleared == t.root {
				if update.RootID != oldRootID {
					oldRoot := t.root
					t.root = nil
					t.destroySubtree(oldRoot, s)
				} else {
					rootUpdated = true
				}
			}
			if t.root != nil {
				for _, c := range cleared.children {
					t.destroySubtree(c, s)
				}
				cleared.children = nil
				s.pendingNodeIDs.Insert(cleared.id)
			}
		}
	}

	for i := range update.Nodes {
		d := &update.Nodes[i]
		isNewRoot := s.rootWillBeCreated && d.ID == update.RootID
		if err := t.updateNode(d, isNewRoot, s); err != nil {
			return nil, err
		}
	}

	if t.root == nil {
		return nil, t.fail(s, ErrNoRoot, "Tree has no root.")
	}
	if err := t.validatePendingChangesComplete(s); err != nil {
		return nil, err
	}

	changes := make([]Change, 0, len(update.Nodes))

	// Derived state of every ancestor of a changed node is stale.
	checked := make(map[ax.NodeID]bool)
	for i := range update.Nodes {
		n := t.idMap[update.Nodes[i].ID]
		if n == nil || !s.derivedStale(n) {
			continue
		}
		for ; n != nil && !checked[n.id]; n = n.parent {
			t.invalidateDerived(n.id)
			checked[n.id] = true
		}
	}
	clear(t.setInfo)

	visited := make(map[ax.NodeID]bool, len(update.Nodes))
	for i := range update.Nodes {
		n := t.idMap[update.Nodes[i].ID]
		if n == nil || visited[n.id] {
			continue
		}
		visited[n.id] = true
		changes = append(changes, Change{Node: n, Type: t.classifyChange(n, s, rootUpdated)})
	}

	// Computed data depends on the subtree, so clear it up to the root.
	cleared := make(map[ax.NodeID]bool)
	for _, id := range s.nodeDataChangedIDs.IDs() {
		n := t.idMap[id]
		if n == nil || !s.derivedStale(n) {
			continue
		}
		for ; n != nil; n = n.parent {
			if !cleared[n.id] {
				cleared[n.id] = true
				n.clearComputedData()
			}
		}
	}

	// Recompute unignored caches once per unignored ancestor. An ancestor
	// standing in for an ignored node is reported as changed too.
	updated := make(map[ax.NodeID]bool)
	for _, id := range s.invalidateUnignoredIDs.IDs() {
		anc := t.unignoredAncestorFromID(id)
		if anc == nil || updated[anc.id] {
			continue
		}
		updated[anc.id] = true
		anc.updateUnignoredCachedValues()
		if anc.id != id && !visited[anc.id] {
			visited[anc.id] = true
			changes = append(changes, Change{Node: anc, Type: NodeChanged})
		}
	}

	return changes, nil
}

func (t *Tree) classifyChange(n *Node, s *updateState, rootUpdated bool) ChangeType {
	if !s.isCreatedNode(n.id) {
		return NodeChanged
	}
	parent := n.parent
	parentIsUpdatedRoot := parent != nil && parent == t.root && rootUpdated
	if s.isReparentedNode(n.id) {
		if parent == nil || !s.isCreatedNode(parent.id) || parentIsUpdatedRoot {
			return SubtreeReparented
		}
		return NodeReparented
	}
	if parent == nil || !s.isCreatedNode(parent.id) || s.isReparentedNode(parent.id) || parentIsUpdatedRoot {
		return SubtreeCreated
	}
	return NodeCreated
}

// unignoredAncestorFromID walks up from id while nodes are ignored. The
// cached unignored parent may be stale mid-update, so parents are read
// directly.
func (t *Tree) unignoredAncestorFromID(id ax.NodeID) *Node {
	n := t.idMap[id]
	for n != nil && n.IsIgnored() {
		n = n.parent
	}
	return n
}

// notifyAppliedChanges fires the post-mutation callbacks.
func (t *Tree) notifyAppliedChanges(s *updateState, oldRootID ax.NodeID, changes []Change) {
	if s.oldTreeData != nil {
		oldTD, newTD := *s.oldTreeData, t.data
		t.notify(func(o Observer) { o.OnTreeDataChanged(t, oldTD, newTD) })
	}

	// New nodes first: deletion callbacks may need the new root.
	for _, id := range s.newNodeIDs.IDs() {
		if n := t.idMap[id]; n != nil {
			t.notifyNodeHasBeenReparentedOrCreated(n, s)
		}
	}

	for _, id := range s.deletingNodeIDs.IDs() {
		t.notify(func(o Observer) { o.OnNodeDeleted(t, id) })
	}

	for _, id := range s.nodeDataChangedIDs.IDs() {
		n := t.idMap[id]
		if n == nil {
			continue
		}
		isNewRoot := s.rootWillBeCreated && id == s.update.RootID
		if !isNewRoot {
			if old, ok := s.oldNodeData[id]; ok {
				t.notifyNodeAttributesHaveBeenChanged(n, s, &old, &n.data)
			}
		}
		t.notify(func(o Observer) { o.OnNodeChanged(t, n) })
	}

	rootChanged := t.root.id != oldRootID
	t.notify(func(o Observer) { o.OnAtomicUpdateFinished(t, rootChanged, changes) })
}

func (t *Tree) updateNode(src *ax.NodeData, isNewRoot bool, s *updateState) error {
	n := t.idMap[src.ID]
	if n != nil {
		s.pendingNodeIDs.Erase(n.id)
		t.updateReverseRelations(n, src, false)
		if !s.isCreatedNode(n.id) || s.isReparentedNode(n.id) {
			s.saveOldDataForNode(n)
		}
		n.setData(src)
	} else {
		if !isNewRoot {
			return t.fail(s, ErrNotInTree, "%d is not in the tree and not the new root", src.ID)
		}
		n = t.createNode(nil, src.ID, 0, s)
		t.updateReverseRelations(n, src, true)
		n.setData(src)
	}

	if src.GetBool(ax.BoolAttributeIsPageBreakingObject) {
		t.hasPagination = true
	}
	s.nodeDataChangedIDs.Insert(n.id)

	t.deleteOldChildren(n, src.ChildIDs, s)
	children, err := t.createNewChildVector(n, src.ChildIDs, s)
	n.swapChildren(&children)

	if isNewRoot {
		// root must point at a live node even while the old one is torn
		// down.
		oldRoot := t.root
		t.root = n
		if oldRoot != nil && oldRoot != n {
			t.destroySubtree(oldRoot, s)
		}
	}
	return err
}

func (t *Tree) createNode(parent *Node, id ax.NodeID, indexInParent int, s *updateState) *Node {
	s.decrementPendingCreateNodeCount(id)
	s.newNodeIDs.Insert(id)
	// A root uses its index in parent as its unignored index.
	unignoredIndex := 0
	if parent == nil {
		unignoredIndex = indexInParent
	}
	n := newNode(t, parent, id, indexInParent, unignoredIndex)
	t.idMap[id] = n
	return n
}

func (t *Tree) deleteOldChildren(n *Node, newChildIDs []ax.NodeID, s *updateState) {
	keep := make(map[ax.NodeID]bool, len(newChildIDs))
	for _, id := range newChildIDs {
		keep[id] = true
	}
	for _, c := range n.children {
		if !keep[c.id] {
			t.destroySubtree(c, s)
		}
	}
}

// createNewChildVector resolves n's child ids to nodes, creating
// placeholders for ids not yet in the tree. A child still attached to
// another parent is skipped and reported; the remaining children are kept
// so n stays consistent.
func (t *Tree) createNewChildVector(n *Node, childIDs []ax.NodeID, s *updateState) ([]*Node, error) {
	var firstErr error
	children := make([]*Node, 0, len(childIDs))
	for i, id := range childIDs {
		c := t.idMap[id]
		if c == nil {
			c = t.createNode(n, id, i, s)
			s.pendingNodeIDs.Insert(c.id)
			children = append(children, c)
			continue
		}
		if c.parent != n {
			var err error
			if c.parent != nil {
				err = t.fail(s, ErrReparent, "Node %d reparented from %d to %d", c.id, c.parent.id, n.id)
			} else {
				err = t.fail(s, ErrInvalidTreeConstruction,
					"Invalid tree construction: a previous root or orphaned node is being reparented."+
						"\n* root_will_be_created = %t\n* new parent = %s\n* old root or orphaned child = %s",
					s.rootWillBeCreated, n.data.String(), c.data.String())
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.setIndexInParent(i)
		children = append(children, c)
	}
	return children, firstErr
}

func (t *Tree) destroySubtree(n *Node, s *updateState) {
	s.decrementPendingDestroySubtreeCount(n.id)
	t.destroyNodeAndSubtree(n, s)
}

// destroyNodeAndSubtree removes n and its descendants. With a nil state
// the tree is being torn down and every node is reported deleted, leaves
// first.
func (t *Tree) destroyNodeAndSubtree(n *Node, s *updateState) {
	id := n.id
	t.updateReverseRelations(n, &ax.NodeData{ID: id}, false)
	delete(t.idMap, id)

	for _, c := range n.children {
		t.destroyNodeAndSubtree(c, s)
	}

	if s == nil {
		t.notify(func(o Observer) { o.OnNodeDeleted(t, id) })
		return
	}
	s.pendingNodeIDs.Erase(id)
	s.decrementPendingDestroyNodeCount(id)
	s.newNodeIDs.Erase(id)
	s.nodeDataChangedIDs.Erase(id)
	if s.isReparentedNode(id) {
		s.saveOldDataForNode(n)
	}
}

func (t *Tree) validatePendingChangesComplete(s *updateState) error {
	if s.pendingNodeIDs.Len() > 0 {
		var b strings.Builder
		for _, id := range s.pendingNodeIDs.IDs() {
			fmt.Fprintf(&b, " %d", id)
		}
		return t.fail(s, ErrPendingNodes, "Nodes left pending by the update:%s", b.String())
	}

	var subtrees, nodes, creates strings.Builder
	pending := false
	for _, id := range s.pendingOrder {
		p := s.pending[id]
		if !p.expectsStructureChanges() {
			continue
		}
		pending = true
		if p.destroySubtreeCount > 0 {
			fmt.Fprintf(&subtrees, " %d", id)
		}
		if p.destroyNodeCount > 0 {
			fmt.Fprintf(&nodes, " %d", id)
		}
		if p.createNodeCount > 0 {
			fmt.Fprintf(&creates, " %d", id)
		}
	}
	if pending {
		return t.fail(s, ErrPendingChanges,
			"Changes left pending by the update; destroy subtrees:%s, destroy nodes:%s, create nodes:%s",
			subtrees.String(), nodes.String(), creates.String())
	}
	return nil
}

// checkTreeConsistency compares the node count against the count the
// sender expected. A mismatch is recorded and logged but does not fail
// the update, which has already been applied.
func (t *Tree) checkTreeConsistency(s *updateState) {
	checks := s.update.TreeChecks
	if checks == nil || checks.NodeCount == 0 || checks.NodeCount == len(t.idMap) {
		return
	}
	_ = t.fail(s, ErrInconsistentNodeCount,
		"After a tree update, there is a tree inconsistency: %d ids mapped, sender expected %d, %d reachable from root",
		len(t.idMap), checks.NodeCount, subtreeCount(t.root))
}

func subtreeCount(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, c := range n.children {
		count += subtreeCount(c)
	}
	return count
}

// fail records a diagnostic for the current update and returns it as an
// *UnserializeError.
func (t *Tree) fail(s *updateState, kind error, format string, args ...any) error {
	err := newUnserializeError(kind, format, args...)
	if t.errText != "" {
		t.errText += "\n"
	}
	t.errText += err.Msg

	var update string
	if s != nil && s.update != nil {
		update = truncate(s.update.String(), 1000)
	}
	root := "<nil>"
	if t.root != nil {
		root = t.root.data.String()
	}
	t.logger.Error("tree update rejected",
		"error", err.Msg,
		"kind", ErrorKind(err),
		"update", update,
		"root", root,
		"tree_data", t.data.String(),
		"tree", truncate(t.Dump(false), 2000))
	return err
}
