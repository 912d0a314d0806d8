package tree

import (
	"github.com/agentic-research/axtree/internal/ax"
)

// pendingChanges tracks what an update will do to a single id. Entries
// are created lazily from the live tree the first time an id is touched.
type pendingChanges struct {
	destroySubtreeCount int
	destroyNodeCount    int
	createNodeCount     int

	// nodeExists reports whether the id exists at the current point of
	// the plan.
	nodeExists bool
	// parentID is the parent at the current point of the plan, or
	// ax.InvalidNodeID for a root or a node that will not exist.
	parentID ax.NodeID
	// lastKnownData is the most recent record seen for the id: the live
	// node's data or a record from the update. Never modified.
	lastKnownData *ax.NodeData
}

func newPendingChanges(n *Node) *pendingChanges {
	p := &pendingChanges{}
	if n == nil {
		return p
	}
	p.nodeExists = true
	if n.parent != nil {
		p.parentID = n.parent.id
	}
	p.lastKnownData = &n.data
	return p
}

func (p *pendingChanges) expectsStructureChanges() bool {
	return p.destroySubtreeCount > 0 || p.destroyNodeCount > 0 || p.createNodeCount > 0
}

func (p *pendingChanges) expectsDestroy() bool {
	return p.destroySubtreeCount > 0 || p.destroyNodeCount > 0
}

// needsLastKnownData is true for an id that will be created or was
// cleared and has not yet been given a record.
func (p *pendingChanges) needsLastKnownData() bool {
	return p.nodeExists && p.lastKnownData == nil
}

type pendingStatus int

const (
	pendingNotStarted pendingStatus = iota
	pendingComputing
	pendingComplete
	pendingFailed
)

// updateState is the plan for one Unserialize call plus the bookkeeping
// the apply phase consumes.
type updateState struct {
	tree   *Tree
	update *ax.TreeUpdate
	status pendingStatus

	pendingRootID     ax.NodeID
	rootWillBeCreated bool

	// Ids referenced as children but not yet given a record.
	pendingNodeIDs IDSet
	// Ids whose unignored child count or index may have changed.
	invalidateUnignoredIDs IDSet
	// Ids that received a record in this update.
	nodeDataChangedIDs IDSet
	ignoredStateChangedIDs IDSet
	newNodeIDs             IDSet
	deletingNodeIDs        IDSet
	reparentingNodeIDs     IDSet

	pending      map[ax.NodeID]*pendingChanges
	pendingOrder []ax.NodeID

	// Data a node held before this update replaced it.
	oldNodeData map[ax.NodeID]ax.NodeData

	oldTreeData *ax.TreeData
	newTreeData *ax.TreeData
}

func newUpdateState(t *Tree, update *ax.TreeUpdate) *updateState {
	return &updateState{
		tree:        t,
		update:      update,
		pending:     make(map[ax.NodeID]*pendingChanges),
		oldNodeData: make(map[ax.NodeID]ax.NodeData),
	}
}

func (s *updateState) get(id ax.NodeID) *pendingChanges { return s.pending[id] }

func (s *updateState) getOrCreate(id ax.NodeID) *pendingChanges {
	p, ok := s.pending[id]
	if !ok {
		p = newPendingChanges(s.tree.idMap[id])
		s.pending[id] = p
		s.pendingOrder = append(s.pendingOrder, id)
	}
	return p
}

func (s *updateState) isCreatedNode(id ax.NodeID) bool { return s.newNodeIDs.Has(id) }

func (s *updateState) isReparentedNode(id ax.NodeID) bool { return s.reparentingNodeIDs.Has(id) }

func (s *updateState) needsLastKnownData(id ax.NodeID) bool {
	p := s.get(id)
	return p != nil && p.needsLastKnownData()
}

func (s *updateState) parentIDForPendingNode(id ax.NodeID) ax.NodeID {
	return s.getOrCreate(id).parentID
}

func (s *updateState) shouldPendingNodeExistInTree(id ax.NodeID) bool {
	return s.getOrCreate(id).nodeExists
}

// lastKnownPendingNodeData returns the most recent record for id, or an
// empty record.
func (s *updateState) lastKnownPendingNodeData(id ax.NodeID) *ax.NodeData {
	if p := s.get(id); p != nil && p.lastKnownData != nil {
		return p.lastKnownData
	}
	return &ax.NodeData{}
}

func (s *updateState) clearLastKnownPendingNodeData(id ax.NodeID) {
	s.getOrCreate(id).lastKnownData = nil
}

func (s *updateState) setLastKnownPendingNodeData(d *ax.NodeData) {
	s.getOrCreate(d.ID).lastKnownData = d
}

func (s *updateState) incrementPendingDestroySubtreeCount(id ax.NodeID) bool {
	p := s.getOrCreate(id)
	if !p.nodeExists {
		return false
	}
	p.destroySubtreeCount++
	return true
}

func (s *updateState) decrementPendingDestroySubtreeCount(id ax.NodeID) {
	if p := s.get(id); p != nil && p.destroySubtreeCount > 0 {
		p.destroySubtreeCount--
	}
}

func (s *updateState) incrementPendingDestroyNodeCount(id ax.NodeID) bool {
	p := s.getOrCreate(id)
	if !p.nodeExists {
		return false
	}
	p.destroyNodeCount++
	p.nodeExists = false
	p.lastKnownData = nil
	p.parentID = ax.InvalidNodeID
	if s.pendingRootID == id {
		s.pendingRootID = ax.InvalidNodeID
	}
	// A node flagged for reparenting earlier is now deleted again.
	s.reparentingNodeIDs.Erase(id)
	s.deletingNodeIDs.Insert(id)
	return true
}

func (s *updateState) decrementPendingDestroyNodeCount(id ax.NodeID) {
	if p := s.get(id); p != nil && p.destroyNodeCount > 0 {
		p.destroyNodeCount--
	}
}

func (s *updateState) incrementPendingCreateNodeCount(id, parentID ax.NodeID) bool {
	p := s.getOrCreate(id)
	if p.nodeExists {
		return false
	}
	p.createNodeCount++
	p.nodeExists = true
	p.parentID = parentID
	if p.destroyNodeCount > 0 {
		// Destroyed earlier in the same update, so this is a reparent.
		s.reparentingNodeIDs.Insert(id)
		s.deletingNodeIDs.Erase(id)
	}
	return true
}

func (s *updateState) decrementPendingCreateNodeCount(id ax.NodeID) {
	if p := s.get(id); p != nil && p.createNodeCount > 0 {
		p.createNodeCount--
	}
}

// treeDataForIgnored returns the tree data to compute the ignored state
// against before and after the update.
func (s *updateState) treeDataForIgnored() (oldTD, newTD *ax.TreeData) {
	if s.oldTreeData != nil {
		return s.oldTreeData, s.newTreeData
	}
	return &s.tree.data, &s.tree.data
}

// hasIgnoredChanged compares the ignored state of d against the last
// known record for the same id.
func (s *updateState) hasIgnoredChanged(d *ax.NodeData) bool {
	oldTD, newTD := s.treeDataForIgnored()
	old := s.lastKnownPendingNodeData(d.ID)
	return s.tree.computeNodeIsIgnored(oldTD, old) != s.tree.computeNodeIsIgnored(newTD, d)
}

func (s *updateState) invalidateParentNodeUnignoredCacheValues(id ax.NodeID) {
	if parent := s.parentIDForPendingNode(id); parent != ax.InvalidNodeID {
		s.invalidateUnignoredIDs.Insert(parent)
	}
}

// saveOldDataForNode keeps the first data a node held in this update.
func (s *updateState) saveOldDataForNode(n *Node) {
	if _, ok := s.oldNodeData[n.id]; ok {
		return
	}
	s.oldNodeData[n.id] = n.data
}

// dataDiffers reports whether n was created by this update or now holds
// data different from what it held before.
func (s *updateState) dataDiffers(n *Node) bool {
	old, ok := s.oldNodeData[n.id]
	if !ok {
		return true
	}
	return !old.Equal(&n.data)
}

// derivedStale reports whether state computed from n, such as names or
// set positions, must be recomputed after this update.
func (s *updateState) derivedStale(n *Node) bool {
	return s.dataDiffers(n) || s.ignoredStateChangedIDs.Has(n.id)
}
