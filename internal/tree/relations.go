package tree

import (
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/axtree/internal/ax"
)

// Attributes whose values point at other nodes and are indexed in
// reverse, target id to source ids.
var (
	reverseRelationIntAttributes = []ax.IntAttribute{
		ax.IntAttributeActivedescendantID,
	}
	reverseRelationIntListAttributes = []ax.IntListAttribute{
		ax.IntListAttributeControlsIDs,
		ax.IntListAttributeDetailsIDs,
		ax.IntListAttributeDescribedbyIDs,
		ax.IntListAttributeErrormessageIDs,
		ax.IntListAttributeFlowtoIDs,
		ax.IntListAttributeLabelledbyIDs,
	}
)

// updateReverseRelations moves n's entries in the reverse indexes from
// its current data to newData.
func (t *Tree) updateReverseRelations(n *Node, newData *ax.NodeData, isNewNode bool) {
	oldData := &n.data
	id := n.id

	for _, attr := range reverseRelationIntAttributes {
		oldTarget, hadOld := oldData.IntAttribute(attr)
		newTarget, hasNew := newData.IntAttribute(attr)
		if !isNewNode && hadOld == hasNew && oldTarget == newTarget {
			continue
		}
		m := t.intReverse[attr]
		if m == nil {
			m = make(map[ax.NodeID]*roaring.Bitmap)
			t.intReverse[attr] = m
		}
		if !isNewNode && hadOld {
			removeRelation(m, ax.NodeID(oldTarget), id)
		}
		if hasNew {
			addRelation(m, ax.NodeID(newTarget), id)
		}
	}

	for _, attr := range reverseRelationIntListAttributes {
		oldTargets, _ := oldData.IntListAttribute(attr)
		newTargets, _ := newData.IntListAttribute(attr)
		if !isNewNode && slices.Equal(oldTargets, newTargets) {
			continue
		}
		m := t.intListReverse[attr]
		if m == nil {
			m = make(map[ax.NodeID]*roaring.Bitmap)
			t.intListReverse[attr] = m
		}
		if !isNewNode {
			for _, target := range oldTargets {
				removeRelation(m, ax.NodeID(target), id)
			}
		}
		for _, target := range newTargets {
			addRelation(m, ax.NodeID(target), id)
		}
	}

	oldTreeID, hadOld := oldData.ChildTreeID()
	newTreeID, hasNew := newData.ChildTreeID()
	if hadOld == hasNew && oldTreeID == newTreeID {
		return
	}
	if hadOld {
		if bm := t.childTreeReverse[oldTreeID]; bm != nil {
			bm.Remove(uint32(id))
			if bm.IsEmpty() {
				delete(t.childTreeReverse, oldTreeID)
			}
		}
	}
	if hasNew {
		bm := t.childTreeReverse[newTreeID]
		if bm == nil {
			bm = roaring.New()
			t.childTreeReverse[newTreeID] = bm
		}
		bm.Add(uint32(id))
	}
}

func addRelation(m map[ax.NodeID]*roaring.Bitmap, target, source ax.NodeID) {
	bm := m[target]
	if bm == nil {
		bm = roaring.New()
		m[target] = bm
	}
	bm.Add(uint32(source))
}

func removeRelation(m map[ax.NodeID]*roaring.Bitmap, target, source ax.NodeID) {
	bm := m[target]
	if bm == nil {
		return
	}
	bm.Remove(uint32(source))
	if bm.IsEmpty() {
		delete(m, target)
	}
}

func bitmapIDs(bm *roaring.Bitmap) []ax.NodeID {
	if bm == nil {
		return nil
	}
	out := make([]ax.NodeID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, ax.NodeID(int32(it.Next())))
	}
	slices.Sort(out)
	return out
}

// ReverseRelations returns the ids of nodes whose attr points at target.
func (t *Tree) ReverseRelations(attr ax.IntAttribute, target ax.NodeID) []ax.NodeID {
	return bitmapIDs(t.intReverse[attr][target])
}

// ReverseListRelations returns the ids of nodes whose attr list contains
// target.
func (t *Tree) ReverseListRelations(attr ax.IntListAttribute, target ax.NodeID) []ax.NodeID {
	return bitmapIDs(t.intListReverse[attr][target])
}

// NodeIDsForChildTreeID returns the ids of nodes that embed the given
// child tree.
func (t *Tree) NodeIDsForChildTreeID(treeID string) []ax.NodeID {
	return bitmapIDs(t.childTreeReverse[treeID])
}

// ChildTreeIDs returns every child tree id referenced by a node.
func (t *Tree) ChildTreeIDs() []string {
	out := make([]string, 0, len(t.childTreeReverse))
	for id := range t.childTreeReverse {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
