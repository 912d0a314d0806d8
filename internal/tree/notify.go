package tree

import (
	"slices"

	"github.com/agentic-research/axtree/internal/ax"
)

func (t *Tree) notifySubtreeWillBeReparentedOrDeleted(n *Node, s *updateState) {
	reparented := s.isReparentedNode(n.id)
	deleted := !reparented
	// A parent becoming ignored in the same update already covers the
	// removal.
	if deleted && n.parent != nil && s.ignoredStateChangedIDs.Has(n.parent.id) && !n.parent.IsIgnored() {
		deleted = false
	}
	t.notify(func(o Observer) {
		if reparented {
			o.OnSubtreeWillBeReparented(t, n)
		}
		if deleted {
			o.OnSubtreeWillBeDeleted(t, n)
		}
	})
}

func (t *Tree) notifyNodeWillBeReparentedOrDeleted(n *Node, s *updateState) {
	t.dropDerived(n.id)
	reparented := s.isReparentedNode(n.id)
	t.notify(func(o Observer) {
		if reparented {
			o.OnNodeWillBeReparented(t, n)
		} else {
			o.OnNodeWillBeDeleted(t, n)
		}
	})
}

func (t *Tree) notifyNodeHasBeenReparentedOrCreated(n *Node, s *updateState) {
	if s.isReparentedNode(n.id) {
		t.notify(func(o Observer) { o.OnNodeReparented(t, n) })
		return
	}
	t.notify(func(o Observer) { o.OnNodeCreated(t, n) })
}

// notifyNodeAttributesHaveBeenChanged reports the difference between the
// data n held before the update and its data now.
func (t *Tree) notifyNodeAttributesHaveBeenChanged(n *Node, s *updateState, oldData, newData *ax.NodeData) {
	// The initial empty document is not interesting.
	if n.Role() == ax.RoleRootWebArea && len(oldData.ChildIDs) == 0 && n.parent == nil {
		return
	}

	ignoredChanged := s.ignoredStateChangedIDs.Has(newData.ID)
	if !ignoredChanged && oldData.Equal(newData) {
		return
	}

	t.notify(func(o Observer) { o.OnNodeDataChanged(t, oldData, newData) })
	if ignoredChanged {
		ignored := n.IsIgnored()
		t.notify(func(o Observer) { o.OnIgnoredChanged(t, n, ignored) })
	}

	// Attribute changes on ignored nodes are not reported.
	if oldData.IsIgnored() || newData.IsIgnored() {
		return
	}

	if oldData.Role != newData.Role {
		t.notify(func(o Observer) { o.OnRoleChanged(t, n, oldData.Role, newData.Role) })
	}

	callIfStatesChanged(oldData.State, newData.State, func(st ax.State, v bool) {
		t.notify(func(o Observer) { o.OnStateChanged(t, n, st, v) })
	})

	callIfAttributeValuesChanged(oldData.StringAttributes, newData.StringAttributes, "", equalComparable[string],
		func(a ax.StringAttribute, ov, nv string) {
			t.notify(func(o Observer) { o.OnStringAttributeChanged(t, n, a, ov, nv) })
		})

	callIfBoolAttributesChanged(oldData.BoolAttributes, newData.BoolAttributes, false,
		func(a ax.BoolAttribute, _, nv bool) {
			t.notify(func(o Observer) { o.OnBoolAttributeChanged(t, n, a, nv) })
		})

	callIfAttributeValuesChanged(oldData.FloatAttributes, newData.FloatAttributes, 0, equalComparable[float32],
		func(a ax.FloatAttribute, ov, nv float32) {
			t.notify(func(o Observer) { o.OnFloatAttributeChanged(t, n, a, ov, nv) })
		})

	callIfAttributeValuesChanged(oldData.IntAttributes, newData.IntAttributes, 0, equalComparable[int32],
		func(a ax.IntAttribute, ov, nv int32) {
			t.notify(func(o Observer) { o.OnIntAttributeChanged(t, n, a, ov, nv) })
		})

	callIfAttributeValuesChanged(oldData.IntListAttributes, newData.IntListAttributes, nil, slices.Equal[[]int32],
		func(a ax.IntListAttribute, ov, nv []int32) {
			t.notify(func(o Observer) { o.OnIntListAttributeChanged(t, n, a, ov, nv) })
		})

	callIfAttributeValuesChanged(oldData.StringListAttributes, newData.StringListAttributes, nil, slices.Equal[[]string],
		func(a ax.StringListAttribute, ov, nv []string) {
			t.notify(func(o Observer) { o.OnStringListAttributeChanged(t, n, a, ov, nv) })
		})
}
