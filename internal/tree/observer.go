package tree

import (
	"reflect"

	"github.com/agentic-research/axtree/internal/ax"
)

// ChangeType classifies a node in the change list of a finished update.
type ChangeType int

const (
	NodeCreated ChangeType = iota
	SubtreeCreated
	NodeChanged
	NodeReparented
	SubtreeReparented
)

func (c ChangeType) String() string {
	switch c {
	case NodeCreated:
		return "NODE_CREATED"
	case SubtreeCreated:
		return "SUBTREE_CREATED"
	case NodeChanged:
		return "NODE_CHANGED"
	case NodeReparented:
		return "NODE_REPARENTED"
	case SubtreeReparented:
		return "SUBTREE_REPARENTED"
	}
	return "UNKNOWN"
}

// Change is one entry of the list passed to OnAtomicUpdateFinished.
type Change struct {
	Node *Node
	Type ChangeType
}

// Observer receives notifications about tree mutations. Callbacks run
// synchronously on the goroutine calling Unserialize or Destroy and must
// not call Unserialize on the same tree.
//
// The "Will" callbacks fire before any mutation and see the old state.
// The remaining callbacks fire after all mutations, except
// OnNodeDeleted during Destroy.
type Observer interface {
	OnNodeDataWillChange(t *Tree, oldData, newData *ax.NodeData)
	OnTreeDataChanged(t *Tree, oldData, newData ax.TreeData)
	OnIgnoredWillChange(t *Tree, node *Node, willBeIgnored, isRootOfChange bool)
	OnNodeWillBeDeleted(t *Tree, node *Node)
	OnSubtreeWillBeDeleted(t *Tree, node *Node)
	OnNodeWillBeReparented(t *Tree, node *Node)
	OnSubtreeWillBeReparented(t *Tree, node *Node)
	OnAtomicUpdateStarting(t *Tree, deleting, reparenting IDSet)

	OnNodeCreated(t *Tree, node *Node)
	OnNodeReparented(t *Tree, node *Node)
	OnNodeDeleted(t *Tree, id ax.NodeID)
	OnNodeChanged(t *Tree, node *Node)
	OnNodeDataChanged(t *Tree, oldData, newData *ax.NodeData)
	OnIgnoredChanged(t *Tree, node *Node, isIgnored bool)

	OnRoleChanged(t *Tree, node *Node, oldRole, newRole ax.Role)
	OnStateChanged(t *Tree, node *Node, state ax.State, newValue bool)
	OnStringAttributeChanged(t *Tree, node *Node, attr ax.StringAttribute, oldValue, newValue string)
	OnIntAttributeChanged(t *Tree, node *Node, attr ax.IntAttribute, oldValue, newValue int32)
	OnFloatAttributeChanged(t *Tree, node *Node, attr ax.FloatAttribute, oldValue, newValue float32)
	OnBoolAttributeChanged(t *Tree, node *Node, attr ax.BoolAttribute, newValue bool)
	OnIntListAttributeChanged(t *Tree, node *Node, attr ax.IntListAttribute, oldValue, newValue []int32)
	OnStringListAttributeChanged(t *Tree, node *Node, attr ax.StringListAttribute, oldValue, newValue []string)

	OnAtomicUpdateFinished(t *Tree, rootChanged bool, changes []Change)
}

// BaseObserver implements every Observer method as a no-op. Embed it to
// override only the callbacks you need.
type BaseObserver struct{}

var _ Observer = BaseObserver{}

func (BaseObserver) OnNodeDataWillChange(*Tree, *ax.NodeData, *ax.NodeData) {}
func (BaseObserver) OnTreeDataChanged(*Tree, ax.TreeData, ax.TreeData) {}
func (BaseObserver) OnIgnoredWillChange(*Tree, *Node, bool, bool) {}
func (BaseObserver) OnNodeWillBeDeleted(*Tree, *Node) {}
func (BaseObserver) OnSubtreeWillBeDeleted(*Tree, *Node) {}
func (BaseObserver) OnNodeWillBeReparented(*Tree, *Node) {}
func (BaseObserver) OnSubtreeWillBeReparented(*Tree, *Node) {}
func (BaseObserver) OnAtomicUpdateStarting(*Tree, IDSet, IDSet) {}
func (BaseObserver) OnNodeCreated(*Tree, *Node) {}
func (BaseObserver) OnNodeReparented(*Tree, *Node) {}
func (BaseObserver) OnNodeDeleted(*Tree, ax.NodeID) {}
func (BaseObserver) OnNodeChanged(*Tree, *Node) {}
func (BaseObserver) OnNodeDataChanged(*Tree, *ax.NodeData, *ax.NodeData) {}
func (BaseObserver) OnIgnoredChanged(*Tree, *Node, bool) {}
func (BaseObserver) OnRoleChanged(*Tree, *Node, ax.Role, ax.Role) {}
func (BaseObserver) OnStateChanged(*Tree, *Node, ax.State, bool) {}
func (BaseObserver) OnStringAttributeChanged(*Tree, *Node, ax.StringAttribute, string, string) {}
func (BaseObserver) OnIntAttributeChanged(*Tree, *Node, ax.IntAttribute, int32, int32) {}
func (BaseObserver) OnFloatAttributeChanged(*Tree, *Node, ax.FloatAttribute, float32, float32) {}
func (BaseObserver) OnBoolAttributeChanged(*Tree, *Node, ax.BoolAttribute, bool) {}
func (BaseObserver) OnIntListAttributeChanged(*Tree, *Node, ax.IntListAttribute, []int32, []int32) {}
func (BaseObserver) OnStringListAttributeChanged(*Tree, *Node, ax.StringListAttribute, []string, []string) {}
func (BaseObserver) OnAtomicUpdateFinished(*Tree, bool, []Change) {}

// AddObserver registers o. Adding the same observer twice is a no-op.
// Observers are matched by identity, so register pointers: an observer
// whose dynamic type is not comparable is never matched by HasObserver
// or RemoveObserver.
func (t *Tree) AddObserver(o Observer) {
	if t.HasObserver(o) {
		return
	}
	t.observers = append(t.observers, o)
}

// RemoveObserver unregisters o.
func (t *Tree) RemoveObserver(o Observer) {
	for i, x := range t.observers {
		if sameInstance(x, o) {
			t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Tree) HasObserver(o Observer) bool {
	for _, x := range t.observers {
		if sameInstance(x, o) {
			return true
		}
	}
	return false
}

// sameInstance compares two interface values without panicking when
// their dynamic type cannot be compared.
func sameInstance(a, b any) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// notify calls fn for a snapshot of the observer list, so observers may
// add or remove observers from inside a callback.
func (t *Tree) notify(fn func(Observer)) {
	if len(t.observers) == 0 {
		return
	}
	obs := append([]Observer(nil), t.observers...)
	for _, o := range obs {
		fn(o)
	}
}
