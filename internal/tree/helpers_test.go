package tree

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentic-research/axtree/internal/ax"
)

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// node builds a generic container record.
func node(id ax.NodeID, children ...ax.NodeID) ax.NodeData {
	return ax.NodeData{ID: id, Role: ax.RoleGenericContainer, ChildIDs: children}
}

func withRole(d ax.NodeData, r ax.Role) ax.NodeData {
	d.Role = r
	return d
}

func update(root ax.NodeID, nodes ...ax.NodeData) ax.TreeUpdate {
	return ax.TreeUpdate{RootID: root, Nodes: nodes}
}

func mustTree(t *testing.T, u ax.TreeUpdate) *Tree {
	t.Helper()
	tr, err := NewFromUpdate(quietOptions(), u)
	require.NoError(t, err)
	return tr
}

func childIDs(n *Node) []ax.NodeID {
	out := make([]ax.NodeID, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c.id)
	}
	return out
}

// recordingObserver logs every callback as a short line.
type recordingObserver struct {
	BaseObserver
	events []string
}

func (r *recordingObserver) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingObserver) reset() { r.events = nil }

func (r *recordingObserver) OnNodeDataWillChange(_ *Tree, old, _ *ax.NodeData) {
	r.add("node_data_will_change %d", old.ID)
}

func (r *recordingObserver) OnTreeDataChanged(*Tree, ax.TreeData, ax.TreeData) {
	r.add("tree_data_changed")
}

func (r *recordingObserver) OnIgnoredWillChange(_ *Tree, n *Node, will, isRoot bool) {
	r.add("ignored_will_change %d will=%t root=%t", n.ID(), will, isRoot)
}

func (r *recordingObserver) OnNodeWillBeDeleted(_ *Tree, n *Node) {
	r.add("node_will_be_deleted %d", n.ID())
}

func (r *recordingObserver) OnSubtreeWillBeDeleted(_ *Tree, n *Node) {
	r.add("subtree_will_be_deleted %d", n.ID())
}

func (r *recordingObserver) OnNodeWillBeReparented(_ *Tree, n *Node) {
	r.add("node_will_be_reparented %d", n.ID())
}

func (r *recordingObserver) OnSubtreeWillBeReparented(_ *Tree, n *Node) {
	r.add("subtree_will_be_reparented %d", n.ID())
}

func (r *recordingObserver) OnAtomicUpdateStarting(_ *Tree, deleting, reparenting IDSet) {
	r.add("atomic_update_starting deleting=%v reparenting=%v", deleting.IDs(), reparenting.IDs())
}

func (r *recordingObserver) OnNodeCreated(_ *Tree, n *Node) { r.add("node_created %d", n.ID()) }

func (r *recordingObserver) OnNodeReparented(_ *Tree, n *Node) { r.add("node_reparented %d", n.ID()) }

func (r *recordingObserver) OnNodeDeleted(_ *Tree, id ax.NodeID) { r.add("node_deleted %d", id) }

func (r *recordingObserver) OnNodeChanged(_ *Tree, n *Node) { r.add("node_changed %d", n.ID()) }

func (r *recordingObserver) OnNodeDataChanged(_ *Tree, _, n *ax.NodeData) {
	r.add("node_data_changed %d", n.ID)
}

func (r *recordingObserver) OnIgnoredChanged(_ *Tree, n *Node, ignored bool) {
	r.add("ignored_changed %d %t", n.ID(), ignored)
}

func (r *recordingObserver) OnRoleChanged(_ *Tree, n *Node, old, new ax.Role) {
	r.add("role_changed %d %s->%s", n.ID(), old, new)
}

func (r *recordingObserver) OnStateChanged(_ *Tree, n *Node, s ax.State, v bool) {
	r.add("state_changed %d %s %t", n.ID(), s, v)
}

func (r *recordingObserver) OnStringAttributeChanged(_ *Tree, n *Node, a ax.StringAttribute, old, new string) {
	r.add("string_attribute_changed %d %s %q->%q", n.ID(), a, old, new)
}

func (r *recordingObserver) OnIntAttributeChanged(_ *Tree, n *Node, a ax.IntAttribute, old, new int32) {
	r.add("int_attribute_changed %d %s %d->%d", n.ID(), a, old, new)
}

func (r *recordingObserver) OnFloatAttributeChanged(_ *Tree, n *Node, a ax.FloatAttribute, old, new float32) {
	r.add("float_attribute_changed %d %s %g->%g", n.ID(), a, old, new)
}

func (r *recordingObserver) OnBoolAttributeChanged(_ *Tree, n *Node, a ax.BoolAttribute, v bool) {
	r.add("bool_attribute_changed %d %s %t", n.ID(), a, v)
}

func (r *recordingObserver) OnIntListAttributeChanged(_ *Tree, n *Node, a ax.IntListAttribute, old, new []int32) {
	r.add("int_list_attribute_changed %d %s %v->%v", n.ID(), a, old, new)
}

func (r *recordingObserver) OnStringListAttributeChanged(_ *Tree, n *Node, a ax.StringListAttribute, old, new []string) {
	r.add("string_list_attribute_changed %d %s %v->%v", n.ID(), a, old, new)
}

func (r *recordingObserver) OnAtomicUpdateFinished(_ *Tree, rootChanged bool, changes []Change) {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = fmt.Sprintf("%d:%s", c.Node.ID(), c.Type)
	}
	r.add("atomic_update_finished root_changed=%t [%s]", rootChanged, strings.Join(parts, " "))
}
