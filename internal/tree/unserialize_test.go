package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/axtree/internal/ax"
)

func named(id ax.NodeID, name string, children ...ax.NodeID) ax.NodeData {
	d := node(id, children...)
	d.SetString(ax.StringAttributeName, name)
	return d
}

func ignored(id ax.NodeID, children ...ax.NodeID) ax.NodeData {
	d := node(id, children...)
	d.AddState(ax.StateIgnored)
	return d
}

func TestUnserialize_CreateRootOnEmptyTree(t *testing.T) {
	tr := New(quietOptions())
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(1, node(1))))

	require.NotNil(t, tr.Root())
	assert.Equal(t, ax.NodeID(1), tr.Root().ID())
	assert.Equal(t, 1, tr.Size())
	assert.Equal(t, []string{
		"atomic_update_starting deleting=[] reparenting=[]",
		"node_created 1",
		"node_changed 1",
		"atomic_update_finished root_changed=true [1:SUBTREE_CREATED]",
	}, rec.events)
}

func TestUnserialize_RemoveChildWithoutRecord(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2, 3), node(2), node(3)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(1, node(1, 2))))

	assert.Nil(t, tr.GetFromID(3))
	assert.Equal(t, []ax.NodeID{2}, childIDs(tr.Root()))
	assert.Equal(t, 2, tr.Size())
	assert.Equal(t, []string{
		"subtree_will_be_deleted 3",
		"node_will_be_deleted 3",
		"node_data_will_change 1",
		"atomic_update_starting deleting=[3] reparenting=[]",
		"node_deleted 3",
		"node_data_changed 1",
		"node_changed 1",
		"atomic_update_finished root_changed=false [1:NODE_CHANGED]",
	}, rec.events)
}

func TestUnserialize_ReplaceChild(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2), node(2)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(1, node(1, 3), node(3))))

	assert.Nil(t, tr.GetFromID(2))
	n3 := tr.GetFromID(3)
	require.NotNil(t, n3)
	assert.Equal(t, tr.Root(), n3.Parent())
	assert.Equal(t, []string{
		"subtree_will_be_deleted 2",
		"node_will_be_deleted 2",
		"node_data_will_change 1",
		"atomic_update_starting deleting=[2] reparenting=[]",
		"node_created 3",
		"node_deleted 2",
		"node_data_changed 1",
		"node_changed 1",
		"node_changed 3",
		"atomic_update_finished root_changed=false [1:NODE_CHANGED 3:SUBTREE_CREATED]",
	}, rec.events)
}

func TestUnserialize_UndefinedChildLeavesTreeUnchanged(t *testing.T) {
	tr := mustTree(t, update(1, node(1)))
	before := tr.Dump(true)
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	err := tr.Unserialize(update(1, node(1, 5)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInTree)
	assert.Contains(t, tr.ErrorLog(), "5 will be in the tree but no data was supplied for it")
	assert.Equal(t, before, tr.Dump(true))
	assert.Empty(t, rec.events)
}

func TestUnserialize_ReparentWithoutDestroy(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2, 9), node(2, 7), node(7), node(9)))
	before := tr.Dump(true)

	err := tr.Unserialize(update(1, node(9, 7)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReparent)
	assert.Equal(t, "Node 7 is not marked for destruction, would be reparented to 9", err.Error())
	assert.Equal(t, ax.NodeID(2), tr.GetFromID(7).Parent().ID())
	assert.Equal(t, before, tr.Dump(true))
}

func TestUnserialize_Reparent(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2, 9), node(2, 7), node(7), node(9)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(1, node(2), node(9, 7), node(7))))

	assert.Equal(t, ax.NodeID(9), tr.GetFromID(7).Parent().ID())
	assert.Equal(t, []string{
		"subtree_will_be_reparented 7",
		"node_will_be_reparented 7",
		"node_data_will_change 2",
		"node_data_will_change 9",
		"node_data_will_change 7",
		"atomic_update_starting deleting=[] reparenting=[7]",
		"node_reparented 7",
		"node_data_changed 2",
		"node_changed 2",
		"node_data_changed 9",
		"node_changed 9",
		"node_changed 7",
		"atomic_update_finished root_changed=false [2:NODE_CHANGED 9:NODE_CHANGED 7:SUBTREE_REPARENTED]",
	}, rec.events)
	assert.NotContains(t, rec.events, "node_deleted 7")
	assert.NotContains(t, rec.events, "node_created 7")
}

func TestUnserialize_ReparentUnderNewParent(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2, 3), node(2, 4), node(3), named(4, "x")))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(1, node(1, 3, 5), node(5, 4), named(4, "x"))))

	assert.Nil(t, tr.GetFromID(2))
	assert.Equal(t, ax.NodeID(5), tr.GetFromID(4).Parent().ID())
	assert.Contains(t, rec.events, "subtree_will_be_deleted 2")
	assert.Contains(t, rec.events, "node_will_be_reparented 4")
	assert.Contains(t, rec.events, "node_created 5")
	assert.Contains(t, rec.events, "node_reparented 4")
	assert.Contains(t, rec.events, "node_deleted 2")
	assert.NotContains(t, rec.events, "node_deleted 4")
	assert.NotContains(t, rec.events, "subtree_will_be_reparented 4")
	assert.Equal(t,
		"atomic_update_finished root_changed=false [1:NODE_CHANGED 5:SUBTREE_CREATED 4:NODE_REPARENTED]",
		rec.events[len(rec.events)-1])
}

func TestUnserialize_ParentBecomingIgnoredCoversSubtreeDeletion(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2), node(2, 3), node(3)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(1, ignored(2))))

	assert.Nil(t, tr.GetFromID(3))
	assert.True(t, tr.GetFromID(2).IsIgnored())
	assert.Contains(t, rec.events, "ignored_will_change 2 will=true root=true")
	assert.Contains(t, rec.events, "node_will_be_deleted 3")
	assert.Contains(t, rec.events, "node_deleted 3")
	assert.NotContains(t, rec.events, "subtree_will_be_deleted 3")

	// Without the ignored flip the subtree removal is reported.
	tr = mustTree(t, update(1, node(1, 2), node(2, 3), node(3)))
	rec = &recordingObserver{}
	tr.AddObserver(rec)
	require.NoError(t, tr.Unserialize(update(1, node(2))))
	assert.Contains(t, rec.events, "subtree_will_be_deleted 3")
}

func TestUnserialize_ClearRootAndResupply(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2, 3), named(2, "a"), named(3, "b")))
	before := tr.Dump(false)
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	u := update(1, node(1, 2, 3), named(2, "a"), named(3, "b"))
	u.NodeIDToClear = 1
	require.NoError(t, tr.Unserialize(u))

	assert.Equal(t, before, tr.Dump(false))
	assert.Contains(t, rec.events, "node_reparented 2")
	assert.Contains(t, rec.events, "node_reparented 3")
	assert.NotContains(t, rec.events, "node_deleted 2")
	assert.NotContains(t, rec.events, "node_data_changed 2")
	assert.Equal(t,
		"atomic_update_finished root_changed=false [1:NODE_CHANGED 2:SUBTREE_REPARENTED 3:SUBTREE_REPARENTED]",
		rec.events[len(rec.events)-1])
}

func TestUnserialize_ClearWithoutRecordFails(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2), node(2, 4), node(4)))
	before := tr.Dump(false)

	err := tr.Unserialize(ax.TreeUpdate{NodeIDToClear: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInTree)
	assert.Equal(t, before, tr.Dump(false))
}

func TestUnserialize_ClearSubtree(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2), node(2, 4), node(4)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	u := ax.TreeUpdate{NodeIDToClear: 2, Nodes: []ax.NodeData{node(2, 5), node(5)}}
	require.NoError(t, tr.Unserialize(u))

	assert.Nil(t, tr.GetFromID(4))
	assert.Equal(t, []ax.NodeID{5}, childIDs(tr.GetFromID(2)))
	assert.Contains(t, rec.events, "node_deleted 4")
	assert.Contains(t, rec.events, "node_created 5")
}

func TestUnserialize_ReplaceRoot(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2), node(2)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(3, node(3, 4), node(4))))

	assert.Equal(t, ax.NodeID(3), tr.Root().ID())
	assert.Nil(t, tr.GetFromID(1))
	assert.Nil(t, tr.GetFromID(2))
	assert.Equal(t, 2, tr.Size())
	assert.Contains(t, rec.events, "node_deleted 1")
	assert.Contains(t, rec.events, "node_deleted 2")
	assert.Equal(t,
		"atomic_update_finished root_changed=true [3:SUBTREE_CREATED 4:NODE_CREATED]",
		rec.events[len(rec.events)-1])
}

func TestUnserialize_RejectedUpdates(t *testing.T) {
	tests := []struct {
		name    string
		initial *ax.TreeUpdate
		update  ax.TreeUpdate
		kind    error
		msg     string
	}{
		{
			name:   "no root",
			update: ax.TreeUpdate{Nodes: []ax.NodeData{node(1)}},
			kind:   ErrNoRoot,
			msg:    "Tree must have already a valid root or update must have a valid root",
		},
		{
			name:   "duplicate child",
			update: update(1, node(1, 2, 2), node(2)),
			kind:   ErrDuplicateChild,
			msg:    "Node 1 has 1 duplicate child ids",
		},
		{
			name:   "child pending twice",
			update: update(1, node(1, 2, 3), node(3, 2)),
			kind:   ErrCreationPendingForChild,
			msg:    "Node 2 is already pending for creation, cannot be a new child",
		},
		{
			name:   "invalid id",
			update: update(1, node(1), ax.NodeData{}),
			kind:   ErrNotInTree,
			msg:    "Node record 1 has an invalid id",
		},
		{
			name:    "unknown node",
			initial: &ax.TreeUpdate{RootID: 1, Nodes: []ax.NodeData{node(1)}},
			update:  update(1, node(5)),
			kind:    ErrNotInTree,
			msg:     "5 will not be in the tree and is not the new root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(quietOptions())
			if tt.initial != nil {
				require.NoError(t, tr.Unserialize(*tt.initial))
			}
			size := tr.Size()

			err := tr.Unserialize(tt.update)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.msg, err.Error())
			assert.Contains(t, tr.ErrorLog(), tt.msg)
			assert.Equal(t, size, tr.Size())

			var uerr *UnserializeError
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, tt.kind, uerr.Kind)
		})
	}
}

func TestUnserialize_ErrorLogAccumulates(t *testing.T) {
	tr := mustTree(t, update(1, node(1)))
	require.Error(t, tr.Unserialize(update(1, node(5))))
	require.Error(t, tr.Unserialize(update(1, node(6))))

	assert.Equal(t,
		"5 will not be in the tree and is not the new root\n6 will not be in the tree and is not the new root",
		tr.ErrorLog())
}

func TestUnserialize_IdenticalUpdateKeepsCaches(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2), named(2, "a")))
	assert.Equal(t, "a", tr.Root().ComputedName())
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(update(1, node(1, 2), named(2, "a"))))

	assert.NotNil(t, tr.Root().computed)
	for _, e := range rec.events {
		assert.NotContains(t, e, "node_data_changed")
		assert.NotContains(t, e, "attribute_changed")
	}
	assert.Contains(t, rec.events, "node_changed 1")
	assert.Contains(t, rec.events, "node_changed 2")
}

func TestUnserialize_AttributeCallbacks(t *testing.T) {
	before := withRole(named(2, "a"), ax.RoleButton)
	before.AddState(ax.StateFocusable)
	tr := mustTree(t, update(1, node(1, 2), before))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	after := withRole(named(2, "b"), ax.RoleLink)
	after.SetBool(ax.BoolAttributeBusy, true)
	after.SetInt(ax.IntAttributePosInSet, 3)
	after.SetIntList(ax.IntListAttributeLabelledbyIDs, []int32{1})
	require.NoError(t, tr.Unserialize(update(1, after)))

	assert.Equal(t, []string{
		"node_data_will_change 2",
		"atomic_update_starting deleting=[] reparenting=[]",
		"node_data_changed 2",
		"role_changed 2 button->link",
		"state_changed 2 focusable false",
		`string_attribute_changed 2 name "a"->"b"`,
		"bool_attribute_changed 2 busy true",
		"int_attribute_changed 2 posInSet 0->3",
		"int_list_attribute_changed 2 labelledbyIds []->[1]",
		"node_changed 2",
		"atomic_update_finished root_changed=false [2:NODE_CHANGED]",
	}, rec.events)
}

func TestUnserialize_FocusedNodeAlwaysUnignored(t *testing.T) {
	opts := quietOptions()
	opts.FocusedNodeAlwaysUnignored = true
	tr := New(opts)

	initial := update(1, node(1, 2), ignored(2))
	initial.HasTreeData = true
	initial.TreeData = ax.TreeData{FocusID: 2}
	require.NoError(t, tr.Unserialize(initial))

	n2 := tr.GetFromID(2)
	assert.True(t, n2.Data().IsIgnored())
	assert.False(t, n2.IsIgnored())
	assert.Equal(t, 1, tr.Root().UnignoredChildCount())

	rec := &recordingObserver{}
	tr.AddObserver(rec)
	flip := ax.TreeUpdate{HasTreeData: true, TreeData: ax.TreeData{FocusID: 1}, Nodes: []ax.NodeData{ignored(2)}}
	require.NoError(t, tr.Unserialize(flip))

	assert.True(t, tr.GetFromID(2).IsIgnored())
	assert.Equal(t, 0, tr.Root().UnignoredChildCount())
	assert.Equal(t, []string{
		"ignored_will_change 2 will=true root=true",
		"atomic_update_starting deleting=[] reparenting=[]",
		"tree_data_changed",
		"node_data_changed 2",
		"ignored_changed 2 true",
		"node_changed 2",
		"atomic_update_finished root_changed=false [2:NODE_CHANGED 1:NODE_CHANGED]",
	}, rec.events)
}

func TestUnserialize_IgnoredWithoutFocusException(t *testing.T) {
	initial := update(1, node(1, 2), ignored(2))
	initial.HasTreeData = true
	initial.TreeData = ax.TreeData{FocusID: 2}
	tr := mustTree(t, initial)

	assert.True(t, tr.GetFromID(2).IsIgnored())
	assert.Equal(t, 0, tr.Root().UnignoredChildCount())
}

func TestUnserialize_TreeDataOnly(t *testing.T) {
	tr := mustTree(t, update(1, node(1)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	require.NoError(t, tr.Unserialize(ax.TreeUpdate{HasTreeData: true, TreeData: ax.TreeData{Title: "Inbox"}}))

	assert.Equal(t, "Inbox", tr.Data().Title)
	assert.Contains(t, rec.events, "tree_data_changed")
	assert.Equal(t, "atomic_update_finished root_changed=false []", rec.events[len(rec.events)-1])
}

func TestUnserialize_NodeCountMismatchIsRecorded(t *testing.T) {
	u := update(1, node(1, 2), node(2))
	u.TreeChecks = &ax.TreeChecks{NodeCount: 5}
	tr := New(quietOptions())

	require.NoError(t, tr.Unserialize(u))
	assert.Contains(t, tr.ErrorLog(), "tree inconsistency: 2 ids mapped, sender expected 5")
}

type reentrantObserver struct {
	BaseObserver
	err error
}

func (o *reentrantObserver) OnAtomicUpdateFinished(t *Tree, _ bool, _ []Change) {
	o.err = t.Unserialize(update(1, node(1)))
}

func TestUnserialize_ReentryIsRejected(t *testing.T) {
	tr := mustTree(t, update(1, node(1)))
	obs := &reentrantObserver{}
	tr.AddObserver(obs)

	require.NoError(t, tr.Unserialize(update(1, named(1, "x"))))
	assert.ErrorIs(t, obs.err, ErrUpdateInProgress)
	assert.Equal(t, "x", tr.Root().GetString(ax.StringAttributeName))
}

func TestDestroy_NotifiesEveryNode(t *testing.T) {
	tr := mustTree(t, update(1, node(1, 2, 3), node(2, 4), node(3), node(4)))
	rec := &recordingObserver{}
	tr.AddObserver(rec)

	tr.Destroy()

	assert.Equal(t, []string{
		"node_will_be_deleted 1",
		"node_will_be_deleted 2",
		"node_will_be_deleted 4",
		"node_will_be_deleted 3",
		"atomic_update_starting deleting=[1 2 4 3] reparenting=[]",
		"node_deleted 4",
		"node_deleted 2",
		"node_deleted 3",
		"node_deleted 1",
	}, rec.events)
	assert.Nil(t, tr.Root())
	assert.Equal(t, 0, tr.Size())
	assert.True(t, tr.IsDestroyed())
	assert.ErrorIs(t, tr.Unserialize(update(1, node(1))), ErrDestroyed)
}

func TestObservers_AddRemove(t *testing.T) {
	tr := New(quietOptions())
	rec := &recordingObserver{}
	tr.AddObserver(rec)
	tr.AddObserver(rec)
	assert.True(t, tr.HasObserver(rec))

	require.NoError(t, tr.Unserialize(update(1, node(1))))
	assert.Len(t, rec.events, 4)

	tr.RemoveObserver(rec)
	assert.False(t, tr.HasObserver(rec))
	rec.reset()
	require.NoError(t, tr.Unserialize(update(1, named(1, "x"))))
	assert.Empty(t, rec.events)
}

// valueObserver has a slice field, so its values cannot be compared.
type valueObserver struct {
	BaseObserver
	seen []ax.NodeID
}

func TestObservers_NonComparableValue(t *testing.T) {
	tr := mustTree(t, update(1, node(1)))
	obs := valueObserver{seen: []ax.NodeID{1}}

	assert.NotPanics(t, func() {
		tr.AddObserver(obs)
		assert.False(t, tr.HasObserver(obs))
		tr.RemoveObserver(obs)
		tr.AddObserver(&recordingObserver{})
		assert.False(t, tr.HasObserver(obs))
	})
	require.NoError(t, tr.Unserialize(update(1, named(1, "x"))))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "reparent", ErrorKind(newUnserializeError(ErrReparent, "x")))
	assert.Equal(t, "destroyed", ErrorKind(ErrDestroyed))
	assert.Equal(t, "unknown", ErrorKind(errors.New("boom")))
}

func TestNextNegativeInternalNodeID(t *testing.T) {
	tr := New(quietOptions())
	assert.Equal(t, ax.NodeID(-1), tr.NextNegativeInternalNodeID())
	assert.Equal(t, ax.NodeID(-2), tr.NextNegativeInternalNodeID())
}
