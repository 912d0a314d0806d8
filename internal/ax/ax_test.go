package ax

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_TextRoundTrip(t *testing.T) {
	for r := RoleUnknown; r < roleCount; r++ {
		b, err := r.MarshalText()
		require.NoError(t, err)
		got, err := ParseRole(string(b))
		require.NoError(t, err)
		assert.Equal(t, r, got, string(b))
	}

	_, err := ParseRole("notARole")
	assert.Error(t, err)
}

func TestStateSet_JSON(t *testing.T) {
	var s StateSet
	s.Add(StateFocusable)
	s.Add(StateIgnored)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["ignored","focusable"]`, string(b))

	var back StateSet
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)
	assert.True(t, back.Has(StateFocusable))
	assert.False(t, back.Has(StateCollapsed))
}

func TestBoolAttributes_PutRemove(t *testing.T) {
	var b BoolAttributes
	b.Put(BoolAttributeBusy, true)
	b.Put(BoolAttributeModal, false)

	v, ok := b.Lookup(BoolAttributeModal)
	assert.True(t, ok)
	assert.False(t, v)
	assert.Equal(t, 2, b.Len())

	b.Remove(BoolAttributeBusy)
	assert.False(t, b.Has(BoolAttributeBusy))
	assert.False(t, b.Get(BoolAttributeBusy))
	assert.Equal(t, 1, b.Len())
}

func TestNodeData_DecodeJSON(t *testing.T) {
	src := `{
		"id": 3,
		"role": "button",
		"state": ["focusable"],
		"string_attributes": [{"key": "name", "value": "OK"}],
		"int_list_attributes": [{"key": "labelledbyIds", "value": [4]}],
		"bool_attributes": {"busy": true},
		"child_ids": [4, 5]
	}`
	var d NodeData
	require.NoError(t, json.Unmarshal([]byte(src), &d))

	assert.Equal(t, NodeID(3), d.ID)
	assert.Equal(t, RoleButton, d.Role)
	assert.True(t, d.HasState(StateFocusable))
	assert.Equal(t, "OK", d.GetString(StringAttributeName))
	ids, ok := d.IntListAttribute(IntListAttributeLabelledbyIDs)
	require.True(t, ok)
	assert.Equal(t, []int32{4}, ids)
	assert.True(t, d.GetBool(BoolAttributeBusy))
	assert.Equal(t, []NodeID{4, 5}, d.ChildIDs)
	assert.Equal(t, "id=3 button focusable name=OK busy=true labelledbyIds=4 child_ids=4,5", d.String())
}

func TestNodeData_CloneIsDeep(t *testing.T) {
	d := NodeData{ID: 1, ChildIDs: []NodeID{2}}
	d.SetIntList(IntListAttributeControlsIDs, []int32{7})
	d.RelativeBounds.Transform = &Transform{ScaleX: 2, ScaleY: 2}

	c := d.Clone()
	require.True(t, d.Equal(&c))
	if diff := cmp.Diff(d, c); diff != "" {
		t.Fatalf("clone differs (-want +got):\n%s", diff)
	}

	c.ChildIDs[0] = 9
	c.IntListAttributes[0].Value[0] = 9
	c.RelativeBounds.Transform.ScaleX = 3
	assert.Equal(t, NodeID(2), d.ChildIDs[0])
	assert.Equal(t, int32(7), d.IntListAttributes[0].Value[0])
	assert.Equal(t, float32(2), d.RelativeBounds.Transform.ScaleX)
	assert.False(t, d.Equal(&c))
}

func TestNodeData_IsIgnored(t *testing.T) {
	d := NodeData{ID: 1, Role: RoleButton}
	assert.False(t, d.IsIgnored())
	d.AddState(StateIgnored)
	assert.True(t, d.IsIgnored())

	none := NodeData{ID: 2, Role: RoleNone}
	assert.True(t, none.IsIgnored())
}

func TestRectF_UnionIntersect(t *testing.T) {
	r := RectF{X: 0, Y: 0, Width: 10, Height: 10}
	r.Union(RectF{X: 5, Y: 5, Width: 10, Height: 10})
	assert.Equal(t, RectF{X: 0, Y: 0, Width: 15, Height: 15}, r)

	r.Intersect(RectF{X: 10, Y: 10, Width: 20, Height: 20})
	assert.Equal(t, RectF{X: 10, Y: 10, Width: 5, Height: 5}, r)

	r.Intersect(RectF{X: 100, Y: 100, Width: 1, Height: 1})
	assert.True(t, r.IsEmpty())

	var empty RectF
	empty.Union(RectF{X: 1, Y: 2, Width: 3, Height: 4})
	assert.Equal(t, RectF{X: 1, Y: 2, Width: 3, Height: 4}, empty)
}

func TestTransform_MapRect(t *testing.T) {
	tr := Transform{ScaleX: 2, ScaleY: 3, TranslateX: 10, TranslateY: 20}
	assert.Equal(t, RectF{X: 12, Y: 23, Width: 4, Height: 6}, tr.MapRect(RectF{X: 1, Y: 1, Width: 2, Height: 2}))
	assert.True(t, Identity().IsIdentity())
}

func TestNewTreeID_Unique(t *testing.T) {
	a, b := NewTreeID(), NewTreeID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
