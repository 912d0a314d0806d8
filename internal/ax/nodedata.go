package ax

import (
	"fmt"
	"slices"
	"strings"
)

// NodeData is the full record describing one node as sent in an update.
type NodeData struct {
	ID                   NodeID                             `json:"id" msgpack:"id"`
	Role                 Role                               `json:"role,omitempty" msgpack:"role"`
	State                StateSet                           `json:"state,omitempty" msgpack:"state"`
	StringAttributes     []KV[StringAttribute, string]      `json:"string_attributes,omitempty" msgpack:"sa,omitempty"`
	IntAttributes        []KV[IntAttribute, int32]          `json:"int_attributes,omitempty" msgpack:"ia,omitempty"`
	FloatAttributes      []KV[FloatAttribute, float32]      `json:"float_attributes,omitempty" msgpack:"fa,omitempty"`
	BoolAttributes       BoolAttributes                     `json:"bool_attributes" msgpack:"ba"`
	IntListAttributes    []KV[IntListAttribute, []int32]    `json:"int_list_attributes,omitempty" msgpack:"ila,omitempty"`
	StringListAttributes []KV[StringListAttribute, []string] `json:"string_list_attributes,omitempty" msgpack:"sla,omitempty"`
	ChildIDs             []NodeID                           `json:"child_ids,omitempty" msgpack:"children,omitempty"`
	RelativeBounds       RelativeBounds                     `json:"relative_bounds" msgpack:"bounds"`
}

func (d *NodeData) HasState(s State) bool { return d.State.Has(s) }

func (d *NodeData) AddState(s State) { d.State.Add(s) }

func (d *NodeData) RemoveState(s State) { d.State.Remove(s) }

// IsIgnored reports whether the record by itself marks the node ignored.
// The tree may still treat a focused node as unignored.
func (d *NodeData) IsIgnored() bool {
	return d.HasState(StateIgnored) || d.Role == RoleNone
}

// IsInvisible reports whether the node carries the invisible state.
func (d *NodeData) IsInvisible() bool { return d.HasState(StateInvisible) }

func (d *NodeData) StringAttribute(a StringAttribute) (string, bool) {
	return lookup(d.StringAttributes, a)
}

func (d *NodeData) GetString(a StringAttribute) string {
	v, _ := lookup(d.StringAttributes, a)
	return v
}

func (d *NodeData) SetString(a StringAttribute, v string) {
	d.StringAttributes = upsert(d.StringAttributes, a, v)
}

func (d *NodeData) RemoveString(a StringAttribute) {
	d.StringAttributes = remove(d.StringAttributes, a)
}

func (d *NodeData) IntAttribute(a IntAttribute) (int32, bool) {
	return lookup(d.IntAttributes, a)
}

func (d *NodeData) GetInt(a IntAttribute) int32 {
	v, _ := lookup(d.IntAttributes, a)
	return v
}

func (d *NodeData) SetInt(a IntAttribute, v int32) {
	d.IntAttributes = upsert(d.IntAttributes, a, v)
}

func (d *NodeData) RemoveInt(a IntAttribute) {
	d.IntAttributes = remove(d.IntAttributes, a)
}

func (d *NodeData) FloatAttribute(a FloatAttribute) (float32, bool) {
	return lookup(d.FloatAttributes, a)
}

func (d *NodeData) SetFloat(a FloatAttribute, v float32) {
	d.FloatAttributes = upsert(d.FloatAttributes, a, v)
}

func (d *NodeData) BoolAttribute(a BoolAttribute) (bool, bool) {
	return d.BoolAttributes.Lookup(a)
}

func (d *NodeData) GetBool(a BoolAttribute) bool { return d.BoolAttributes.Get(a) }

func (d *NodeData) SetBool(a BoolAttribute, v bool) { d.BoolAttributes.Put(a, v) }

func (d *NodeData) IntListAttribute(a IntListAttribute) ([]int32, bool) {
	return lookup(d.IntListAttributes, a)
}

func (d *NodeData) SetIntList(a IntListAttribute, v []int32) {
	d.IntListAttributes = upsert(d.IntListAttributes, a, v)
}

func (d *NodeData) StringListAttribute(a StringListAttribute) ([]string, bool) {
	return lookup(d.StringListAttributes, a)
}

func (d *NodeData) SetStringList(a StringListAttribute, v []string) {
	d.StringListAttributes = upsert(d.StringListAttributes, a, v)
}

// ChildTreeID returns the id of the tree embedded at this node, if any.
func (d *NodeData) ChildTreeID() (string, bool) {
	v, ok := d.StringAttribute(StringAttributeChildTreeID)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Clone returns a deep copy of d.
func (d *NodeData) Clone() NodeData {
	out := *d
	out.StringAttributes = slices.Clone(d.StringAttributes)
	out.IntAttributes = slices.Clone(d.IntAttributes)
	out.FloatAttributes = slices.Clone(d.FloatAttributes)
	out.ChildIDs = slices.Clone(d.ChildIDs)
	if d.IntListAttributes != nil {
		out.IntListAttributes = make([]KV[IntListAttribute, []int32], len(d.IntListAttributes))
		for i, kv := range d.IntListAttributes {
			out.IntListAttributes[i] = KV[IntListAttribute, []int32]{Key: kv.Key, Value: slices.Clone(kv.Value)}
		}
	}
	if d.StringListAttributes != nil {
		out.StringListAttributes = make([]KV[StringListAttribute, []string], len(d.StringListAttributes))
		for i, kv := range d.StringListAttributes {
			out.StringListAttributes[i] = KV[StringListAttribute, []string]{Key: kv.Key, Value: slices.Clone(kv.Value)}
		}
	}
	if d.RelativeBounds.Transform != nil {
		t := *d.RelativeBounds.Transform
		out.RelativeBounds.Transform = &t
	}
	return out
}

// Equal reports whether d and o describe the same node. Attribute lists
// are compared in order.
func (d *NodeData) Equal(o *NodeData) bool {
	if d.ID != o.ID || d.Role != o.Role || d.State != o.State || d.BoolAttributes != o.BoolAttributes {
		return false
	}
	if !slices.Equal(d.ChildIDs, o.ChildIDs) ||
		!slices.Equal(d.StringAttributes, o.StringAttributes) ||
		!slices.Equal(d.IntAttributes, o.IntAttributes) ||
		!slices.Equal(d.FloatAttributes, o.FloatAttributes) {
		return false
	}
	if !slices.EqualFunc(d.IntListAttributes, o.IntListAttributes, func(a, b KV[IntListAttribute, []int32]) bool {
		return a.Key == b.Key && slices.Equal(a.Value, b.Value)
	}) {
		return false
	}
	if !slices.EqualFunc(d.StringListAttributes, o.StringListAttributes, func(a, b KV[StringListAttribute, []string]) bool {
		return a.Key == b.Key && slices.Equal(a.Value, b.Value)
	}) {
		return false
	}
	return d.RelativeBounds.Equal(&o.RelativeBounds)
}

// String renders a single line description, e.g.
// "id=3 button focusable name=OK child_ids=4,5".
func (d *NodeData) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%d %s", d.ID, d.Role)
	d.State.Each(func(s State) {
		b.WriteByte(' ')
		b.WriteString(s.String())
	})
	if d.RelativeBounds.OffsetContainerID != InvalidNodeID {
		fmt.Fprintf(&b, " offset_container_id=%d", d.RelativeBounds.OffsetContainerID)
	}
	if !d.RelativeBounds.Bounds.IsZero() {
		fmt.Fprintf(&b, " %s", d.RelativeBounds.Bounds)
	}
	for _, kv := range d.StringAttributes {
		fmt.Fprintf(&b, " %s=%s", kv.Key, kv.Value)
	}
	for _, kv := range d.IntAttributes {
		fmt.Fprintf(&b, " %s=%d", kv.Key, kv.Value)
	}
	for _, kv := range d.FloatAttributes {
		fmt.Fprintf(&b, " %s=%g", kv.Key, kv.Value)
	}
	d.BoolAttributes.Each(func(a BoolAttribute, v bool) {
		fmt.Fprintf(&b, " %s=%t", a, v)
	})
	for _, kv := range d.IntListAttributes {
		fmt.Fprintf(&b, " %s=%s", kv.Key, joinInts(kv.Value))
	}
	for _, kv := range d.StringListAttributes {
		fmt.Fprintf(&b, " %s=%s", kv.Key, strings.Join(kv.Value, ","))
	}
	if len(d.ChildIDs) > 0 {
		ids := make([]int32, len(d.ChildIDs))
		for i, id := range d.ChildIDs {
			ids[i] = int32(id)
		}
		fmt.Fprintf(&b, " child_ids=%s", joinInts(ids))
	}
	return b.String()
}

func joinInts(v []int32) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ",")
}
