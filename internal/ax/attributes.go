package ax

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
)

// StateSet is a bit set of States.
type StateSet uint64

func (s StateSet) Has(st State) bool { return s&(1<<st) != 0 }

func (s *StateSet) Add(st State) { *s |= 1 << st }

func (s *StateSet) Remove(st State) { *s &^= 1 << st }

// Each calls fn for every state in the set, lowest first.
func (s StateSet) Each(fn func(State)) {
	for v := uint64(s); v != 0; v &= v - 1 {
		fn(State(bits.TrailingZeros64(v)))
	}
}

// MarshalJSON encodes the set as a list of state names.
func (s StateSet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, bits.OnesCount64(uint64(s)))
	s.Each(func(st State) { names = append(names, st.String()) })
	return json.Marshal(names)
}

func (s *StateSet) UnmarshalJSON(b []byte) error {
	var names []State
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*s = 0
	for _, st := range names {
		if st == StateNone {
			continue
		}
		s.Add(st)
	}
	return nil
}

// KV is one entry of an attribute list. Lists keep insertion order and
// may hold keys in any order.
type KV[K ~int32, V any] struct {
	Key   K `json:"key" msgpack:"k"`
	Value V `json:"value" msgpack:"v"`
}

func lookup[K ~int32, V any](list []KV[K, V], key K) (V, bool) {
	for _, kv := range list {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	var zero V
	return zero, false
}

func upsert[K ~int32, V any](list []KV[K, V], key K, v V) []KV[K, V] {
	for i := range list {
		if list[i].Key == key {
			list[i].Value = v
			return list
		}
	}
	return append(list, KV[K, V]{Key: key, Value: v})
}

func remove[K ~int32, V any](list []KV[K, V], key K) []KV[K, V] {
	out := list[:0]
	for _, kv := range list {
		if kv.Key != key {
			out = append(out, kv)
		}
	}
	return out
}

// BoolAttributes stores bool attributes as two bit sets: Set marks which
// attributes are present and Values carries their values.
type BoolAttributes struct {
	Set    uint64 `msgpack:"s"`
	Values uint64 `msgpack:"v"`
}

func (b BoolAttributes) Has(a BoolAttribute) bool { return b.Set&(1<<a) != 0 }

// Get returns the value of a, or false when it is not set.
func (b BoolAttributes) Get(a BoolAttribute) bool { return b.Values&(1<<a) != 0 }

// Lookup returns the value of a and whether it is set.
func (b BoolAttributes) Lookup(a BoolAttribute) (bool, bool) { return b.Get(a), b.Has(a) }

func (b *BoolAttributes) Put(a BoolAttribute, v bool) {
	b.Set |= 1 << a
	if v {
		b.Values |= 1 << a
	} else {
		b.Values &^= 1 << a
	}
}

func (b *BoolAttributes) Remove(a BoolAttribute) {
	b.Set &^= 1 << a
	b.Values &^= 1 << a
}

// Len returns the number of set attributes.
func (b BoolAttributes) Len() int { return bits.OnesCount64(b.Set) }

// Each calls fn for every set attribute in key order.
func (b BoolAttributes) Each(fn func(BoolAttribute, bool)) {
	for v := b.Set; v != 0; v &= v - 1 {
		a := BoolAttribute(bits.TrailingZeros64(v))
		fn(a, b.Get(a))
	}
}

// MarshalJSON encodes the set attributes as an object keyed by name.
func (b BoolAttributes) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, b.Len())
	b.Each(func(a BoolAttribute, v bool) { m[a.String()] = v })
	return json.Marshal(m)
}

func (b *BoolAttributes) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	*b = BoolAttributes{}
	for _, k := range keys {
		var a BoolAttribute
		if err := a.UnmarshalText([]byte(k)); err != nil {
			return err
		}
		if a >= 64 {
			return fmt.Errorf("bool attribute %q out of range", k)
		}
		b.Put(a, m[k])
	}
	return nil
}
