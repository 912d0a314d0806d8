package tree

import (
	"cmp"
	"math/bits"
	"slices"

	"github.com/agentic-research/axtree/internal/ax"
)

// callIfAttributeValuesChanged calls fn for every key whose value differs
// between oldList and newList. A key missing from one side compares
// against empty, so adding or removing an empty value is silent.
func callIfAttributeValuesChanged[K ~int32, V any](
	oldList, newList []ax.KV[K, V],
	empty V,
	equal func(a, b V) bool,
	fn func(key K, oldValue, newValue V),
) {
	// Same keys in the same order is the common case.
	if len(oldList) == len(newList) {
		sameKeys := true
		for i := range oldList {
			if oldList[i].Key != newList[i].Key {
				sameKeys = false
				break
			}
		}
		if sameKeys {
			for i := range oldList {
				if !equal(oldList[i].Value, newList[i].Value) {
					fn(oldList[i].Key, oldList[i].Value, newList[i].Value)
				}
			}
			return
		}
	}

	byKey := func(a, b ax.KV[K, V]) int { return cmp.Compare(a.Key, b.Key) }
	o := slices.Clone(oldList)
	n := slices.Clone(newList)
	slices.SortStableFunc(o, byKey)
	slices.SortStableFunc(n, byKey)

	i, j := 0, 0
	for i < len(o) || j < len(n) {
		switch {
		case j == len(n) || (i < len(o) && o[i].Key < n[j].Key):
			if !equal(o[i].Value, empty) {
				fn(o[i].Key, o[i].Value, empty)
			}
			i++
		case i == len(o) || n[j].Key < o[i].Key:
			if !equal(n[j].Value, empty) {
				fn(n[j].Key, empty, n[j].Value)
			}
			j++
		default:
			if !equal(o[i].Value, n[j].Value) {
				fn(o[i].Key, o[i].Value, n[j].Value)
			}
			i++
			j++
		}
	}
}

// callIfBoolAttributesChanged is the bit set form of
// callIfAttributeValuesChanged. Unset attributes read as valueIfUnset.
func callIfBoolAttributesChanged(oldAttrs, newAttrs ax.BoolAttributes, valueIfUnset bool, fn func(attr ax.BoolAttribute, oldValue, newValue bool)) {
	effective := func(b ax.BoolAttributes) uint64 {
		if valueIfUnset {
			return b.Values | ^b.Set
		}
		return b.Values & b.Set
	}
	oldBits, newBits := effective(oldAttrs), effective(newAttrs)
	for changes := oldBits ^ newBits; changes != 0; changes &= changes - 1 {
		i := bits.TrailingZeros64(changes)
		fn(ax.BoolAttribute(i), oldBits&(1<<i) != 0, newBits&(1<<i) != 0)
	}
}

// callIfStatesChanged calls fn for every state other than ignored whose
// membership differs.
func callIfStatesChanged(oldStates, newStates ax.StateSet, fn func(state ax.State, newValue bool)) {
	(oldStates ^ newStates).Each(func(s ax.State) {
		if s == ax.StateIgnored {
			return
		}
		fn(s, newStates.Has(s))
	})
}

func equalComparable[V comparable](a, b V) bool { return a == b }
