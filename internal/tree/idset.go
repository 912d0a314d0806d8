package tree

import (
	"github.com/agentic-research/axtree/internal/ax"
)

// IDSet is a set of node ids that iterates in insertion order. The zero
// value is an empty set ready to use.
type IDSet struct {
	index map[ax.NodeID]int
	ids   []ax.NodeID
}

// Insert adds id and reports whether it was absent.
func (s *IDSet) Insert(id ax.NodeID) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	if s.index == nil {
		s.index = make(map[ax.NodeID]int)
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	return true
}

// Erase removes id and reports whether it was present.
func (s *IDSet) Erase(id ax.NodeID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	delete(s.index, id)
	s.ids[i] = ax.InvalidNodeID
	return true
}

func (s IDSet) Has(id ax.NodeID) bool {
	_, ok := s.index[id]
	return ok
}

func (s IDSet) Len() int { return len(s.index) }

// IDs returns the members in insertion order.
func (s IDSet) IDs() []ax.NodeID {
	out := make([]ax.NodeID, 0, len(s.index))
	for _, id := range s.ids {
		if id != ax.InvalidNodeID {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns an independent copy with compacted storage.
func (s IDSet) Clone() IDSet {
	var out IDSet
	for _, id := range s.IDs() {
		out.Insert(id)
	}
	return out
}
