package tree

import (
	"lazy/internal/object"
)

// Substitutions maps subtrees or leaf values to their replacements. Node
// keys are matched structurally. Value keys match the values held by Normal
// leaves, using equality for hashable values and identity otherwise. Values
// holding unforced thunks match by identity.
type Substitutions struct {
	nodes  map[uint64][]nodeSub
	values map[uint64][]valueSub
}

type nodeSub struct {
	from, to Node
}

type valueSub struct {
	from, to object.Object
}

func NewSubstitutions() *Substitutions {
	return &Substitutions{
		nodes:  make(map[uint64][]nodeSub),
		values: make(map[uint64][]valueSub),
	}
}

// Node replaces every subtree equal to from with to.
func (s *Substitutions) Node(from, to Node) *Substitutions {
	h := from.Hash()
	s.nodes[h] = append(s.nodes[h], nodeSub{from: from, to: to})
	return s
}

// Value replaces every leaf holding from with a leaf holding to.
func (s *Substitutions) Value(from, to object.Object) *Substitutions {
	h := valueHash(from)
	s.values[h] = append(s.values[h], valueSub{from: from, to: to})
	return s
}

func (s *Substitutions) Len() int {
	n := 0
	for _, b := range s.nodes {
		n += len(b)
	}
	for _, b := range s.values {
		n += len(b)
	}
	return n
}

func (s *Substitutions) lookupNode(n Node) (Node, bool) {
	if s == nil || len(s.nodes) == 0 {
		return nil, false
	}
	for _, sub := range s.nodes[n.Hash()] {
		if sub.from.Equal(n) {
			return sub.to, true
		}
	}
	return nil, false
}

func (s *Substitutions) lookupValue(v object.Object) (object.Object, bool) {
	if s == nil || len(s.values) == 0 {
		return nil, false
	}
	for _, sub := range s.values[valueHash(v)] {
		if sameValue(sub.from, v) {
			return sub.to, true
		}
	}
	return nil, false
}
