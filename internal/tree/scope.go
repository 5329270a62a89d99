package tree

import (
	"sort"

	"github.com/cespare/xxhash/v2"

	"lazy/internal/thunk"
)

// Scope remembers the thunk compiled for each distinct subtree. Compiling
// several trees with one scope makes them share thunks for their common
// subexpressions.
type Scope struct {
	kind    *thunk.Kind
	buckets map[uint64][]scopeEntry
	size    int
}

type scopeEntry struct {
	node  Node
	thunk *thunk.Thunk
}

// NewScope creates an empty scope producing thunks of kind. A nil kind
// means thunk.Default.
func NewScope(kind *thunk.Kind) *Scope {
	if kind == nil {
		kind = thunk.Default
	}
	return &Scope{kind: kind, buckets: make(map[uint64][]scopeEntry)}
}

func (s *Scope) Kind() *thunk.Kind {
	return s.kind
}

// Len is the number of distinct subtrees compiled so far.
func (s *Scope) Len() int {
	return s.size
}

func (s *Scope) lookup(n Node) (*thunk.Thunk, bool) {
	for _, e := range s.buckets[n.Hash()] {
		if e.node.Equal(n) {
			return e.thunk, true
		}
	}
	return nil, false
}

func (s *Scope) store(n Node, t *thunk.Thunk) {
	h := n.Hash()
	s.buckets[h] = append(s.buckets[h], scopeEntry{node: n, thunk: t})
	s.size++
}

func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

func sortStrings(keys []string) []string {
	sort.Strings(keys)
	return keys
}
