// Package tree converts thunk graphs into immutable expression trees and
// back. A tree can be inspected, compared structurally, rewritten with
// substitutions and compiled into a fresh thunk graph in which structurally
// equal subtrees share a single thunk.
//
// Inspecting a tree never forces it. Leaves whose values still hold
// unforced thunks, or cannot be hashed, are compared by identity.
package tree

import (
	"fmt"
	"iter"
	"strings"

	"lazy/internal/object"
	"lazy/internal/thunk"
)

// Node is an element of an expression tree. Nodes are immutable: every
// operation that changes a tree returns a new one.
type Node interface {
	fmt.Stringer

	// Equal reports structural equality.
	Equal(other Node) bool
	// Hash is consistent with Equal.
	Hash() uint64
	// Traverse yields the node itself followed by its descendants, depth
	// first, with named arguments in key order.
	Traverse() iter.Seq[Node]
	// Leaves yields the Normal nodes in traversal order.
	Leaves() iter.Seq[Node]
	// Subs returns a copy of the tree with substitutions applied.
	Subs(s *Substitutions) Node
	// Contains reports whether x occurs in the tree. x is either a Node,
	// matched structurally, or a value, matched against Normal leaves and
	// the containers they hold.
	Contains(x any) bool

	compile(scope *Scope) *thunk.Thunk
}

// Call is a deferred application of Func to positional and named arguments.
type Call struct {
	Func   Node
	Args   []Node
	Kwargs map[string]Node
}

// Normal is a leaf holding an already computed value.
type Normal struct {
	Value object.Object
}

// NewCall builds a call node. The slices are copied.
func NewCall(fn Node, args []Node, kwargs map[string]Node) *Call {
	c := &Call{Func: fn, Args: append([]Node(nil), args...)}
	if len(kwargs) > 0 {
		c.Kwargs = make(map[string]Node, len(kwargs))
		for k, v := range kwargs {
			c.Kwargs[k] = v
		}
	}
	return c
}

func NewNormal(v object.Object) *Normal {
	return &Normal{Value: v}
}

// Parse builds the tree of v. Values that are not thunks, and thunks that
// already hold their normal form, become Normal leaves. Any other thunk
// becomes a Call over the parsed operation and operands. Parse never forces
// anything.
func Parse(v object.Object) Node {
	t, ok := v.(*thunk.Thunk)
	if !ok {
		return NewNormal(v)
	}
	if normal, forced := t.Value(); forced {
		return NewNormal(normal)
	}
	op, args, kwargs, pending := t.Operation()
	if !pending {
		// Forced between the two reads.
		normal, _ := t.Value()
		return NewNormal(normal)
	}
	c := &Call{Func: Parse(op), Args: make([]Node, len(args))}
	for i, a := range args {
		c.Args[i] = Parse(a)
	}
	if len(kwargs) > 0 {
		c.Kwargs = make(map[string]Node, len(kwargs))
		for k, a := range kwargs {
			c.Kwargs[k] = Parse(a)
		}
	}
	return c
}

// Compile turns n into a thunk graph of the scope's kind, reusing the
// thunks the scope already holds for structurally equal subtrees.
func Compile(n Node, scope *Scope) *thunk.Thunk {
	if scope == nil {
		scope = NewScope(nil)
	}
	return n.compile(scope)
}

// Fold parses v and compiles it back with a fresh scope, collapsing
// duplicated subexpressions into shared thunks.
func Fold(v object.Object) object.Object {
	t, ok := v.(*thunk.Thunk)
	if !ok {
		return v
	}
	return Compile(Parse(t), NewScope(t.Kind()))
}

func (c *Call) sortedKwargs() []string {
	keys := make([]string, 0, len(c.Kwargs))
	for k := range c.Kwargs {
		keys = append(keys, k)
	}
	return sortStrings(keys)
}

func (c *Call) Equal(other Node) bool {
	o, ok := other.(*Call)
	if !ok || len(c.Args) != len(o.Args) || len(c.Kwargs) != len(o.Kwargs) {
		return false
	}
	if !c.Func.Equal(o.Func) {
		return false
	}
	for i := range c.Args {
		if !c.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	for k, v := range c.Kwargs {
		ov, ok := o.Kwargs[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

const (
	callSeed   = 0x63616c6c
	normalSeed = 0x6e6f726d
)

func (c *Call) Hash() uint64 {
	hashes := []uint64{c.Func.Hash(), uint64(len(c.Args))}
	for _, a := range c.Args {
		hashes = append(hashes, a.Hash())
	}
	for _, k := range c.sortedKwargs() {
		hashes = append(hashes, object.Combine(0, hashString(k)), c.Kwargs[k].Hash())
	}
	return object.Combine(callSeed, hashes...)
}

func (c *Call) Traverse() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		c.walk(yield)
	}
}

func (c *Call) walk(yield func(Node) bool) bool {
	if !yield(c) {
		return false
	}
	if !walk(c.Func, yield) {
		return false
	}
	for _, a := range c.Args {
		if !walk(a, yield) {
			return false
		}
	}
	for _, k := range c.sortedKwargs() {
		if !walk(c.Kwargs[k], yield) {
			return false
		}
	}
	return true
}

func walk(n Node, yield func(Node) bool) bool {
	if c, ok := n.(*Call); ok {
		return c.walk(yield)
	}
	return yield(n)
}

func (c *Call) Leaves() iter.Seq[Node] {
	return leaves(c)
}

func leaves(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for node := range n.Traverse() {
			if _, ok := node.(*Normal); ok {
				if !yield(node) {
					return
				}
			}
		}
	}
}

func (c *Call) Subs(s *Substitutions) Node {
	if to, ok := s.lookupNode(c); ok {
		return to
	}
	out := &Call{Func: c.Func.Subs(s), Args: make([]Node, len(c.Args))}
	for i, a := range c.Args {
		out.Args[i] = a.Subs(s)
	}
	if len(c.Kwargs) > 0 {
		out.Kwargs = make(map[string]Node, len(c.Kwargs))
		for k, v := range c.Kwargs {
			out.Kwargs[k] = v.Subs(s)
		}
	}
	return out
}

func (c *Call) Contains(x any) bool {
	return contains(c, x)
}

func (c *Call) compile(scope *Scope) *thunk.Thunk {
	if t, ok := scope.lookup(c); ok {
		return t
	}
	fn := c.Func.compile(scope)
	args := make([]object.Object, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.compile(scope)
	}
	var kwargs object.Kwargs
	if len(c.Kwargs) > 0 {
		kwargs = make(object.Kwargs, len(c.Kwargs))
		for _, k := range c.sortedKwargs() {
			kwargs[k] = c.Kwargs[k].compile(scope)
		}
	}
	t := scope.Kind().New(fn, args, kwargs)
	scope.store(c, t)
	return t
}

func (c *Call) String() string {
	var b strings.Builder
	b.WriteString("Call(")
	b.WriteString(c.Func.String())
	b.WriteString(", (")
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	if len(c.Args) == 1 {
		b.WriteString(",")
	}
	b.WriteString("), {")
	for i, k := range c.sortedKwargs() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(object.Str(k).String())
		b.WriteString(": ")
		b.WriteString(c.Kwargs[k].String())
	}
	b.WriteString("})")
	return b.String()
}

// Equal compares values with host equality when both are hashable and hold
// no unforced thunk, and by identity otherwise, so it never forces.
func (n *Normal) Equal(other Node) bool {
	o, ok := other.(*Normal)
	return ok && sameValue(n.Value, o.Value)
}

func (n *Normal) Hash() uint64 {
	return object.Combine(normalSeed, valueHash(n.Value))
}

// sameValue is the leaf equality shared by Normal nodes and value
// substitutions. valueHash is consistent with it.
func sameValue(a, b object.Object) bool {
	if object.Identical(a, b) {
		return true
	}
	h1, ok1 := leafHash(a)
	h2, ok2 := leafHash(b)
	if !ok1 || !ok2 || h1 != h2 {
		return false
	}
	eq, err := object.Equal(a, b)
	return err == nil && eq
}

func valueHash(v object.Object) uint64 {
	if h, ok := leafHash(v); ok {
		return h
	}
	return object.IdentityHash(v)
}

func leafHash(v object.Object) (uint64, bool) {
	if pending(v) {
		return 0, false
	}
	h, err := object.Hash(v)
	return h, err == nil
}

// pending reports whether v is or holds a thunk that has not been forced.
func pending(v object.Object) bool {
	return pendingIn(v, map[object.Object]bool{})
}

func pendingIn(v object.Object, seen map[object.Object]bool) bool {
	if t, ok := v.(*thunk.Thunk); ok {
		normal, forced := t.Value()
		if !forced {
			return true
		}
		v = normal
	}
	elems := elements(v)
	if len(elems) == 0 || seen[v] {
		return false
	}
	seen[v] = true
	for _, e := range elems {
		if pendingIn(e, seen) {
			return true
		}
	}
	return false
}

func elements(v object.Object) []object.Object {
	switch c := v.(type) {
	case *object.List:
		return c.Elems
	case *object.Tuple:
		return c.Elems
	case *object.Set:
		return c.Elems()
	case *object.Dict:
		return append(c.Keys(), c.Values()...)
	}
	return nil
}

func (n *Normal) Traverse() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		yield(n)
	}
}

func (n *Normal) Leaves() iter.Seq[Node] {
	return n.Traverse()
}

func (n *Normal) Subs(s *Substitutions) Node {
	if to, ok := s.lookupNode(n); ok {
		return to
	}
	if to, ok := s.lookupValue(n.Value); ok {
		return NewNormal(to)
	}
	return NewNormal(n.Value)
}

func (n *Normal) Contains(x any) bool {
	return contains(n, x)
}

func (n *Normal) compile(scope *Scope) *thunk.Thunk {
	if t, ok := scope.lookup(n); ok {
		return t
	}
	t := scope.Kind().FromValue(n.Value)
	scope.store(n, t)
	return t
}

func (n *Normal) String() string {
	return "Normal(" + n.Value.String() + ")"
}

func contains(root Node, x any) bool {
	switch x := x.(type) {
	case Node:
		for node := range root.Traverse() {
			if node.Equal(x) {
				return true
			}
		}
		return false
	case object.Object:
		for leaf := range root.Leaves() {
			if valueContains(leaf.(*Normal).Value, x) {
				return true
			}
		}
	}
	return false
}

// valueContains matches x against v itself and, recursively, against the
// elements of containers v holds. Values holding unforced thunks only match
// by identity.
func valueContains(v, x object.Object) bool {
	if object.Identical(v, x) {
		return true
	}
	if t, ok := v.(*thunk.Thunk); ok {
		normal, forced := t.Value()
		if !forced {
			return false
		}
		v = normal
	}
	if !pending(v) && !pending(x) {
		if eq, err := object.Equal(v, x); err == nil && eq {
			return true
		}
	}
	for _, e := range elements(v) {
		if valueContains(e, x) {
			return true
		}
	}
	return false
}
