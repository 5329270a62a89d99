package object

import (
	"fmt"
	"sort"
	"sync"
)

// Kwargs holds named arguments of a call.
type Kwargs = map[string]Object

// SortedKeys returns the names of kw in lexical order.
func SortedKeys(kw Kwargs) []string {
	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Callable is implemented by every value that can be applied to arguments.
type Callable interface {
	Object
	Call(args []Object, kwargs Kwargs) (Object, error)
}

// BuiltinFunc is the Go signature behind a Builtin.
type BuiltinFunc func(args []Object, kwargs Kwargs) (Object, error)

// Builtin is a function implemented in Go.
//
// Unless Lazy is set, positional and named arguments are forced before Fn
// runs, so ordinary builtins never observe unevaluated values.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
	Lazy bool
}

func NewBuiltin(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{Name: name, Fn: fn}
}

// NewLazyBuiltin returns a builtin that receives its arguments unforced.
func NewLazyBuiltin(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{Name: name, Fn: fn, Lazy: true}
}

func (b *Builtin) Type() Type     { return TypeBuiltin }
func (b *Builtin) String() string { return "<builtin " + b.Name + ">" }

func (b *Builtin) Call(args []Object, kwargs Kwargs) (Object, error) {
	if !b.Lazy {
		var err error
		if args, err = StrictAll(args); err != nil {
			return nil, err
		}
		if len(kwargs) > 0 {
			forced := make(Kwargs, len(kwargs))
			for _, k := range SortedKeys(kwargs) {
				if forced[k], err = Strict(kwargs[k]); err != nil {
					return nil, err
				}
			}
			kwargs = forced
		}
	}
	return b.Fn(args, kwargs)
}

// Call applies f to the given arguments. f is forced first.
func Call(f Object, args []Object, kwargs Kwargs) (Object, error) {
	f, err := Strict(f)
	if err != nil {
		return nil, err
	}
	c, ok := f.(Callable)
	if !ok {
		return nil, Errorf(TypeError, "'%s' object is not callable", f.Type())
	}
	return c.Call(args, kwargs)
}

// CheckArgs validates the number of positional arguments passed to a builtin.
func CheckArgs(name string, args []Object, min, max int) error {
	switch {
	case min == max && len(args) != min:
		return Errorf(TypeError, "%s() takes exactly %d argument%s (%d given)", name, min, plural(min), len(args))
	case len(args) < min:
		return Errorf(TypeError, "%s() takes at least %d argument%s (%d given)", name, min, plural(min), len(args))
	case max >= 0 && len(args) > max:
		return Errorf(TypeError, "%s() takes at most %d argument%s (%d given)", name, max, plural(max), len(args))
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Module is a named collection of attributes produced by an import.
type Module struct {
	Name  string
	Attrs map[string]Object
}

func NewModule(name string, attrs map[string]Object) *Module {
	return &Module{Name: name, Attrs: attrs}
}

func (m *Module) Type() Type     { return TypeModule }
func (m *Module) String() string { return "<module '" + m.Name + "'>" }

func (m *Module) GetAttr(name string) (Object, error) {
	if v, ok := m.Attrs[name]; ok {
		return v, nil
	}
	return nil, Errorf(AttributeError, "module '%s' has no attribute '%s'", m.Name, name)
}

// Iterator produces values one at a time. Next reports false once the
// underlying sequence is exhausted.
type Iterator struct {
	Name string
	next func() (Object, bool, error)
}

func NewIterator(name string, next func() (Object, bool, error)) *Iterator {
	return &Iterator{Name: name, next: next}
}

// SliceIterator iterates over a snapshot of elems.
func SliceIterator(name string, elems []Object) *Iterator {
	i := 0
	return NewIterator(name, func() (Object, bool, error) {
		if i >= len(elems) {
			return nil, false, nil
		}
		v := elems[i]
		i++
		return v, true, nil
	})
}

func (it *Iterator) Type() Type     { return TypeIterator }
func (it *Iterator) String() string { return fmt.Sprintf("<%s iterator>", it.Name) }

func (it *Iterator) Next() (Object, bool, error) {
	return it.next()
}

func (it *Iterator) Iter() (*Iterator, error) {
	return it, nil
}

// Namespace is a concurrency safe mapping from names to values. It backs the
// global scope of a running program.
type Namespace struct {
	mu   sync.RWMutex
	vars map[string]Object
}

func NewNamespace() *Namespace {
	return &Namespace{vars: make(map[string]Object)}
}

func (n *Namespace) Get(name string) (Object, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.vars[name]
	return v, ok
}

func (n *Namespace) Set(name string, v Object) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vars[name] = v
}

func (n *Namespace) Delete(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.vars, name)
}

// Names returns the bound names in lexical order.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return SortedKeys(n.vars)
}
