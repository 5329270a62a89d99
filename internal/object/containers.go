package object

import (
	"strings"
)

// List is a mutable sequence. Elements are stored as given and may be
// unforced values.
type List struct {
	Elems []Object
}

func NewList(elems ...Object) *List {
	return &List{Elems: elems}
}

func (l *List) Type() Type     { return TypeList }
func (l *List) String() string { return "[" + joinRepr(l.Elems) + "]" }

func (l *List) Append(v Object) {
	l.Elems = append(l.Elems, v)
}

// Tuple is an immutable sequence.
type Tuple struct {
	Elems []Object
}

func NewTuple(elems ...Object) *Tuple {
	return &Tuple{Elems: elems}
}

func (t *Tuple) Type() Type { return TypeTuple }

func (t *Tuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + joinRepr(t.Elems) + ",)"
	}
	return "(" + joinRepr(t.Elems) + ")"
}

func joinRepr(elems []Object) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// table is an insertion ordered hash index shared by Dict and Set. Keys are
// forced when they are hashed; the stored key is the normal form.
type table struct {
	keys    []Object
	values  []Object
	buckets map[uint64][]int
}

func newTable() table {
	return table{buckets: make(map[uint64][]int)}
}

func (t *table) find(key Object) (int, uint64, error) {
	h, err := Hash(key)
	if err != nil {
		return -1, 0, err
	}
	for _, i := range t.buckets[h] {
		eq, err := Equal(t.keys[i], key)
		if err != nil {
			return -1, h, err
		}
		if eq {
			return i, h, nil
		}
	}
	return -1, h, nil
}

func (t *table) put(key, value Object) error {
	key, err := Strict(key)
	if err != nil {
		return err
	}
	i, h, err := t.find(key)
	if err != nil {
		return err
	}
	if i >= 0 {
		t.values[i] = value
		return nil
	}
	t.buckets[h] = append(t.buckets[h], len(t.keys))
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
	return nil
}

func (t *table) len() int {
	return len(t.keys)
}

// Dict maps hashable keys to values, preserving insertion order.
type Dict struct {
	table
}

func NewDict() *Dict {
	return &Dict{table: newTable()}
}

func (d *Dict) Type() Type { return TypeDict }

func (d *Dict) String() string {
	parts := make([]string, len(d.keys))
	for i := range d.keys {
		parts[i] = d.keys[i].String() + ": " + d.values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns the value stored under key.
func (d *Dict) Get(key Object) (Object, bool, error) {
	i, _, err := d.find(key)
	if err != nil || i < 0 {
		return nil, false, err
	}
	return d.values[i], true, nil
}

func (d *Dict) Set(key, value Object) error {
	return d.put(key, value)
}

func (d *Dict) Len() int { return d.len() }

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Object {
	return append([]Object(nil), d.keys...)
}

// Values returns the values in insertion order.
func (d *Dict) Values() []Object {
	return append([]Object(nil), d.values...)
}

// Set is an unordered collection of distinct hashable values. Iteration
// follows insertion order.
type Set struct {
	table
}

func NewSet() *Set {
	return &Set{table: newTable()}
}

func (s *Set) Type() Type { return TypeSet }

func (s *Set) String() string {
	if len(s.keys) == 0 {
		return "set()"
	}
	return "{" + joinRepr(s.keys) + "}"
}

func (s *Set) Add(v Object) error {
	return s.put(v, None)
}

func (s *Set) Has(v Object) (bool, error) {
	i, _, err := s.find(v)
	return i >= 0, err
}

func (s *Set) Len() int { return s.len() }

// Elems returns the members in insertion order.
func (s *Set) Elems() []Object {
	return append([]Object(nil), s.keys...)
}

// SetFrom builds a set out of elems.
func SetFrom(elems []Object) (*Set, error) {
	s := NewSet()
	for _, e := range elems {
		if err := s.Add(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DictFrom builds a dict out of alternating keys and values.
func DictFrom(pairs []Object) (*Dict, error) {
	d := NewDict()
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := d.Set(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return d, nil
}
