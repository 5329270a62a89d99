// Package data provides lazy data structures for lz programs.
package data

import (
	"strings"
	"sync"

	"lazy/internal/object"
)

const TypeList object.Type = "L"

// previewLen bounds how many elements String forces.
const previewLen = 20

// List is a cons list whose tail is produced on first access. Nil is the
// empty list. A tail that fails to produce is retried on the next access.
type List struct {
	car   object.Object
	empty bool

	mu   sync.Mutex
	tail func() (object.Object, error)
	cdr  *List
}

var Nil = &List{empty: true}

func Cons(car object.Object, cdr *List) *List {
	return &List{car: car, cdr: cdr}
}

// Defer creates a cell whose tail is computed by calling tail. The result,
// once forced, must be a List.
func Defer(car object.Object, tail func() (object.Object, error)) *List {
	return &List{car: car, tail: tail}
}

func FromSlice(elems ...object.Object) *List {
	l := Nil
	for i := len(elems) - 1; i >= 0; i-- {
		l = Cons(elems[i], l)
	}
	return l
}

// FromIterator consumes it as the list is walked. Only the first element is
// taken immediately.
func FromIterator(it *object.Iterator) (*List, error) {
	v, more, err := it.Next()
	if err != nil {
		return nil, err
	}
	if !more {
		return Nil, nil
	}
	return Defer(v, func() (object.Object, error) {
		return FromIterator(it)
	}), nil
}

// EnumFrom lists from, from+by, ... up to and including to. A nil to
// makes the list infinite.
func EnumFrom(from, to, by object.Object) (*List, error) {
	if to != nil {
		past, err := object.Less(to, from)
		if err != nil {
			return nil, err
		}
		if past {
			return Nil, nil
		}
	}
	return Defer(from, func() (object.Object, error) {
		next, err := object.Binary(object.OpAdd, from, by)
		if err != nil {
			return nil, err
		}
		return EnumFrom(next, to, by)
	}), nil
}

func (l *List) Type() object.Type { return TypeList }

func (l *List) String() string {
	var b strings.Builder
	b.WriteString("L[")
	cur := l
	for i := 0; !cur.empty; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if i == previewLen {
			b.WriteString("...")
			break
		}
		s, err := object.Repr(cur.car)
		if err != nil {
			b.WriteString("...")
			break
		}
		b.WriteString(s)
		if cur, err = cur.Cdr(); err != nil {
			b.WriteString(", ...")
			break
		}
	}
	b.WriteString("]")
	return b.String()
}

func (l *List) Empty() bool {
	return l.empty
}

func (l *List) Car() (object.Object, error) {
	if l.empty {
		return nil, object.Errorf(object.IndexError, "car of empty list")
	}
	return l.car, nil
}

func (l *List) Cdr() (*List, error) {
	if l.empty {
		return nil, object.Errorf(object.IndexError, "cdr of empty list")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cdr != nil {
		return l.cdr, nil
	}

	v, err := l.tail()
	if err == nil {
		v, err = object.Strict(v)
	}
	if err != nil {
		return nil, err
	}
	next, ok := v.(*List)
	if !ok {
		return nil, object.Errorf(object.TypeError, "list tail must be L, not '%s'", v.Type())
	}
	l.cdr, l.tail = next, nil
	return next, nil
}

func (l *List) Iter() (*object.Iterator, error) {
	cur := l
	return object.NewIterator("L", func() (object.Object, bool, error) {
		if cur.empty {
			return nil, false, nil
		}
		v := cur.car
		next, err := cur.Cdr()
		if err != nil {
			return nil, false, err
		}
		cur = next
		return v, true, nil
	}), nil
}

// Len walks the whole list without forcing its elements.
func (l *List) Len() (int, error) {
	n := 0
	for cur := l; !cur.empty; n++ {
		var err error
		if cur, err = cur.Cdr(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// GetItem walks to the element at key. Negative keys need the length and
// so only work on finite lists.
func (l *List) GetItem(key object.Object) (object.Object, error) {
	i, err := object.AsIndex(key)
	if err != nil {
		return nil, err
	}
	if i < 0 {
		n, err := l.Len()
		if err != nil {
			return nil, err
		}
		i += n
	}
	if i < 0 {
		return nil, object.Errorf(object.IndexError, "L index out of range")
	}
	cur := l
	for ; i > 0 && !cur.empty; i-- {
		if cur, err = cur.Cdr(); err != nil {
			return nil, err
		}
	}
	if cur.empty {
		return nil, object.Errorf(object.IndexError, "L index out of range")
	}
	return cur.car, nil
}

// Tuple forces the list and every element.
func (l *List) Tuple() (*object.Tuple, error) {
	var elems []object.Object
	for cur := l; !cur.empty; {
		v, err := object.Strict(cur.car)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		if cur, err = cur.Cdr(); err != nil {
			return nil, err
		}
	}
	return object.NewTuple(elems...), nil
}

func (l *List) Count(value object.Object) (int, error) {
	n := 0
	err := l.each(func(_ int, v object.Object) (bool, error) {
		eq, err := object.Equal(v, value)
		if eq {
			n++
		}
		return true, err
	})
	return n, err
}

func (l *List) Index(value object.Object) (int, error) {
	return l.IndexRange(value, 0, -1)
}

// IndexRange finds value among the elements at positions start up to stop.
// A negative stop searches to the end.
func (l *List) IndexRange(value object.Object, start, stop int) (int, error) {
	sub, err := l.Slice(start, stop, 1)
	if err != nil {
		return 0, err
	}
	found := -1
	err = sub.each(func(i int, v object.Object) (bool, error) {
		eq, err := object.Equal(v, value)
		if eq {
			found = start + i
		}
		return !eq, err
	})
	if err != nil {
		return 0, err
	}
	if found < 0 {
		s, _ := object.ToStr(value)
		return 0, object.Errorf(object.ValueError, "'%s' not in list", s)
	}
	return found, nil
}

// Slice lists every step-th element from position start up to stop. A
// negative stop means no bound. Elements before start are walked past at
// once; the rest are reached as the result is walked.
func (l *List) Slice(start, stop, step int) (*List, error) {
	if start < 0 {
		return nil, object.Errorf(object.ValueError, "slice start must be None or a non-negative integer")
	}
	if step < 1 {
		return nil, object.Errorf(object.ValueError, "slice step must be None or a positive integer")
	}
	return sliceFrom(l, start, stop, step)
}

// sliceFrom skips n cells of cur. stop is relative to cur.
func sliceFrom(cur *List, n, stop, step int) (*List, error) {
	for ; n > 0; n-- {
		if cur.empty || stop == 0 {
			return Nil, nil
		}
		next, err := cur.Cdr()
		if err != nil {
			return nil, err
		}
		cur = next
		if stop > 0 {
			stop--
		}
	}
	if cur.empty || stop == 0 {
		return Nil, nil
	}
	if stop > 0 {
		stop--
	}
	return Defer(cur.car, func() (object.Object, error) {
		next, err := cur.Cdr()
		if err != nil {
			return nil, err
		}
		return sliceFrom(next, step-1, stop, step)
	}), nil
}

// Equal forces both lists, so an L equals another L or a tuple holding
// equal elements.
func (l *List) Equal(other object.Object) (bool, error) {
	a, err := l.Tuple()
	if err != nil {
		return false, err
	}
	switch o := other.(type) {
	case *List:
		b, err := o.Tuple()
		if err != nil {
			return false, err
		}
		return object.Equal(a, b)
	case *object.Tuple:
		return object.Equal(a, o)
	}
	return false, nil
}

func (l *List) Hash() (uint64, error) {
	return 0, object.Errorf(object.TypeError, "unhashable type: 'L'")
}

// each calls fn on every element until fn returns false or an error.
func (l *List) each(fn func(i int, v object.Object) (bool, error)) error {
	for i, cur := 0, l; !cur.empty; i++ {
		more, err := fn(i, cur.car)
		if err != nil || !more {
			return err
		}
		if cur, err = cur.Cdr(); err != nil {
			return err
		}
	}
	return nil
}

func (l *List) GetAttr(name string) (object.Object, error) {
	switch name {
	case "car":
		return l.Car()
	case "cdr":
		return l.Cdr()
	case "count":
		return object.NewBuiltin("L.count", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
			if err := object.CheckArgs("count", args, 1, 1); err != nil {
				return nil, err
			}
			n, err := l.Count(args[0])
			return object.Int(n), err
		}), nil
	case "index":
		return object.NewBuiltin("L.index", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
			if err := object.CheckArgs("index", args, 1, 3); err != nil {
				return nil, err
			}
			bounds, err := sliceArgs(args[1:], 0, -1)
			if err != nil {
				return nil, err
			}
			i, err := l.IndexRange(args[0], bounds[0], bounds[1])
			return object.Int(i), err
		}), nil
	case "slice":
		return object.NewBuiltin("L.slice", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
			if err := object.CheckArgs("slice", args, 1, 3); err != nil {
				return nil, err
			}
			if len(args) == 1 {
				args = []object.Object{object.None, args[0]}
			}
			bounds, err := sliceArgs(args, 0, -1, 1)
			if err != nil {
				return nil, err
			}
			return l.Slice(bounds[0], bounds[1], bounds[2])
		}), nil
	}
	return nil, object.Errorf(object.AttributeError, "'L' object has no attribute '%s'", name)
}

// sliceArgs reads optional slice positions. A missing or None argument takes
// its default from defaults; given positions must be non-negative.
func sliceArgs(args []object.Object, defaults ...int) ([]int, error) {
	out := append([]int(nil), defaults...)
	for i, a := range args {
		v, err := object.Strict(a)
		if err != nil {
			return nil, err
		}
		if v == object.None {
			continue
		}
		n, err := object.AsIndex(v)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, object.Errorf(object.ValueError, "L positions must be None or non-negative integers")
		}
		out[i] = n
	}
	return out, nil
}
