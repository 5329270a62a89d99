package data

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy/internal/object"
	"lazy/internal/thunk"
)

func ints(vs ...int) []object.Object {
	out := make([]object.Object, len(vs))
	for i, v := range vs {
		out[i] = object.Int(v)
	}
	return out
}

func TestLazyIndex(t *testing.T) {
	ls := Cons(object.None, Cons(object.Int(2), Cons(thunk.Undefined(), Nil)))
	v, err := ls.GetItem(object.Int(1))
	require.NoError(t, err)
	assert.Equal(t, object.Int(2), v, "other elements are not forced")

	_, err = ls.GetItem(object.Int(3))
	assert.True(t, object.IsClass(err, object.IndexError))
}

func TestIter(t *testing.T) {
	elems, err := object.Collect(FromSlice(ints(0, 1, 2, 3)...))
	require.NoError(t, err)
	assert.Equal(t, ints(0, 1, 2, 3), elems)
}

func TestEnumFrom(t *testing.T) {
	l, err := EnumFrom(object.Int(0), object.Int(5), object.Int(1))
	require.NoError(t, err)
	tuple, err := l.Tuple()
	require.NoError(t, err)
	assert.Equal(t, ints(0, 1, 2, 3, 4, 5), tuple.Elems)

	l, err = EnumFrom(object.Int(0), object.Int(6), object.Int(2))
	require.NoError(t, err)
	tuple, err = l.Tuple()
	require.NoError(t, err)
	assert.Equal(t, ints(0, 2, 4, 6), tuple.Elems)

	l, err = EnumFrom(object.Int(3), object.Int(1), object.Int(1))
	require.NoError(t, err)
	assert.True(t, l.Empty())
}

func TestInfiniteList(t *testing.T) {
	naturals, err := EnumFrom(object.Int(0), nil, object.Int(1))
	require.NoError(t, err)

	v, err := naturals.GetItem(object.Int(1000))
	require.NoError(t, err)
	assert.Equal(t, object.Int(1000), v)
	assert.Equal(t, "L[0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, ...]", naturals.String())
}

func TestTailIsMemoized(t *testing.T) {
	var calls atomic.Int32
	l := Defer(object.Int(1), func() (object.Object, error) {
		calls.Add(1)
		return FromSlice(object.Int(2)), nil
	})
	assert.Zero(t, calls.Load())

	a, err := l.Cdr()
	require.NoError(t, err)
	b, err := l.Cdr()
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFromIteratorConsumesOnDemand(t *testing.T) {
	var pulled int
	it := object.NewIterator("src", func() (object.Object, bool, error) {
		pulled++
		return object.Int(pulled), true, nil
	})
	l, err := FromIterator(it)
	require.NoError(t, err)
	assert.Equal(t, 1, pulled)

	v, err := l.GetItem(object.Int(2))
	require.NoError(t, err)
	assert.Equal(t, object.Int(3), v)
	assert.Equal(t, 3, pulled)

	_, err = l.GetItem(object.Int(1))
	require.NoError(t, err)
	assert.Equal(t, 3, pulled, "walked cells are not recomputed")
}

func TestCountAndIndex(t *testing.T) {
	l := FromSlice(ints(1, 2, 1, 3)...)
	n, err := l.Count(object.Int(1))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	i, err := l.Index(object.Int(3))
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	_, err = l.Index(object.Int(9))
	assert.EqualError(t, err, "ValueError: '9' not in list")

	n, err = l.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	v, err := l.GetItem(object.Int(-1))
	require.NoError(t, err)
	assert.Equal(t, object.Int(3), v)
}

func TestBadTail(t *testing.T) {
	l := Defer(object.Int(1), func() (object.Object, error) { return object.Int(2), nil })
	_, err := l.Cdr()
	assert.EqualError(t, err, "TypeError: list tail must be L, not 'int'")
	assert.True(t, Nil.Empty())
	_, err = Nil.Car()
	assert.True(t, object.IsClass(err, object.IndexError))
}

func TestBuiltins(t *testing.T) {
	b := Builtins()
	tail := object.NewBuiltin("tail", func([]object.Object, object.Kwargs) (object.Object, error) {
		return FromSlice(object.Int(2)), nil
	})
	l, err := object.Call(b["cons"], []object.Object{object.Int(1), tail}, nil)
	require.NoError(t, err)
	assert.Equal(t, "L[1, 2]", l.String())

	l, err = object.Call(b["L"], []object.Object{object.NewTuple(ints(4, 5)...)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "L[4, 5]", l.String())

	l, err = object.Call(b["enum_from"], []object.Object{object.Int(1), object.Int(7)}, object.Kwargs{"by": object.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, "L[1, 4, 7]", l.String())

	car, err := object.GetAttr(l, "car")
	require.NoError(t, err)
	assert.Equal(t, object.Int(1), car)
}

func TestSlice(t *testing.T) {
	l := FromSlice(ints(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)...)
	sub, err := l.Slice(2, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, "L[2, 5]", sub.String())

	sub, err = l.Slice(7, -1, 1)
	require.NoError(t, err)
	assert.Equal(t, "L[7, 8, 9]", sub.String())

	sub, err = l.Slice(4, 2, 1)
	require.NoError(t, err)
	assert.True(t, sub.Empty())

	_, err = l.Slice(-1, -1, 1)
	assert.True(t, object.IsClass(err, object.ValueError))
	_, err = l.Slice(0, -1, 0)
	assert.True(t, object.IsClass(err, object.ValueError))

	naturals, err := EnumFrom(object.Int(0), nil, object.Int(1))
	require.NoError(t, err)
	evens, err := naturals.Slice(0, -1, 2)
	require.NoError(t, err)
	v, err := evens.GetItem(object.Int(50))
	require.NoError(t, err)
	assert.Equal(t, object.Int(100), v)
}

func TestSliceIsLazy(t *testing.T) {
	var calls atomic.Int32
	l := Defer(object.Int(1), func() (object.Object, error) {
		calls.Add(1)
		return FromSlice(object.Int(2)), nil
	})
	sub, err := l.Slice(0, 5, 1)
	require.NoError(t, err)
	car, err := sub.Car()
	require.NoError(t, err)
	assert.Equal(t, object.Int(1), car)
	assert.Zero(t, calls.Load(), "the tail is produced when the slice is walked")

	n, err := sub.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 1, calls.Load())
}

func TestIndexRange(t *testing.T) {
	l := FromSlice(ints(1, 2, 1, 3)...)
	i, err := l.IndexRange(object.Int(1), 1, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = l.IndexRange(object.Int(3), 0, 3)
	assert.EqualError(t, err, "ValueError: '3' not in list")

	index, err := object.GetAttr(l, "index")
	require.NoError(t, err)
	v, err := object.Call(index, []object.Object{object.Int(1), object.Int(1), object.None}, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(2), v)

	_, err = object.Call(index, []object.Object{object.Int(1), object.Int(-1)}, nil)
	assert.True(t, object.IsClass(err, object.ValueError))
}

func TestSliceMethod(t *testing.T) {
	l := FromSlice(ints(0, 1, 2, 3, 4)...)
	slice, err := object.GetAttr(l, "slice")
	require.NoError(t, err)

	v, err := object.Call(slice, []object.Object{object.Int(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "L[0, 1]", v.String(), "a single argument is the stop")

	v, err = object.Call(slice, []object.Object{object.Int(1), object.None, object.Int(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "L[1, 3]", v.String())
}

func TestEqual(t *testing.T) {
	a := FromSlice(ints(1, 2)...)
	b := Defer(object.Int(1), func() (object.Object, error) { return FromSlice(object.Int(2)), nil })

	eq, err := object.Equal(a, b)
	require.NoError(t, err)
	assert.True(t, eq, "distinct lists with equal elements are equal")

	eq, err = object.Equal(a, FromSlice(ints(1, 2, 3)...))
	require.NoError(t, err)
	assert.False(t, eq)

	tuple := object.NewTuple(ints(1, 2)...)
	eq, err = object.Equal(a, tuple)
	require.NoError(t, err)
	assert.True(t, eq)
	eq, err = object.Equal(tuple, a)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = object.Equal(Nil, object.NewTuple())
	require.NoError(t, err)
	assert.True(t, eq)

	_, err = object.Equal(Cons(thunk.Undefined(), Nil), Nil)
	assert.True(t, object.IsClass(err, object.UndefinedValueError), "equality forces the elements")

	_, err = object.Hash(a)
	assert.True(t, object.IsClass(err, object.TypeError))
}
