package tree

import (
	"slices"
	"sync/atomic"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy/internal/object"
	"lazy/internal/thunk"
)

func add(a, b object.Object) object.Object {
	v, err := thunk.Binary(object.OpAdd, a, b)
	if err != nil {
		panic(err)
	}
	return v
}

func sub(a, b object.Object) object.Object {
	v, err := thunk.Binary(object.OpSub, a, b)
	if err != nil {
		panic(err)
	}
	return v
}

func one() object.Object { return thunk.FromValue(object.Int(1)) }

var incr = object.NewBuiltin("incr", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
	return object.Binary(object.OpAdd, args[0], object.Int(1))
})

func addNode() Node { return NewNormal(thunk.BinaryFunc(object.OpAdd)) }
func subNode() Node { return NewNormal(thunk.BinaryFunc(object.OpSub)) }

func ints(vs ...int) []Node {
	out := make([]Node, len(vs))
	for i, v := range vs {
		out[i] = NewNormal(object.Int(v))
	}
	return out
}

var exprs = map[string]func() object.Object{
	"add":    func() object.Object { return add(one(), object.Int(1)) },
	"call":   func() object.Object { return thunk.New(incr, one()) },
	"nested": func() object.Object { return thunk.New(incr, thunk.New(incr, one())) },
}

func TestCompileOfParseIdentity(t *testing.T) {
	for name, expr := range exprs {
		t.Run(name, func(t *testing.T) {
			expected, err := object.Strict(expr())
			require.NoError(t, err)

			compiled := Compile(Parse(expr()), nil)
			got, err := compiled.Force()
			require.NoError(t, err)
			assert.Equal(t, expected, got)
		})
	}
}

func TestTreeEqualAndHash(t *testing.T) {
	for name, expr := range exprs {
		t.Run(name, func(t *testing.T) {
			a, b := Parse(expr()), Parse(expr())
			assert.True(t, a.Equal(b), "%s != %s", a, b)
			assert.Equal(t, a.Hash(), b.Hash())
		})
	}
	assert.False(t, Parse(exprs["add"]()).Equal(Parse(exprs["call"]())))
}

func TestParseDoesNotForce(t *testing.T) {
	var calls atomic.Int32
	count := object.NewBuiltin("count", func([]object.Object, object.Kwargs) (object.Object, error) {
		calls.Add(1)
		return object.Int(1), nil
	})
	expr := add(thunk.New(count), object.Int(2))
	node := Parse(expr)
	assert.Zero(t, calls.Load())

	expected := NewCall(addNode(), []Node{NewCall(NewNormal(count), nil, nil), NewNormal(object.Int(2))}, nil)
	assert.True(t, node.Equal(expected), spew.Sdump(node))
}

func TestParseForcedThunkIsNormal(t *testing.T) {
	th := thunk.New(incr, object.Int(1))
	_, err := th.Force()
	require.NoError(t, err)

	node := Parse(th)
	assert.True(t, node.Equal(NewNormal(object.Int(2))))
	assert.Equal(t, "Normal(2)", node.String())
}

func TestTreeContains(t *testing.T) {
	tree := Parse(add(add(one(), object.Int(2)), object.Int(3)))

	assert.True(t, tree.Contains(object.Int(1)))
	assert.True(t, tree.Contains(object.Int(2)))
	assert.True(t, tree.Contains(object.Int(3)))
	assert.False(t, tree.Contains(object.Int(4)))

	inner := NewCall(addNode(), ints(1, 2), nil)
	assert.True(t, tree.Contains(inner), spew.Sdump(tree))
	assert.True(t, tree.Contains(NewCall(addNode(), []Node{inner, NewNormal(object.Int(3))}, nil)))
	assert.True(t, tree.Contains(thunk.BinaryFunc(object.OpAdd)), "operations are leaves too")
}

func TestContainsLooksIntoContainers(t *testing.T) {
	list := object.NewList(object.Int(1), object.NewTuple(object.Str("deep")))
	tree := Parse(thunk.New(thunk.Identity, list))
	assert.True(t, tree.Contains(object.Str("deep")))
	assert.False(t, tree.Contains(object.Str("shallow")))
}

func TestTreeSubsNode(t *testing.T) {
	tree := Parse(sub(add(one(), object.Int(2)), object.Int(3)))

	subs := NewSubstitutions().Node(NewCall(addNode(), ints(1, 2), nil), NewNormal(object.Int(4)))
	got := tree.Subs(subs)
	expected := NewCall(subNode(), ints(4, 3), nil)
	assert.True(t, got.Equal(expected), "%s", got)

	assert.True(t, tree.Contains(object.Int(1)), "the original tree is unchanged")
}

func TestTreeSubsValue(t *testing.T) {
	tree := Parse(add(add(one(), object.Int(1)), object.Int(1)))
	got := tree.Subs(NewSubstitutions().Value(object.Int(1), object.Int(2)))

	expected := Parse(add(add(thunk.FromValue(object.Int(2)), object.Int(2)), object.Int(2)))
	assert.True(t, got.Equal(expected), "%s", got)
}

func TestTraverseOrder(t *testing.T) {
	kw := object.Kwargs{"b": object.Int(2), "a": object.Int(1)}
	tree := Parse(thunk.Default.New(incr, []object.Object{object.Int(0)}, kw))

	var got []string
	for n := range tree.Traverse() {
		got = append(got, n.String())
	}
	assert.Equal(t, []string{
		"Call(Normal(<builtin incr>), (Normal(0),), {'a': Normal(1), 'b': Normal(2)})",
		"Normal(<builtin incr>)",
		"Normal(0)",
		"Normal(1)",
		"Normal(2)",
	}, got)

	leaves := slices.Collect(tree.Leaves())
	assert.Len(t, leaves, 4)

	for range tree.Traverse() {
		break
	}
}

func TestCompileSharesCommonSubexpressions(t *testing.T) {
	var calls atomic.Int32
	count := object.NewBuiltin("count", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		calls.Add(1)
		return args[0], nil
	})
	expensive := func() object.Object { return thunk.New(count, object.Int(5)) }
	expr := add(expensive(), expensive())

	folded := Fold(expr)
	v, err := object.Strict(folded)
	require.NoError(t, err)
	assert.Equal(t, object.Int(10), v)
	assert.EqualValues(t, 1, calls.Load(), "equal subtrees compile to one thunk")

	calls.Store(0)
	_, err = object.Strict(expr)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestScopeAcrossTrees(t *testing.T) {
	scope := NewScope(nil)
	a := Compile(Parse(add(one(), object.Int(2))), scope)
	b := Compile(Parse(add(one(), object.Int(2))), scope)
	assert.Same(t, a, b)
	assert.Equal(t, 4, scope.Len())
}

func TestCompileUsesScopeKind(t *testing.T) {
	custom := thunk.NewKind("custom", nil)
	compiled := Compile(NewCall(addNode(), ints(1, 2), nil), NewScope(custom))
	assert.Same(t, custom, compiled.Kind())

	v, err := compiled.Force()
	require.NoError(t, err)
	assert.Equal(t, object.Int(3), v)
}

func TestFoldStrictValue(t *testing.T) {
	assert.Equal(t, object.Int(1), Fold(object.Int(1)))
}

func TestUnhashableLeavesCompareByIdentity(t *testing.T) {
	length := func(list *object.List) object.Object {
		v, err := thunk.Len(thunk.FromValue(list))
		require.NoError(t, err)
		return v
	}
	shared := object.NewList(object.Int(1), object.Int(2))
	a := Parse(length(object.NewList(object.Int(1), object.Int(2))))
	b := Parse(length(object.NewList(object.Int(1), object.Int(2))))
	c := Parse(length(shared))
	d := Parse(length(shared))

	assert.False(t, a.Equal(b), "distinct lists are distinct leaves")
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.True(t, c.Equal(d))
	assert.Equal(t, c.Hash(), d.Hash())

	left := Parse(thunk.New(thunk.Identity, object.NewTuple(object.Int(1), object.Int(2))))
	right := Parse(thunk.New(thunk.Identity, object.NewTuple(object.Int(1), object.Int(2))))
	assert.True(t, left.Equal(right), "hashable containers still compare by value")
	assert.Equal(t, left.Hash(), right.Hash())

	scope := NewScope(nil)
	first := Compile(a, scope)
	assert.NotSame(t, first, Compile(b, scope))
	assert.Same(t, Compile(c, scope), Compile(d, scope))
	v, err := first.Force()
	require.NoError(t, err)
	assert.Equal(t, object.Int(2), v)
}

func TestInspectionDoesNotForceContainerElements(t *testing.T) {
	var calls atomic.Int32
	count := object.NewBuiltin("count", func([]object.Object, object.Kwargs) (object.Object, error) {
		calls.Add(1)
		return object.Int(5), nil
	})
	elem := thunk.New(count)
	tuple := func() object.Object { return thunk.New(thunk.Identity, object.NewTuple(elem, object.Int(1))) }

	a, b := Parse(tuple()), Parse(tuple())
	assert.False(t, a.Equal(b), "tuples holding unforced thunks compare by identity")
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.True(t, a.Equal(a))
	assert.True(t, a.Contains(elem))
	assert.True(t, a.Contains(object.Int(1)))
	assert.False(t, a.Contains(object.Int(5)))
	a.Subs(NewSubstitutions().Value(object.NewTuple(elem, object.Int(1)), object.None))
	folded := Fold(tuple())
	assert.Zero(t, calls.Load())

	_, err := elem.Force()
	require.NoError(t, err)
	a, b = Parse(tuple()), Parse(tuple())
	assert.True(t, a.Equal(b), "once forced the elements compare by value")
	assert.Equal(t, a.Hash(), b.Hash())
	assert.True(t, a.Contains(object.Int(5)))

	v, err := object.Strict(folded)
	require.NoError(t, err)
	assert.Equal(t, "(5, 1)", v.String())
	assert.EqualValues(t, 1, calls.Load())
}
