package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryNumeric(t *testing.T) {
	tests := []struct {
		op       BinaryOp
		a, b     Object
		expected Object
	}{
		{OpAdd, Int(1), Int(2), Int(3)},
		{OpSub, Int(1), Int(2), Int(-1)},
		{OpMul, Int(3), Float(0.5), Float(1.5)},
		{OpTrueDiv, Int(1), Int(2), Float(0.5)},
		{OpFloorDiv, Int(-7), Int(2), Int(-4)},
		{OpMod, Int(-7), Int(3), Int(2)},
		{OpPow, Int(2), Int(10), Int(1024)},
		{OpPow, Int(2), Int(-1), Float(0.5)},
		{OpLShift, Int(1), Int(4), Int(16)},
		{OpAnd, True, False, False},
		{OpAdd, True, Int(1), Int(2)},
		{OpXor, Int(6), Int(3), Int(5)},
	}

	for _, tt := range tests {
		t.Run(tt.op.Info().Name, func(t *testing.T) {
			res, err := Binary(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res)
		})
	}
}

func TestBinarySequences(t *testing.T) {
	res, err := Binary(OpAdd, Str("ab"), Str("cd"))
	require.NoError(t, err)
	assert.Equal(t, Str("abcd"), res)

	res, err = Binary(OpMul, Int(2), NewList(Int(1)))
	require.NoError(t, err)
	assert.Equal(t, "[1, 1]", res.String())

	res, err = Binary(OpMod, Str("%s=%d"), NewTuple(Str("x"), Int(3)))
	require.NoError(t, err)
	assert.Equal(t, Str("x=3"), res)

	a, _ := SetFrom([]Object{Int(1), Int(2)})
	b, _ := SetFrom([]Object{Int(2), Int(3)})
	res, err = Binary(OpAnd, a, b)
	require.NoError(t, err)
	assert.Equal(t, "{2}", res.String())
}

func TestBinaryErrors(t *testing.T) {
	_, err := Binary(OpTrueDiv, Int(1), Int(0))
	assert.True(t, IsClass(err, ZeroDivisionError))
	assert.True(t, IsClass(err, ArithmeticError))

	_, err = Binary(OpAdd, Str("a"), Int(1))
	require.Error(t, err)
	assert.Equal(t, "TypeError: unsupported operand type(s) for +: 'str' and 'int'", err.Error())
}

func TestIntOverflow(t *testing.T) {
	const maxInt, minInt = Int(math.MaxInt64), Int(math.MinInt64)
	overflows := []struct {
		op   BinaryOp
		a, b Int
	}{
		{OpPow, 2, 64},
		{OpPow, 10, 19},
		{OpAdd, maxInt, 1},
		{OpSub, minInt, 1},
		{OpMul, 1 << 32, 1 << 31},
		{OpMul, minInt, -1},
		{OpFloorDiv, minInt, -1},
		{OpLShift, 1, 63},
		{OpLShift, 3, 64},
	}
	for _, tt := range overflows {
		t.Run(tt.a.String()+tt.op.String()+tt.b.String(), func(t *testing.T) {
			_, err := Binary(tt.op, tt.a, tt.b)
			require.Error(t, err)
			assert.True(t, IsClass(err, OverflowError), err.Error())
			assert.True(t, IsClass(err, ArithmeticError))
		})
	}

	_, err := Unary(OpNeg, minInt)
	assert.True(t, IsClass(err, OverflowError))

	fits := []struct {
		op       BinaryOp
		a, b     Int
		expected Int
	}{
		{OpPow, 2, 62, 1 << 62},
		{OpPow, -2, 63, minInt},
		{OpPow, 3, 39, 4052555153018976267},
		{OpMul, 1 << 31, -(1 << 32), minInt},
		{OpLShift, -1, 63, minInt},
		{OpLShift, 0, 100, 0},
		{OpAdd, maxInt, minInt, -1},
		{OpSub, -1, maxInt, minInt},
	}
	for _, tt := range fits {
		res, err := Binary(tt.op, tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, res)
	}
}

func TestInPlaceList(t *testing.T) {
	l := NewList(Int(1))
	res, err := InPlace(OpAdd, l, NewList(Int(2)))
	require.NoError(t, err)
	assert.Same(t, l, res)
	assert.Len(t, l.Elems, 2)

	res, err = InPlace(OpAdd, Int(1), Int(2))
	require.NoError(t, err)
	assert.Equal(t, Int(3), res)
}

func TestLookupOperators(t *testing.T) {
	op, inPlace, ok := LookupBinary("//=")
	require.True(t, ok)
	assert.True(t, inPlace)
	assert.Equal(t, OpFloorDiv, op)

	cmp, ok := LookupCompare("not in")
	require.True(t, ok)
	assert.Equal(t, CmpNotIn, cmp)

	_, _, ok = LookupBinary("@")
	assert.False(t, ok)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op       CompareOp
		a, b     Object
		expected Bool
	}{
		{CmpEq, Int(1), Float(1.0), true},
		{CmpNe, Str("a"), Str("b"), true},
		{CmpLt, Int(1), Float(1.5), true},
		{CmpLe, Int(2), Int(2), true},
		{CmpGe, Int(1), Int(2), false},
		{CmpGt, NewTuple(Int(1), Int(3)), NewTuple(Int(1), Int(2)), true},
		{CmpIn, Int(2), NewList(Int(1), Int(2)), true},
		{CmpNotIn, Str("z"), Str("abc"), true},
	}
	for _, tt := range tests {
		res, err := Compare(tt.op, tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, res, "%s %s %s", tt.a, tt.op, tt.b)
	}

	_, err := Compare(CmpLt, Int(1), Str("a"))
	assert.True(t, IsClass(err, TypeError))
}

func TestHashAgreesWithEqual(t *testing.T) {
	h1, err := Hash(Int(1))
	require.NoError(t, err)
	h2, err := Hash(Float(1.0))
	require.NoError(t, err)
	h3, err := Hash(True)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, h1, h3)

	t1, err := Hash(NewTuple(Int(1), Str("a")))
	require.NoError(t, err)
	t2, err := Hash(NewTuple(Int(1), Str("a")))
	require.NoError(t, err)
	assert.Equal(t, t1, t2)

	_, err = Hash(NewList())
	assert.True(t, IsClass(err, TypeError))
}

func TestDict(t *testing.T) {
	d, err := DictFrom([]Object{Str("a"), Int(1), Str("b"), Int(2), Str("a"), Int(3)})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, "{'a': 3, 'b': 2}", d.String())

	v, err := GetItem(d, Str("b"))
	require.NoError(t, err)
	assert.Equal(t, Int(2), v)

	_, err = GetItem(d, Str("c"))
	assert.True(t, IsClass(err, KeyError))
	assert.True(t, IsClass(err, LookupError))

	in, err := Contains(d, Float(1.5))
	require.NoError(t, err)
	assert.False(t, in)
}

func TestGetItemSequences(t *testing.T) {
	l := NewList(Int(10), Int(20), Int(30))
	v, err := GetItem(l, Int(-1))
	require.NoError(t, err)
	assert.Equal(t, Int(30), v)

	_, err = GetItem(l, Int(3))
	assert.True(t, IsClass(err, IndexError))

	v, err = GetItem(Str("héllo"), Int(1))
	require.NoError(t, err)
	assert.Equal(t, Str("é"), v)
}

func TestTruth(t *testing.T) {
	for _, v := range []Object{None, False, Int(0), Float(0), Str(""), NewList(), NewTuple(), NewDict()} {
		truth, err := Truth(v)
		require.NoError(t, err)
		assert.False(t, truth, "%s", v)
	}
	for _, v := range []Object{True, Int(-1), Str("x"), NewList(None), NewBuiltin("f", nil)} {
		truth, err := Truth(v)
		require.NoError(t, err)
		assert.True(t, truth, "%s", v)
	}
}

func TestMethods(t *testing.T) {
	join, err := GetAttr(Str(", "), "join")
	require.NoError(t, err)
	res, err := Call(join, []Object{NewList(Str("a"), Str("b"))}, nil)
	require.NoError(t, err)
	assert.Equal(t, Str("a, b"), res)

	l := NewList()
	appendFn, err := GetAttr(l, "append")
	require.NoError(t, err)
	_, err = Call(appendFn, []Object{Int(1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[1]", l.String())

	_, err = GetAttr(Int(1), "nope")
	assert.True(t, IsClass(err, AttributeError))
}

func TestRepr(t *testing.T) {
	assert.Equal(t, "'it'", Str("it").String())
	assert.Equal(t, `"it's"`, Str("it's").String())
	assert.Equal(t, "1.0", Float(1).String())
	assert.Equal(t, "0.25", Float(0.25).String())
	assert.Equal(t, "(1,)", NewTuple(Int(1)).String())
	assert.Equal(t, "set()", NewSet().String())

	s, err := ToStr(Str("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", s)
}

func TestExceptions(t *testing.T) {
	exc, err := ValueError.Call([]Object{Str("bad")}, nil)
	require.NoError(t, err)
	e := exc.(*Exception)
	assert.Equal(t, "ValueError: bad", e.Error())
	assert.Equal(t, "ValueError('bad')", e.String())

	var wrapped error = e
	got, ok := AsException(wrapped)
	require.True(t, ok)
	assert.Same(t, e, got)
	assert.False(t, ValueError.IsSubclass(LookupError))
}

func TestCallNonCallable(t *testing.T) {
	_, err := Call(Int(1), nil, nil)
	require.Error(t, err)
	assert.Equal(t, "TypeError: 'int' object is not callable", err.Error())
}

func TestNamespace(t *testing.T) {
	ns := NewNamespace()
	ns.Set("b", Int(2))
	ns.Set("a", Int(1))
	v, ok := ns.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)
	assert.Equal(t, []string{"a", "b"}, ns.Names())
	ns.Delete("a")
	_, ok = ns.Get("a")
	assert.False(t, ok)
}
