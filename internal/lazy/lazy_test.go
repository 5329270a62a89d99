package lazy

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy/internal/object"
	"lazy/internal/thunk"
	"lazy/internal/vm"
)

var ctx = context.Background()

// counting returns a builtin that records its calls and returns its
// argument.
func counting(calls *atomic.Int32) *object.Builtin {
	return object.NewBuiltin("count", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		calls.Add(1)
		return args[0], nil
	})
}

var boom = object.NewBuiltin("boom", func([]object.Object, object.Kwargs) (object.Object, error) {
	return nil, object.Errorf(object.ValueError, "boom")
})

func force(t *testing.T, v object.Object) object.Object {
	t.Helper()
	forced, err := object.Strict(v)
	require.NoError(t, err)
	return forced
}

// deep forces v and every element of the containers it holds.
func deep(t *testing.T, v object.Object) object.Object {
	t.Helper()
	n, err := Normalize(v)
	require.NoError(t, err)
	return n
}

func TestEndToEnd(t *testing.T) {
	var calls atomic.Int32
	rt := New(Options{Builtins: map[string]object.Object{"count": counting(&calls)}})
	_, err := rt.RunLazy(ctx, "def f(a, b) { return count(a) + b; }", ModeExec, nil)
	require.NoError(t, err)

	v, err := rt.RunLazy(ctx, "f(1, 2)", ModeEval, nil)
	require.NoError(t, err)
	th, ok := v.(*thunk.Thunk)
	require.True(t, ok, "a lazy call is a thunk, got %s", v)
	assert.False(t, th.Forced())
	assert.Zero(t, calls.Load())

	first, err := th.Force()
	require.NoError(t, err)
	assert.Equal(t, object.Int(3), first)
	second, err := th.Force()
	require.NoError(t, err)
	assert.Equal(t, object.Int(3), second)
	assert.EqualValues(t, 1, calls.Load(), "the second force reuses the result")
}

func TestFailuresSurfaceOnlyWhenForced(t *testing.T) {
	var calls atomic.Int32
	failing := object.NewBuiltin("failing", func([]object.Object, object.Kwargs) (object.Object, error) {
		calls.Add(1)
		return nil, object.Errorf(object.ValueError, "boom")
	})
	rt := New(Options{Builtins: map[string]object.Object{"failing": failing}})

	v, err := rt.RunLazy(ctx, "thunk(failing)", ModeEval, nil)
	require.NoError(t, err, "construction never fails")

	_, err = object.Strict(v)
	assert.True(t, object.IsClass(err, object.ValueError))
	_, err = object.Strict(v)
	assert.True(t, object.IsClass(err, object.ValueError))
	assert.EqualValues(t, 2, calls.Load(), "failures are not memoized")

	_, err = rt.RunLazy(ctx, "x = failing(); y = [x, x];", ModeExec, nil)
	assert.NoError(t, err, "an unforced failure is never observed")
}

func TestDeferredIdentity(t *testing.T) {
	rt := New(Options{})
	_, err := rt.RunLazy(ctx, "def h(a) { return a is None; }\ndef g(a) { return not a; }", ModeExec, nil)
	require.NoError(t, err)

	tests := map[string]object.Object{
		"h(None)": object.Bool(true),
		"h('x')":  object.Bool(false),
		"g(0)":    object.Bool(true),
		"g([1])":  object.Bool(false),
	}
	for expr, expected := range tests {
		t.Run(expr, func(t *testing.T) {
			v, err := rt.RunLazy(ctx, expr, ModeEval, nil)
			require.NoError(t, err)
			assert.IsType(t, &thunk.Thunk{}, v)
			assert.Equal(t, expected, force(t, v))
		})
	}
}

func TestContainerDeferral(t *testing.T) {
	tests := []struct {
		source   string
		expected object.Object
		forced   int32
	}{
		{"[count(1), count(2)][1]", object.Int(2), 1},
		{"(count(1), count(2), count(3))[0]", object.Int(1), 1},
		{"{'a': count(1), 'b': count(2)}['b']", object.Int(2), 1},
		{"len({count(1), count(2)})", object.Int(2), 2},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			var calls atomic.Int32
			v, err := RunLazy(ctx, tt.source, ModeEval, map[string]object.Object{"count": counting(&calls)})
			require.NoError(t, err)
			assert.Zero(t, calls.Load(), "building the container forces nothing")

			assert.Equal(t, tt.expected, force(t, v))
			assert.Equal(t, tt.forced, calls.Load())
		})
	}
}

func TestWrappers(t *testing.T) {
	var out bytes.Buffer
	rt := New(Options{Stdout: &out})

	_, err := rt.RunLazy(ctx, "x = 1; print(x); strict(print(x + 1));", ModeExec, nil)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out.String(), "only the forced print runs")

	v, err := rt.RunLazy(ctx, "undefined", ModeEval, nil)
	require.NoError(t, err)
	_, err = object.Strict(v)
	assert.True(t, object.IsClass(err, object.UndefinedValueError))

	v, err = rt.RunLazy(ctx, "seq(1, 2)", ModeEval, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(2), force(t, v))

	v, err = rt.RunLazy(ctx, "[undefined, 5][1]", ModeEval, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(5), force(t, v), "undefined is harmless until needed")

	_, err = rt.RunLazy(ctx, "strict(boom())", ModeEval, map[string]object.Object{"boom": boom})
	assert.True(t, object.IsClass(err, object.ValueError), "strict forces immediately")
}

func TestImportIsDeferred(t *testing.T) {
	var out bytes.Buffer
	rt := New(Options{Stdout: &out})
	_, err := rt.RunLazy(ctx, "import math; strict(print(math.floor(2.5)));", ModeExec, nil)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out.String())

	_, err = rt.RunLazy(ctx, "import nope;", ModeExec, nil)
	assert.Error(t, err, "unknown modules are rejected at compile time")
}

func TestExecReturnsNone(t *testing.T) {
	v, err := RunLazy(ctx, "x = 1;", ModeExec, nil)
	require.NoError(t, err)
	assert.Equal(t, object.None, v)

	_, err = RunLazy(ctx, "x", Mode("single"), nil)
	assert.Error(t, err)
}

func TestStrictLazyEquivalence(t *testing.T) {
	const setup = `
def fib(n) { return n if n < 2 else fib(n - 1) + fib(n - 2); }
def scale(xs, factor=2) { return [x * factor for x in xs]; }
def safe(d, k) {
    try {
        return strict(d[k]);
    } except KeyError {
        return -1;
    }
}
`
	exprs := []string{
		"fib(12)",
		"sum(scale(range(5)))",
		"scale([1, 2], factor=10)",
		"(lambda a, b=3: a * b)(4)",
		"max(3, 1, 2) if 1 < 2 else 0",
		"{k: v for k, v in [('a', 1), ('b', 2)]}",
		"safe({'a': 1}, 'a') + safe({}, 'b')",
		"not (1 in [1, 2]) or None is None",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			strictRT, lazyRT := New(Options{}), New(Options{})
			_, err := strictRT.Run(ctx, setup, ModeExec, nil)
			require.NoError(t, err)
			_, err = lazyRT.RunLazy(ctx, setup, ModeExec, nil)
			require.NoError(t, err)

			expected, err := strictRT.Run(ctx, expr, ModeEval, nil)
			require.NoError(t, err)
			got, err := lazyRT.RunLazy(ctx, expr, ModeEval, nil)
			require.NoError(t, err)
			assert.Equal(t, expected.String(), deep(t, got).String())
		})
	}
}

func TestStrictLazyExceptionEquivalence(t *testing.T) {
	for _, expr := range []string{"1 // 0", "[1][3]", "{}['k']", "undefined_name + 1", "int('x')"} {
		t.Run(expr, func(t *testing.T) {
			_, strictErr := Run(ctx, expr, ModeEval, nil)
			require.Error(t, strictErr)

			v, err := RunLazy(ctx, expr, ModeEval, nil)
			require.NoError(t, err, "the lazy failure is deferred")
			_, lazyErr := object.Strict(v)
			assert.Equal(t, strictErr.Error(), lazyErr.Error())
		})
	}
}

func TestSelfReferenceRaisesRecursionError(t *testing.T) {
	programs := map[string]string{
		"global":    "x = x + 1;",
		"call":      "def f() { return y; } y = f();",
		"lazy list": "ones = cons(1, ones);",
	}
	names := map[string]string{"global": "x", "call": "y", "lazy list": "ones"}
	for label, program := range programs {
		t.Run(label, func(t *testing.T) {
			_, strictErr := Run(ctx, program, ModeExec, nil)
			require.Error(t, strictErr)
			assert.True(t, object.IsClass(strictErr, object.NameError))

			rt := New(Options{})
			_, err := rt.RunLazy(ctx, program, ModeExec, nil)
			require.NoError(t, err, "binding the name forces nothing")

			v, err := rt.RunLazy(ctx, names[label], ModeEval, nil)
			require.NoError(t, err)
			_, err = object.Strict(v)
			require.Error(t, err)
			assert.True(t, object.IsClass(err, object.RecursionError), err.Error())
		})
	}
}

func TestMakeLazy(t *testing.T) {
	rt := New(Options{})
	_, err := rt.Run(ctx, "def f(a, b=2) { return a * b; }", ModeExec, nil)
	require.NoError(t, err)
	v, ok := rt.Interpreter().Globals().Get("f")
	require.True(t, ok)
	fn := v.(*vm.Function)

	lazyFn, err := rt.MakeLazy(fn)
	require.NoError(t, err)
	assert.False(t, fn.IR().Lazy, "the original is not modified")
	assert.True(t, lazyFn.IR().Lazy)
	assert.Equal(t, fn.IR().Params, lazyFn.IR().Params)
	require.Len(t, lazyFn.Defaults(), 1)
	assert.IsType(t, &thunk.Thunk{}, lazyFn.Defaults()[0])

	r, err := lazyFn.Call([]object.Object{object.Int(5)}, nil)
	require.NoError(t, err)
	assert.IsType(t, &thunk.Thunk{}, r)
	assert.Equal(t, object.Int(10), force(t, r))

	strict, err := fn.Call([]object.Object{object.Int(5)}, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(10), strict)

	again, err := MakeLazy(lazyFn)
	require.NoError(t, err)
	assert.Equal(t, object.Int(12), force(t, must(again.Call([]object.Object{object.Int(6)}, nil))))
}

func must(v object.Object, err error) object.Object {
	if err != nil {
		panic(err)
	}
	return v
}

func TestTracedKind(t *testing.T) {
	rt := New(Options{Trace: true})
	assert.Equal(t, "thunk", rt.Kind().Name())
	assert.NotSame(t, thunk.Default, rt.Kind())

	v, err := rt.RunLazy(ctx, "1 + 2", ModeEval, nil)
	require.NoError(t, err)
	th := v.(*thunk.Thunk)
	assert.Same(t, rt.Kind(), th.Kind())
	assert.Equal(t, object.Int(3), force(t, th))
}

func TestCompile(t *testing.T) {
	program, err := Compile("t.lz", "import itertools; x = 1;")
	require.NoError(t, err)
	assert.Equal(t, "t.lz", program.Filename)

	_, err = Compile("t.lz", "import os;")
	assert.Error(t, err)
}

func TestHandlersSeeOnlyForcedFailures(t *testing.T) {
	rt := New(Options{})
	_, err := rt.RunLazy(ctx, `
def loose(d) { try { return d['k']; } except KeyError { return 0; } }
def tight(d) { try { return strict(d['k']); } except KeyError { return 0; } }
`, ModeExec, nil)
	require.NoError(t, err)

	v, err := rt.RunLazy(ctx, "loose({})", ModeEval, nil)
	require.NoError(t, err)
	_, err = object.Strict(v)
	assert.True(t, object.IsClass(err, object.KeyError), "the lookup runs after the handler is gone")

	v, err = rt.RunLazy(ctx, "tight({})", ModeEval, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(0), force(t, v))
}

func TestInfiniteLazyList(t *testing.T) {
	rt := New(Options{})
	_, err := rt.RunLazy(ctx, `
def naturals(n) { return cons(n, lambda: naturals(n + 1)); }
def squares(xs) { return cons(xs.car * xs.car, lambda: squares(xs.cdr)); }
`, ModeExec, nil)
	require.NoError(t, err)

	v, err := rt.RunLazy(ctx, "squares(naturals(0))[12]", ModeEval, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(144), force(t, v))

	v, err = rt.RunLazy(ctx, "enum_from(1, None, 2)[3]", ModeEval, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(7), force(t, v))
}

func TestNormalize(t *testing.T) {
	rt := New(Options{Builtins: map[string]object.Object{"boom": boom}})
	v, err := rt.RunLazy(ctx, "[1 + 1, (2, {'k': 3 * 3})]", ModeEval, nil)
	require.NoError(t, err)
	n, err := Normalize(v)
	require.NoError(t, err)
	assert.Equal(t, "[2, (2, {'k': 9})]", n.String())

	v, err = rt.RunLazy(ctx, "[1, boom()]", ModeEval, nil)
	require.NoError(t, err)
	_, err = Normalize(v)
	assert.True(t, object.IsClass(err, object.ValueError), "%v", err)
}
