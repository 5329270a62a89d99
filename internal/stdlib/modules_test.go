package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy/internal/object"
)

func call(t *testing.T, module, name string, args ...object.Object) (object.Object, error) {
	t.Helper()
	m, err := NewRegistry().Import(module)
	require.NoError(t, err)
	f, err := object.GetAttr(m, name)
	require.NoError(t, err)
	return object.Call(f, args, nil)
}

func TestGetStandardModules(t *testing.T) {
	modules := GetStandardModules()

	// Verify core modules exist
	assert.NotNil(t, modules["math"], "math module should exist")
	assert.NotNil(t, modules["strings"], "strings module should exist")
	assert.NotNil(t, modules["itertools"], "itertools module should exist")

	math := modules["math"]
	assert.Equal(t, "math", math.Name)
	_, hasSqrt := math.Functions["sqrt"]
	assert.True(t, hasSqrt, "math should have sqrt function")
	assert.Contains(t, math.Constants, "pi")

	// Verify function signatures
	assert.Equal(t, "log(x, base=...)", math.Functions["log"].Signature())
	assert.Equal(t, "chain(*iterables)", modules["itertools"].Functions["chain"].Signature())
	assert.Equal(t, "join(sep, items)", modules["strings"].Functions["join"].Signature())
}

func TestIsKnownModule(t *testing.T) {
	assert.True(t, IsKnownModule("math"), "math should be known")
	assert.True(t, IsKnownModule("itertools"), "itertools should be known")
	assert.False(t, IsKnownModule("UnknownModule"), "UnknownModule should not be known")
	assert.Equal(t, []string{"itertools", "math", "strings"}, ModuleNames())
}

func TestGetModuleDefinition(t *testing.T) {
	assert.Equal(t, "strings", GetModuleDefinition("strings").Name)
	assert.Nil(t, GetModuleDefinition("UnknownModule"), "Should return nil for unknown module")
}

func TestRegistryImport(t *testing.T) {
	r := NewRegistry()
	a, err := r.Import("math")
	require.NoError(t, err)
	b, err := r.Import("math")
	require.NoError(t, err)
	assert.Same(t, a, b, "modules are instantiated once")

	_, err = r.Import("nope")
	assert.True(t, object.IsClass(err, object.ImportError))
}

func TestMath(t *testing.T) {
	v, err := call(t, "math", "sqrt", object.Int(16))
	require.NoError(t, err)
	assert.Equal(t, object.Float(4), v)

	_, err = call(t, "math", "sqrt", object.Int(-1))
	assert.EqualError(t, err, "ValueError: math domain error")

	v, err = call(t, "math", "floor", object.Float(2.7))
	require.NoError(t, err)
	assert.Equal(t, object.Int(2), v)

	v, err = call(t, "math", "log", object.Int(8), object.Int(2))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, float64(v.(object.Float)), 1e-9)

	v, err = call(t, "math", "gcd", object.Int(12), object.Int(-18))
	require.NoError(t, err)
	assert.Equal(t, object.Int(6), v)
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name     string
		args     []object.Object
		expected object.Object
	}{
		{"upper", []object.Object{object.Str("abc")}, object.Str("ABC")},
		{"reverse", []object.Object{object.Str("héllo")}, object.Str("olléh")},
		{"capitalize", []object.Object{object.Str("hELLO")}, object.Str("Hello")},
		{"repeat", []object.Object{object.Str("ab"), object.Int(2)}, object.Str("abab")},
		{"contains", []object.Object{object.Str("lazy"), object.Str("az")}, object.Bool(true)},
		{"join", []object.Object{object.Str("-"), object.NewList(object.Str("a"), object.Int(1))}, object.Str("a-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := call(t, "strings", tt.name, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}

	v, err := call(t, "strings", "split", object.Str(" a  b "))
	require.NoError(t, err)
	assert.Equal(t, "['a', 'b']", v.String())

	_, err = call(t, "strings", "upper", object.Int(1))
	assert.EqualError(t, err, "TypeError: upper() argument 1 must be str, not int")
}

// items calls a function returning an iterable and renders its elements.
func items(t *testing.T, module, name string, args ...object.Object) string {
	t.Helper()
	v, err := call(t, module, name, args...)
	require.NoError(t, err)
	elems, err := object.Collect(v)
	require.NoError(t, err)
	return object.NewList(elems...).String()
}

func TestItertoolsOnInfiniteSources(t *testing.T) {
	counter, err := call(t, "itertools", "count", object.Int(10), object.Int(5))
	require.NoError(t, err)
	assert.Equal(t, "[10, 15, 20]", items(t, "itertools", "islice", counter, object.Int(3)))

	cyc, err := call(t, "itertools", "cycle", object.Str("ab"))
	require.NoError(t, err)
	assert.Equal(t, "['a', 'b', 'a', 'b', 'a']", items(t, "itertools", "islice", cyc, object.Int(5)))

	assert.Equal(t, "['x', 'x']", items(t, "itertools", "repeat", object.Str("x"), object.Int(2)))
}

func TestItertoolsCombinators(t *testing.T) {
	small := object.NewBuiltin("small", func(args []object.Object, _ object.Kwargs) (object.Object, error) {
		lt, err := object.Less(args[0], object.Int(3))
		return object.Bool(lt), err
	})
	xs := object.NewList(object.Int(1), object.Int(2), object.Int(3), object.Int(1))

	assert.Equal(t, "[1, 2]", items(t, "itertools", "takewhile", small, xs))
	assert.Equal(t, "[3, 1]", items(t, "itertools", "dropwhile", small, xs))
	assert.Equal(t, "[1, 3, 6, 7]", items(t, "itertools", "accumulate", xs))
	assert.Equal(t, "[1, 2, 'a']", items(t, "itertools", "chain",
		object.NewList(object.Int(1)), object.NewTuple(object.Int(2)), object.Str("a")))
}
