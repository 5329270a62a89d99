package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy/internal/errors"
	"lazy/internal/grammar"
	"lazy/internal/ir"
)

func compile(t *testing.T, source string) string {
	t.Helper()
	program, err := Compile("t.lz", source, ModeExec, Options{})
	require.NoError(t, err)
	return ir.Print(program)
}

func codes(err error) []string {
	var out []string
	for _, d := range errors.Diagnostics(err) {
		out = append(out, d.Code)
	}
	return out
}

func TestCompileAssignment(t *testing.T) {
	expected := `; t.lz
function <module>() [module] {
consts:
  [0] 1
  [1] 2
  [2] None
entry:
  %0 = const[0] ; 1
  %1 = const[1] ; 2
  %2 = add %0, %1
  store_global x, %2
  %3 = const[2] ; None
  return %3
}
`
	assert.Equal(t, expected, compile(t, "x = 1 + 2;"))
}

func TestCompileEval(t *testing.T) {
	program, err := Compile("<eval>", "-x", ModeEval, Options{})
	require.NoError(t, err)

	expected := `; <eval>
function <module>() [module] {
entry:
  %0 = load_global x
  %1 = neg %0
  return %1
}
`
	assert.Equal(t, expected, ir.Print(program))
}

func TestConstantsAreShared(t *testing.T) {
	program, err := Compile("t.lz", "a = 1; b = 1; c = 1.0; d = True;", ModeExec, Options{})
	require.NoError(t, err)
	// 1, 1.0, True and None
	assert.Len(t, program.Main.Consts, 4)
}

func TestNameResolution(t *testing.T) {
	out := compile(t, `
def outer(a) {
    b = a;
    return lambda: a + b + c;
}
`)
	assert.Contains(t, out, "store_global outer")
	assert.Contains(t, out, "store_local b, %0")
	assert.Contains(t, out, "load_free a")
	assert.Contains(t, out, "load_free b")
	assert.Contains(t, out, "load_global c")
	assert.Contains(t, out, "function <lambda>()")
}

func TestComprehensionVariablesStayLocal(t *testing.T) {
	out := compile(t, "ys = [x * 2 for x in xs if x];")
	assert.Contains(t, out, "build_list.partial")
	assert.Contains(t, out, "load_global xs")
	assert.Contains(t, out, "store_local x,")
	assert.Contains(t, out, "load_local x")
	assert.Contains(t, out, "append")
	assert.Contains(t, out, "seal")
	assert.NotContains(t, out, "store_global x,")
}

func TestDictComprehension(t *testing.T) {
	out := compile(t, "d = {k: v for k, v in items};")
	assert.Contains(t, out, "build_dict.partial")
	assert.Contains(t, out, "unpack")
	assert.Contains(t, out, "setitem")
}

func TestDisplays(t *testing.T) {
	out := compile(t, "a = (); b = (1,); c = [1, 2]; d = {1, 2}; e = {}; f = {'k': 1};")
	assert.Contains(t, out, "build_tuple\n")
	assert.Contains(t, out, "build_tuple %")
	assert.Contains(t, out, "build_list %")
	assert.Contains(t, out, "build_set %")
	assert.Contains(t, out, "build_dict\n")
	assert.Contains(t, out, "build_dict %")
}

func TestShortCircuitUsesTemporaries(t *testing.T) {
	out := compile(t, "x = a or b and c;")
	assert.Contains(t, out, "store_local $t0")
	assert.Contains(t, out, "load_local $t0")
	assert.Contains(t, out, "branch")
}

func TestComparisonChain(t *testing.T) {
	out := compile(t, "x = a < b <= c; y = a is not b; z = a not in b;")
	assert.Contains(t, out, "lt %")
	assert.Contains(t, out, "le %")
	assert.Contains(t, out, "isnot %")
	assert.Contains(t, out, "not_contains %")
}

func TestCallArguments(t *testing.T) {
	out := compile(t, "f(1, key=x);")
	assert.Contains(t, out, "= call %")
	assert.Contains(t, out, "key=%")

	_, err := Compile("t.lz", "f(key=1, 2);", ModeExec, Options{})
	assert.Equal(t, []string{errors.ErrorUnsupported}, codes(err))
}

func TestTryExcept(t *testing.T) {
	out := compile(t, `
try {
    f();
} except ValueError as e {
    raise;
}
`)
	assert.Contains(t, out, "; handler except")
	assert.Contains(t, out, "current_exception")
	assert.Contains(t, out, "match_exc")
	assert.Contains(t, out, "store_global e")
	assert.NotContains(t, out, "  raise\n", "a bare raise re-raises the clause's exception")
}

func TestWithCallsExitOnReturn(t *testing.T) {
	out := compile(t, `
def f(m) {
    with m as v {
        return v;
    }
}
`)
	assert.Contains(t, out, "enter")
	assert.Contains(t, out, ", None")
	assert.Contains(t, out, "; handler with")
}

func TestAugmentedAssignment(t *testing.T) {
	out := compile(t, "x += 1; a.b *= 2; a[0] -= 3;")
	assert.Contains(t, out, "inplace.add")
	assert.Contains(t, out, "inplace.mul")
	assert.Contains(t, out, "inplace.sub")
	assert.Contains(t, out, "setattr")
	assert.Contains(t, out, "setitem")
}

func TestImportBinding(t *testing.T) {
	out := compile(t, "import os.path; import math as m;")
	assert.Contains(t, out, "import os.path")
	assert.Contains(t, out, "store_global path")
	assert.Contains(t, out, "store_global m")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source   string
		options  Options
		expected []string
	}{
		{"return 1;", Options{}, []string{errors.ErrorReturnOutsideFunction}},
		{"break;", Options{}, []string{errors.ErrorBreakOutsideLoop}},
		{"continue;", Options{}, []string{errors.ErrorContinueOutsideLoop}},
		{"1 = x;", Options{}, []string{errors.ErrorInvalidTarget}},
		{"f() = x;", Options{}, []string{errors.ErrorInvalidTarget}},
		{"def f(a, a) { pass; }", Options{}, []string{errors.ErrorDuplicateParameter}},
		{"def f(a=1, b) { pass; }", Options{}, []string{errors.ErrorParameterOrder}},
		{"import mth;", Options{Modules: []string{"math"}}, []string{errors.ErrorUnknownModule}},
		{"x = {1, 'k': 2};", Options{}, []string{errors.ErrorUnsupported}},
		{"break; continue;", Options{}, []string{errors.ErrorBreakOutsideLoop, errors.ErrorContinueOutsideLoop}},
		{"x = ;", Options{}, []string{errors.ErrorSyntax}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := Compile("t.lz", tt.source, ModeExec, tt.options)
			require.Error(t, err)
			assert.Equal(t, tt.expected, codes(err))
		})
	}
}

func TestUnreachableCodeWarning(t *testing.T) {
	program, err := grammar.Parse("t.lz", `
def f() {
    return 1;
    x = 2;
    y = 3;
}
`)
	require.NoError(t, err)

	c := New("t.lz", Options{})
	compiled, err := c.Program(program)
	require.NoError(t, err)

	warnings := c.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, errors.WarningUnreachableCode, warnings[0].Code)
	assert.Equal(t, 4, warnings[0].Position.Line)

	assert.NotContains(t, ir.Print(compiled), "store_local x", "dead blocks are removed")
}

func TestCompiledProgramsVerify(t *testing.T) {
	source := `
import math;

def scale(xs, factor=2, *rest, **opts) {
    out = [];
    for x in xs {
        if x is None {
            continue;
        } elif x not in rest {
            out += [x * factor];
        } else {
            break;
        }
    }
    while out {
        assert len(out) > 0, 'empty';
        return out if out else None;
    }
}

squares = {n: n ** 2 for n in range(4) if n % 2 == 0};
pairs = [(a, b) for a in range(3) for b in range(a)];
f = lambda v, w=1: v + w if v else -v;
try {
    raise ValueError("bad");
} except ValueError as e {
    print(e.args[0], sep='-');
} except {
    pass;
}
`
	program, err := Compile("t.lz", source, ModeExec, Options{})
	require.NoError(t, err)
	assert.NoError(t, ir.Verify(program.Main))
	assert.Len(t, program.Main.Nested(), 2)
}
