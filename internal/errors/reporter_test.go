package errors

import (
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy/internal/grammar"
	"lazy/internal/object"
	"lazy/internal/util/errwrap"
)

func TestErrorReporter(t *testing.T) {
	source := `import mth;
x = mth.sqrt(4);
print(x);`

	reporter := NewErrorReporter("test.lz", source)
	err := UnknownModule("mth", lexer.Position{Filename: "test.lz", Line: 1, Column: 8}, []string{"math", "strings"})
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUnknownModule+"]")
	assert.Contains(t, formatted, "no module named 'mth'")
	assert.Contains(t, formatted, "test.lz:1:8")
	assert.Contains(t, formatted, "import mth;")
	assert.Contains(t, formatted, "did you mean 'math'?")
}

func TestUnknownModuleWithoutSimilarNames(t *testing.T) {
	err := UnknownModule("xyz", lexer.Position{Line: 1, Column: 1}, []string{"math", "strings"})
	assert.Empty(t, err.Suggestions)
	require.Len(t, err.Notes, 1)
	assert.Contains(t, err.Notes[0], "available modules: math, strings")
}

func TestSyntaxErrorFromParser(t *testing.T) {
	source := "x = ;\n"
	_, perr := grammar.Parse("bad.lz", source)
	require.Error(t, perr)

	d, ok := FromParseError(perr)
	require.True(t, ok)
	assert.Equal(t, ErrorSyntax, d.Code)
	assert.Equal(t, 1, d.Position.Line)

	formatted := NewErrorReporter("bad.lz", source).FormatAll(perr)
	assert.Contains(t, formatted, "error["+ErrorSyntax+"]")
	assert.Contains(t, formatted, "bad.lz:1:")
}

func TestDiagnosticsFlattensAggregates(t *testing.T) {
	pos := lexer.Position{Filename: "a.lz", Line: 2, Column: 3}
	var err error
	err = errwrap.Append(err, BreakOutsideLoop(pos))
	err = errwrap.Append(err, ContinueOutsideLoop(pos))
	err = errwrap.Append(err, assert.AnError)

	ds := Diagnostics(err)
	require.Len(t, ds, 3)
	assert.Equal(t, ErrorBreakOutsideLoop, ds[0].Code)
	assert.Equal(t, ErrorContinueOutsideLoop, ds[1].Code)
	assert.Equal(t, "", ds[2].Code)
	assert.Equal(t, assert.AnError.Error(), ds[2].Message)
}

func TestCompilerErrorMessage(t *testing.T) {
	err := InvalidTarget("a literal", lexer.Position{Filename: "a.lz", Line: 4, Column: 1})
	assert.Equal(t, "a.lz:4:1: error[E0102]: cannot assign to a literal", err.Error())

	cerr := &ConstructionError{Function: "f", Instruction: "make_function 3", Reason: "slot 3 is not a function"}
	assert.Contains(t, cerr.Error(), "E0200")
	assert.Contains(t, cerr.Error(), "slot 3 is not a function")
}

func TestWarningFormatting(t *testing.T) {
	source := "return 1;\nx = 2;"
	reporter := NewErrorReporter("test.lz", source)

	formatted := reporter.FormatError(UnreachableCode(lexer.Position{Line: 2, Column: 1}))
	assert.Contains(t, formatted, "warning[W0001]")
	assert.Contains(t, formatted, "unreachable code")
	assert.Contains(t, formatted, "remove this code")
	assert.True(t, IsWarning(WarningUnreachableCode))
	assert.False(t, IsWarning(ErrorSyntax))
}

func TestErrorMarkerCreation(t *testing.T) {
	m := marker(5, 8, Error)
	assert.Equal(t, 4, strings.Count(m, " "))
	assert.Equal(t, 8, strings.Count(m, "^"))
	assert.Equal(t, 1, strings.Count(marker(1, 0, Warning), "^"))
}

func TestReport(t *testing.T) {
	reporter := NewErrorReporter("r.lz", "x = 1 // 0;\n")

	exc := object.Errorf(object.ZeroDivisionError, "integer division or modulo by zero")
	assert.Equal(t, "ZeroDivisionError: integer division or modulo by zero\n", reporter.Report(exc))

	syntax := NewDiagnostic(ErrorSyntax, "unexpected token", lexer.Position{Filename: "r.lz", Line: 1, Column: 5}).Build()
	formatted := reporter.Report(errwrap.Append(nil, syntax))
	assert.Contains(t, formatted, "error["+ErrorSyntax+"]")
	assert.Contains(t, formatted, "x = 1 // 0;")
}

func TestErrorWithoutPosition(t *testing.T) {
	formatted := NewErrorReporter("x.lz", "").FormatError(CompilerError{Level: Error, Message: "boom"})
	assert.Contains(t, formatted, "error: boom")
	assert.NotContains(t, formatted, "-->")
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("hello", "hello"))
	assert.Equal(t, 1, levenshteinDistance("hello", "hallo"))
	assert.Equal(t, 1, levenshteinDistance("hello", "helo"))
	assert.Equal(t, 5, levenshteinDistance("hello", ""))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, "Front End", GetErrorCategory(ErrorSyntax))
	assert.Equal(t, "Rewrite", GetErrorCategory(ErrorConstruction))
	assert.Equal(t, "Import/Module", GetErrorCategory(ErrorUnknownModule))
	assert.Equal(t, "Flow Control", GetErrorCategory(ErrorBreakOutsideLoop))
	assert.Equal(t, "Warning", GetErrorCategory(WarningUnreachableCode))
	assert.Equal(t, "Unknown error code", GetErrorDescription("E9999"))
}
