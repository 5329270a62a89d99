package errors

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// DiagnosticBuilder provides a fluent interface for creating diagnostics with suggestions
type DiagnosticBuilder struct {
	err CompilerError
}

func NewDiagnostic(code, message string, pos lexer.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

func NewWarning(code, message string, pos lexer.Position) *DiagnosticBuilder {
	b := NewDiagnostic(code, message, pos)
	b.err.Level = Warning
	return b
}

func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.err.Length = length
	return b
}

func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, message)
	return b
}

func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// FromParseError converts a participle syntax error into a diagnostic.
func FromParseError(err error) (CompilerError, bool) {
	perr, ok := err.(participle.Error)
	if !ok {
		return CompilerError{}, false
	}
	b := NewDiagnostic(ErrorSyntax, perr.Message(), perr.Position())
	if strings.Contains(perr.Message(), `";"`) {
		b = b.WithSuggestion("simple statements end with ';'")
	}
	return b.Build(), true
}

// Unsupported reports a construct the compiler cannot lower.
func Unsupported(what string, pos lexer.Position) CompilerError {
	return NewDiagnostic(ErrorUnsupported, fmt.Sprintf("%s is not supported", what), pos).Build()
}

func InvalidTarget(what string, pos lexer.Position) CompilerError {
	return NewDiagnostic(ErrorInvalidTarget, fmt.Sprintf("cannot assign to %s", what), pos).
		WithHelp("assignment targets must be names, attributes or subscripts").
		Build()
}

func DuplicateParameter(name string, pos lexer.Position) CompilerError {
	return NewDiagnostic(ErrorDuplicateParameter, fmt.Sprintf("duplicate parameter '%s'", name), pos).
		WithLength(len(name)).
		WithSuggestion(fmt.Sprintf("rename one of the '%s' parameters", name)).
		Build()
}

func ParameterOrder(name string, pos lexer.Position) CompilerError {
	return NewDiagnostic(ErrorParameterOrder,
		fmt.Sprintf("parameter '%s' without a default follows a parameter with a default", name), pos).
		WithLength(len(name)).
		WithSuggestion(fmt.Sprintf("give '%s' a default value", name)).
		WithSuggestion("or move it before the defaulted parameters").
		Build()
}

func InvalidLiteral(raw string, pos lexer.Position, cause error) CompilerError {
	return NewDiagnostic(ErrorInvalidLiteral, fmt.Sprintf("invalid literal %s", raw), pos).
		WithLength(len(raw)).
		WithNote(cause.Error()).
		Build()
}

// UnknownModule reports an import the module registry cannot satisfy.
func UnknownModule(name string, pos lexer.Position, available []string) CompilerError {
	b := NewDiagnostic(ErrorUnknownModule, fmt.Sprintf("no module named '%s'", name), pos).
		WithLength(len(name))

	similar := findSimilarNames(name, available)
	switch len(similar) {
	case 0:
		if len(available) > 0 {
			b = b.WithNote(fmt.Sprintf("available modules: %s", strings.Join(available, ", ")))
		}
	case 1:
		b = b.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	default:
		b = b.WithSuggestion(fmt.Sprintf("did you mean one of: '%s'?", strings.Join(similar, "', '")))
	}
	return b.Build()
}

func BreakOutsideLoop(pos lexer.Position) CompilerError {
	return NewDiagnostic(ErrorBreakOutsideLoop, "'break' outside loop", pos).WithLength(len("break")).Build()
}

func ContinueOutsideLoop(pos lexer.Position) CompilerError {
	return NewDiagnostic(ErrorContinueOutsideLoop, "'continue' not properly in loop", pos).WithLength(len("continue")).Build()
}

func ReturnOutsideFunction(pos lexer.Position) CompilerError {
	return NewDiagnostic(ErrorReturnOutsideFunction, "'return' outside function", pos).
		WithLength(len("return")).
		WithHelp("evaluate an expression with 'lazy eval' to obtain its value").
		Build()
}

func UnreachableCode(pos lexer.Position) CompilerError {
	return NewWarning(WarningUnreachableCode, "unreachable code", pos).
		WithSuggestion("remove this code").
		WithNote("code after return, raise, break or continue never runs").
		Build()
}

// ConstructionError is returned by the rewrite pass when an instruction it
// has a rule for is malformed.
type ConstructionError struct {
	Function    string
	Instruction string
	Reason      string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("error[%s]: cannot rewrite %q in %s: %s",
		ErrorConstruction, e.Instruction, e.Function, e.Reason)
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}
	return matrix[len(a)][len(b)]
}
