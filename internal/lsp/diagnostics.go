package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"lazy/internal/compiler"
	"lazy/internal/errors"
	"lazy/internal/grammar"
)

const diagnosticSource = "lazy"

// Check compiles source and returns every error and warning it produces.
// The result is never nil, so publishing it clears stale diagnostics.
func Check(path, source string, modules []string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	program, err := grammar.Parse(path, source)
	if err != nil {
		return append(diagnostics, ConvertCompilerErrors(errors.Diagnostics(err))...)
	}

	c := compiler.New(path, compiler.Options{Modules: modules})
	_, err = c.Program(program)
	if err != nil {
		diagnostics = append(diagnostics, ConvertCompilerErrors(errors.Diagnostics(err))...)
	}
	return append(diagnostics, ConvertCompilerErrors(c.Warnings())...)
}

// ConvertCompilerErrors transforms compiler diagnostics into LSP
// diagnostics. Positions move from 1-based to 0-based.
func ConvertCompilerErrors(errs []errors.CompilerError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic

	for _, e := range errs {
		line := max(e.Position.Line-1, 0)
		start := max(e.Position.Column-1, 0)
		length := e.Length
		if length <= 0 {
			length = 1
		}

		message := e.Message
		for _, s := range e.Suggestions {
			message += "\n" + s
		}

		diagnostic := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(start)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(start + length)},
			},
			Severity: ptrSeverity(severity(e.Level)),
			Source:   ptrString(diagnosticSource),
			Message:  message,
		}
		if e.Code != "" {
			diagnostic.Code = &protocol.IntegerOrString{Value: e.Code}
		}
		diagnostics = append(diagnostics, diagnostic)
	}

	return diagnostics
}

func severity(level errors.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	case errors.Note, errors.Help:
		return protocol.DiagnosticSeverityInformation
	}
	return protocol.DiagnosticSeverityError
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
