package errors

// Error codes for the lz toolchain.
// These codes appear in diagnostics printed by the CLI and published by the
// language server.
//
// Error code ranges:
// E0100-E0199: Front end errors (syntax, lowering)
// E0200-E0299: Rewrite pass errors
// E0300-E0399: Import/module errors
// E0600-E0699: Flow control errors
// W0001-W0099: Warnings

const (
	// E0100: Source does not match the grammar
	ErrorSyntax = "E0100"

	// E0101: Construct the compiler cannot lower
	ErrorUnsupported = "E0101"

	// E0102: Assignment to something that is not a name, attribute or index
	ErrorInvalidTarget = "E0102"

	// E0103: Same parameter name used twice
	ErrorDuplicateParameter = "E0103"

	// E0104: Parameter without default after one with a default
	ErrorParameterOrder = "E0104"

	// E0105: Malformed literal
	ErrorInvalidLiteral = "E0105"

	// E0200: IR shape that has a rewrite rule but is malformed
	ErrorConstruction = "E0200"

	// E0300: Import of a module the registry does not provide
	ErrorUnknownModule = "E0300"

	// E0600: break outside a loop
	ErrorBreakOutsideLoop = "E0600"

	// E0601: continue outside a loop
	ErrorContinueOutsideLoop = "E0601"

	// E0602: return at module level
	ErrorReturnOutsideFunction = "E0602"

	// W0001: Statement after return, raise, break or continue
	WarningUnreachableCode = "W0001"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Source does not match the lz grammar"
	case ErrorUnsupported:
		return "Construct is not supported by the compiler"
	case ErrorInvalidTarget:
		return "Expression cannot be assigned to"
	case ErrorDuplicateParameter:
		return "Parameter name is used more than once"
	case ErrorParameterOrder:
		return "Parameter without a default follows one with a default"
	case ErrorInvalidLiteral:
		return "Literal cannot be decoded"
	case ErrorConstruction:
		return "IR node is malformed and cannot be rewritten"
	case ErrorUnknownModule:
		return "Imported module does not exist"
	case ErrorBreakOutsideLoop:
		return "break used outside a loop"
	case ErrorContinueOutsideLoop:
		return "continue used outside a loop"
	case ErrorReturnOutsideFunction:
		return "return used outside a function"
	case WarningUnreachableCode:
		return "Code is unreachable"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return code != "" && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case IsWarning(code):
		return "Warning"
	case code >= "E0100" && code < "E0200":
		return "Front End"
	case code >= "E0200" && code < "E0300":
		return "Rewrite"
	case code >= "E0300" && code < "E0400":
		return "Import/Module"
	case code >= "E0600" && code < "E0700":
		return "Flow Control"
	default:
		return "Unknown"
	}
}
