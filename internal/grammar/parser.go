package grammar

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
)

var (
	programParser = participle.MustBuild[Program](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(4),
	)
	exprParser = participle.MustBuild[Expr](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(4),
	)
)

// ParseFile reads and parses an lz source file.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(path, string(source))
}

// Parse parses a whole program. Syntax errors are participle.Error values
// carrying the offending position.
func Parse(filename, source string) (*Program, error) {
	return programParser.ParseString(filename, source)
}

// ParseExpr parses source as a single expression.
func ParseExpr(filename, source string) (*Expr, error) {
	return exprParser.ParseString(filename, source)
}

// Incomplete reports whether err is a syntax error caused by running out
// of input, so that more lines could complete the source.
func Incomplete(err error) bool {
	var unexpected *participle.UnexpectedTokenError
	if errors.As(err, &unexpected) {
		return unexpected.Unexpected.EOF()
	}
	var perr participle.Error
	if errors.As(err, &perr) {
		return strings.Contains(perr.Message(), `"<EOF>"`)
	}
	return false
}

// Unquote decodes a String token, accepting both quote styles.
func Unquote(raw string) (string, error) {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		inner := raw[1 : len(raw)-1]
		var b strings.Builder
		b.WriteByte('"')
		for i := 0; i < len(inner); i++ {
			switch c := inner[i]; {
			case c == '\\' && i+1 < len(inner) && inner[i+1] == '\'':
				b.WriteByte('\'')
				i++
			case c == '\\' && i+1 < len(inner):
				b.WriteByte(c)
				b.WriteByte(inner[i+1])
				i++
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte('"')
		raw = b.String()
	}
	return strconv.Unquote(raw)
}

// ParseInt decodes an Int token.
func ParseInt(raw string) (int64, error) {
	return strconv.ParseInt(raw, 0, 64)
}
