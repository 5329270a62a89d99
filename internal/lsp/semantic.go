package lsp

import (
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"lazy/internal/grammar"
)

// SemanticTokenTypes is the token type legend advertised to clients.
var SemanticTokenTypes = []string{
	"namespace",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"string",
	"comment",
	"operator",
}

// SemanticTokenModifiers is the modifier legend. Modifiers are bit flags
// in the order given here.
var SemanticTokenModifiers = []string{
	"declaration",
	"defaultLibrary",
}

// SemanticToken represents a single LSP semantic token entry. Line and
// StartChar are 0-based.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int // index into SemanticTokenTypes
	TokenModifiers int // bitmask over SemanticTokenModifiers
}

// collectSemanticTokens classifies the tokens of source. It works from the
// lexer alone, so documents with syntax errors still get highlighting up
// to the first lexing error.
func collectSemanticTokens(path, source string, builtins []string) []SemanticToken {
	lex, err := grammar.Lexer.Lex(path, strings.NewReader(source))
	if err != nil {
		return nil
	}
	symbols := grammar.Lexer.Symbols()
	names := make(map[lexer.TokenType]string, len(symbols))
	for name, t := range symbols {
		names[t] = name
	}

	var (
		tokens   []SemanticToken
		previous string
		defName  bool // previous token named a def
		inParams bool
		depth    int
	)
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			break
		}
		kind := names[tok.Type]
		if kind == "Whitespace" {
			continue
		}

		switch kind {
		case "Comment":
			tokens = append(tokens, makeTokens(tok, "comment", 0)...)
		case "String":
			tokens = append(tokens, makeTokens(tok, "string", 0)...)
		case "Int", "Float":
			tokens = append(tokens, makeTokens(tok, "number", 0)...)
		case "Keyword":
			tokens = append(tokens, makeTokens(tok, "keyword", 0)...)
			if tok.Value == "lambda" {
				inParams, depth = true, 0
			}
		case "Operator":
			tokens = append(tokens, makeTokens(tok, "operator", 0)...)
		case "Ident":
			tokens = append(tokens, classifyIdent(tok, previous, inParams, builtins)...)
		case "Punctuation":
			switch {
			case tok.Value == "(" && defName:
				inParams, depth = true, 1
			case !inParams:
			case tok.Value == "(" || tok.Value == "[" || tok.Value == "{":
				depth++
			case tok.Value == ")" || tok.Value == "]" || tok.Value == "}":
				depth--
				inParams = depth > 0
			case tok.Value == ":" && depth == 0:
				inParams = false
			}
		}

		defName = kind == "Ident" && previous == "def"
		previous = tok.Value
	}
	return tokens
}

func classifyIdent(tok lexer.Token, previous string, inParams bool, builtins []string) []SemanticToken {
	switch {
	case previous == "def":
		return makeTokens(tok, "function", declaration)
	case previous == "import":
		return makeTokens(tok, "namespace", 0)
	case previous == ".":
		return makeTokens(tok, "property", 0)
	case inParams && previous != "=":
		return makeTokens(tok, "parameter", declaration)
	case slices.Contains(builtins, tok.Value):
		return makeTokens(tok, "function", defaultLibrary)
	}
	return makeTokens(tok, "variable", 0)
}

const (
	declaration = 1 << iota
	defaultLibrary
)

func makeTokens(tok lexer.Token, tokenType string, modifiers int) []SemanticToken {
	if tok.Value == "" {
		return nil
	}
	return []SemanticToken{{
		Line:           uint32(tok.Pos.Line - 1),   // LSP uses 0-based line numbers
		StartChar:      uint32(tok.Pos.Column - 1), // LSP uses 0-based column numbers
		Length:         uint32(len([]rune(tok.Value))),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: modifiers,
	}}
}

// encodeSemanticTokens packs tokens into the LSP wire format, where each
// entry is relative to the previous one.
func encodeSemanticTokens(tokens []SemanticToken) []uint32 {
	var data []uint32
	var prevLine, prevStart uint32

	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		deltaStart := token.StartChar
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}
	return data
}

// indexOf returns the index of a string in a slice, or 0 if not found
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return 0
}
