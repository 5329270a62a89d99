package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes lz source. Keywords are matched before identifiers and
// operators are listed longest first.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `#[^\n]*`, nil},

		// Literals
		{"String", `"(\\.|[^"\\\n])*"|'(\\.|[^'\\\n])*'`, nil},
		{"Float", `[0-9]+\.[0-9]+([eE][-+]?[0-9]+)?|[0-9]+[eE][-+]?[0-9]+`, nil},
		{"Int", `0[xX][0-9a-fA-F]+|[0-9]+`, nil},

		// Keywords and identifiers (order matters)
		{"Keyword", `\b(def|lambda|return|if|elif|else|while|for|in|not|and|or|is|try|except|as|with|raise|import|assert|pass|break|continue|True|False|None)\b`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},

		// Operators
		{"Operator", `\*\*=|//=|<<=|>>=|\*\*|//|<<|>>|==|!=|<=|>=|\+=|-=|\*=|/=|%=|&=|\|=|\^=|[-+*/%&|^~<>=]`, nil},

		// Punctuation
		{"Punctuation", `[(){}\[\],;:.]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// Keywords lists the reserved words, for completion and highlighting.
var Keywords = []string{
	"def", "lambda", "return", "if", "elif", "else", "while", "for", "in",
	"not", "and", "or", "is", "try", "except", "as", "with", "raise",
	"import", "assert", "pass", "break", "continue", "True", "False", "None",
}
