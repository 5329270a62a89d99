package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

type Program struct {
	Pos        lexer.Position
	Statements []*Statement `@@*`
}

type Block struct {
	Pos        lexer.Position
	Statements []*Statement `"{" @@* "}"`
}

type Statement struct {
	Pos    lexer.Position
	Def    *FuncDef    `  @@`
	If     *IfStmt     `| @@`
	While  *WhileStmt  `| @@`
	For    *ForStmt    `| @@`
	Try    *TryStmt    `| @@`
	With   *WithStmt   `| @@`
	Simple *SimpleStmt `| @@ ";"`
}

type SimpleStmt struct {
	Pos      lexer.Position
	Return   *ReturnStmt `  @@`
	Import   *ImportStmt `| @@`
	Raise    *RaiseStmt  `| @@`
	Assert   *AssertStmt `| @@`
	Pass     bool        `| @"pass"`
	Break    bool        `| @"break"`
	Continue bool        `| @"continue"`
	Assign   *AssignStmt `| @@`
}

type FuncDef struct {
	Pos    lexer.Position
	Name   string   `"def" @Ident "("`
	Params []*Param `[ @@ { "," @@ } ] ")"`
	Body   *Block   `@@`
}

type Param struct {
	Pos     lexer.Position
	Star    string `@( "**" | "*" )?`
	Name    string `@Ident`
	Default *Expr  `[ "=" @@ ]`
}

type IfStmt struct {
	Pos   lexer.Position
	Cond  *Expr         `"if" @@`
	Body  *Block        `@@`
	Elifs []*ElifClause `@@*`
	Else  *Block        `[ "else" @@ ]`
}

type ElifClause struct {
	Pos  lexer.Position
	Cond *Expr  `"elif" @@`
	Body *Block `@@`
}

type WhileStmt struct {
	Pos  lexer.Position
	Cond *Expr  `"while" @@`
	Body *Block `@@`
}

type ForStmt struct {
	Pos     lexer.Position
	Targets []string `"for" @Ident { "," @Ident }`
	Iter    *Expr    `"in" @@`
	Body    *Block   `@@`
}

type TryStmt struct {
	Pos      lexer.Position
	Body     *Block          `"try" @@`
	Handlers []*ExceptClause `@@+`
}

type ExceptClause struct {
	Pos  lexer.Position
	Type *DottedName `"except" [ @@ ]`
	Name string      `[ "as" @Ident ]`
	Body *Block      `@@`
}

type DottedName struct {
	Pos   lexer.Position
	Parts []string `@Ident { "." @Ident }`
}

type WithStmt struct {
	Pos     lexer.Position
	Manager *Expr  `"with" @@`
	Name    string `[ "as" @Ident ]`
	Body    *Block `@@`
}

type ReturnStmt struct {
	Pos   lexer.Position
	Value *Expr `"return" [ @@ ]`
}

type ImportStmt struct {
	Pos   lexer.Position
	Path  []string `"import" @Ident { "." @Ident }`
	Alias string   `[ "as" @Ident ]`
}

type RaiseStmt struct {
	Pos   lexer.Position
	Value *Expr `"raise" [ @@ ]`
}

type AssertStmt struct {
	Pos     lexer.Position
	Cond    *Expr `"assert" @@`
	Message *Expr `[ "," @@ ]`
}

// AssignStmt covers plain and augmented assignment. Without an operator it
// is an expression statement.
type AssignStmt struct {
	Pos     lexer.Position
	Targets []*Expr `@@ { "," @@ }`
	Op      string  `[ @( "=" | "+=" | "-=" | "*=" | "/=" | "//=" | "%=" | "**=" | "<<=" | ">>=" | "&=" | "|=" | "^=" )`
	Values  []*Expr `  @@ { "," @@ } ]`
}

type Expr struct {
	Pos     lexer.Position
	Lambda  *LambdaExpr  `  @@`
	Ternary *TernaryExpr `| @@`
}

type LambdaExpr struct {
	Pos    lexer.Position
	Params []*Param `"lambda" [ @@ { "," @@ } ] ":"`
	Body   *Expr    `@@`
}

type TernaryExpr struct {
	Pos  lexer.Position
	Body *OrExpr `@@`
	Cond *OrExpr `[ "if" @@`
	Else *Expr   `  "else" @@ ]`
}

type OrExpr struct {
	Pos   lexer.Position
	Left  *AndExpr   `@@`
	Right []*AndExpr `{ "or" @@ }`
}

type AndExpr struct {
	Pos   lexer.Position
	Left  *NotExpr   `@@`
	Right []*NotExpr `{ "and" @@ }`
}

type NotExpr struct {
	Pos     lexer.Position
	Not     *NotExpr     `  "not" @@`
	Compare *CompareExpr `| @@`
}

type CompareExpr struct {
	Pos  lexer.Position
	Left *BitOrExpr   `@@`
	Ops  []*CompareOp `{ @@ }`
}

// CompareOp.Op holds the concatenated tokens, so `not in` reads "notin" and
// `is not` reads "isnot".
type CompareOp struct {
	Pos   lexer.Position
	Op    string     `@( "==" | "!=" | "<=" | ">=" | "<" | ">" | "not" "in" | "in" | "is" "not" | "is" )`
	Right *BitOrExpr `@@`
}

type BitOrExpr struct {
	Pos   lexer.Position
	Left  *BitXorExpr   `@@`
	Right []*BitXorExpr `{ "|" @@ }`
}

type BitXorExpr struct {
	Pos   lexer.Position
	Left  *BitAndExpr   `@@`
	Right []*BitAndExpr `{ "^" @@ }`
}

type BitAndExpr struct {
	Pos   lexer.Position
	Left  *ShiftExpr   `@@`
	Right []*ShiftExpr `{ "&" @@ }`
}

type ShiftExpr struct {
	Pos  lexer.Position
	Left *ArithExpr `@@`
	Ops  []*ShiftOp `{ @@ }`
}

type ShiftOp struct {
	Pos   lexer.Position
	Op    string     `@( "<<" | ">>" )`
	Right *ArithExpr `@@`
}

type ArithExpr struct {
	Pos  lexer.Position
	Left *TermExpr  `@@`
	Ops  []*ArithOp `{ @@ }`
}

type ArithOp struct {
	Pos   lexer.Position
	Op    string    `@( "+" | "-" )`
	Right *TermExpr `@@`
}

type TermExpr struct {
	Pos  lexer.Position
	Left *FactorExpr `@@`
	Ops  []*TermOp   `{ @@ }`
}

type TermOp struct {
	Pos   lexer.Position
	Op    string      `@( "*" | "//" | "/" | "%" )`
	Right *FactorExpr `@@`
}

type FactorExpr struct {
	Pos     lexer.Position
	Op      string      `  @( "-" | "+" | "~" )`
	Operand *FactorExpr `  @@`
	Power   *PowerExpr  `| @@`
}

type PowerExpr struct {
	Pos      lexer.Position
	Base     *PostfixExpr `@@`
	Exponent *FactorExpr  `[ "**" @@ ]`
}

type PostfixExpr struct {
	Pos      lexer.Position
	Primary  *Primary  `@@`
	Suffixes []*Suffix `{ @@ }`
}

type Suffix struct {
	Pos   lexer.Position
	Call  *CallArgs `  @@`
	Index *Expr     `| "[" @@ "]"`
	Attr  string    `| "." @Ident`
}

type CallArgs struct {
	Pos  lexer.Position
	Args []*Argument `"(" [ @@ { "," @@ } [ "," ] ] ")"`
}

type Argument struct {
	Pos   lexer.Position
	Name  string `[ @Ident "=" ]`
	Value *Expr  `@@`
}

type Primary struct {
	Pos   lexer.Position
	Float *float64      `  @Float`
	Int   *string       `| @Int`
	Str   *string       `| @String`
	True  bool          `| @"True"`
	False bool          `| @"False"`
	None  bool          `| @"None"`
	Name  *string       `| @Ident`
	Paren *ParenDisplay `| @@`
	List  *ListDisplay  `| @@`
	Brace *BraceDisplay `| @@`
}

// ParenDisplay is a parenthesized expression or a tuple display.
type ParenDisplay struct {
	Pos   lexer.Position
	First *Expr   `"(" [ @@`
	Rest  []*Expr `      { "," @@ }`
	Comma bool    `      @","? ] ")"`
}

type ListDisplay struct {
	Pos   lexer.Position
	First *Expr    `"[" [ @@`
	Comp  *CompFor `      ( @@`
	Rest  []*Expr  `      | { "," @@ } [ "," ] ) ] "]"`
}

// BraceDisplay is a dict or set display, or a comprehension of either.
// `{}` is an empty dict.
type BraceDisplay struct {
	Pos   lexer.Position
	First *BraceItem   `"{" [ @@`
	Comp  *CompFor     `      ( @@`
	Rest  []*BraceItem `      | { "," @@ } [ "," ] ) ] "}"`
}

type BraceItem struct {
	Pos   lexer.Position
	Key   *Expr `@@`
	Value *Expr `[ ":" @@ ]`
}

type CompFor struct {
	Pos     lexer.Position
	Targets []string  `"for" @Ident { "," @Ident }`
	Iter    *OrExpr   `"in" @@`
	Conds   []*OrExpr `{ "if" @@ }`
	Next    *CompFor  `[ @@ ]`
}
