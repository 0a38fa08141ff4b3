package parser

import "github.com/alecthomas/participle/v2/lexer"

// Grammar node types for participle. This mirrors the teacher's
// grammar/grammar.go shape (tagged struct fields, a Pos/EndPos pair on
// every node participle auto-populates) adapted to the BUG surface syntax
// from spec.md §3.1/§4: a program name, top-level struct/storage/function
// declarations, an optional create block, and a body ("code") block.

type gProgram struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string      `"name" @Ident ";"`
	Decls  []*gTopDecl `@@*`
	Create *gCreate    `@@?`
	Code   *gCode      `@@`
}

type gTopDecl struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Struct  *gStructDecl  `  @@`
	Func    *gFunctionDecl `| @@`
	Storage *gStorageDecl `| @@`
}

type gStructDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string        `"struct" @Ident "{"`
	Fields []*gFieldDecl `@@* "}"`
}

type gFieldDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string    `@Ident ":"`
	Type   *gType    `@@ ","`
}

type gStorageDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `@Ident ":"`
	Type   *gType `@@`
	Slot   string `"@" "slot" "(" @Number ")" ";"`
}

type gFunctionDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string        `"fn" @Ident "("`
	Params []*gParamDecl `[ @@ { "," @@ } ] ")"`
	Return *gType        `[ ":" @@ ]`
	Body   *gBlock       `@@`
}

type gParamDecl struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `@Ident ":"`
	Type   *gType `@@`
}

type gType struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Mapping *gMappingType `  @@`
	Array   *gArrayType   `| @@`
	Name    string        `| @Ident`
}

type gMappingType struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Key    *gType `"mapping" "<" @@ ","`
	Value  *gType `@@ ">"`
}

type gArrayType struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Elem   *gType  `"array" "<" @@`
	Size   *string `[ "," @Number ] ">"`
}

type gCreate struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Body   *gBlock `"create" @@`
}

type gCode struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Body   *gBlock `"code" @@`
}

type gBlock struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Stmts  []*gStmt `"{" @@* "}"`
}

type gStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Let    *gLetStmt    `  @@`
	Return *gReturnStmt `| @@`
	Break  *gBreakStmt  `| @@`
	If     *gIfStmt     `| @@`
	For    *gForStmt    `| @@`
	Simple *gSimpleStmt `| @@`
}

type gLetStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `"let" @Ident`
	Type   *gType `[ ":" @@ ]`
	Init   *gExpr `"=" @@ ";"`
}

// gForInit is a let-binding without the statement-terminating ";" — the
// for-loop grammar supplies its own.
type gForInit struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `"let" @Ident`
	Type   *gType `[ ":" @@ ]`
	Init   *gExpr `"=" @@`
}

type gReturnStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Value  *gExpr `"return" [ @@ ] ";"`
}

type gBreakStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Tok    string `@"break" ";"`
}

type gIfStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Cond   *gExpr  `"if" "(" @@ ")"`
	Then   *gBlock `@@`
	Else   *gBlock `[ "else" @@ ]`
}

type gForStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Init   *gForInit    `"for" "(" [ @@ ] ";"`
	Cond   *gExpr       `[ @@ ] ";"`
	Update *gAssignExpr `[ @@ ] ")"`
	Body   *gBlock      `@@`
}

// gAssignExpr is `Target ["=" Value]` without a trailing ";"; gSimpleStmt
// wraps it with one for use as a full statement.
type gAssignExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Target *gExpr `@@`
	Value  *gExpr `[ "=" @@ ]`
}

type gSimpleStmt struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Inner  *gAssignExpr `@@ ";"`
}

// Expressions. Binary operators are parsed as a flat left-operand plus a
// list of (operator, operand) pairs — exactly the teacher's
// grammar.go BinaryExpr/BinOp shape — and re-associated by precedence in
// parser.go's conversion pass (the same precedence table the teacher's
// hand-written Pratt parser uses, internal/parser/parser_pratt.go).
type gExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Left   *gUnaryExpr `@@`
	Ops    []*gBinOp   `{ @@ }`
}

type gBinOp struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Operator string      `@("&&" | "||" | "==" | "!=" | "<=" | ">=" | "<" | ">" | "+" | "-" | "*" | "/" | "%")`
	Right    *gUnaryExpr `@@`
}

type gUnaryExpr struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Op      *string      `[ @("!" | "-") ]`
	Operand *gPostfixExpr `@@`
}

type gPostfixExpr struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Primary  *gPrimaryExpr `@@`
	Suffixes []*gSuffix    `{ @@ }`
}

type gSuffix struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Member  *string      `  "." @Ident`
	Index   *gIndexSuffix `| @@`
}

type gIndexSuffix struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	First   *gExpr `"[" [ @@ ]`
	IsSlice bool   `[ ":" ]`
	Second  *gExpr `[ @@ ] "]"`
}

type gPrimaryExpr struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Literal *gLiteral `  @@`
	Call    *gCall    `| @@`
	Ident   *string   `| @Ident`
	Paren   *gExpr    `| "(" @@ ")"`
}

type gLiteral struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Bool   *string `(   @("true" | "false")`
	Str    *string ` | @String`
	Hex    *string ` | @Hex`
	Number *string ` | @Number )`
}

type gCall struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Callee string   `@Ident "("`
	Args   []*gExpr `[ @@ { "," @@ } ] ")"`
}
