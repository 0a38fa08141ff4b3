package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// bugLexer tokenizes BUG source. It follows the same stateful-rules shape
// as the teacher's KansoLexer (grammar/lexer.go): order matters, longest
// operators are listed before their single-character prefixes.
var bugLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "DocComment", Pattern: `///[^\n]*`},
		{Name: "Comment", Pattern: `//[^\n]*`},
		{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
		{Name: "Hex", Pattern: `0[xX][0-9a-fA-F]+`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Number", Pattern: `[0-9]+`},
		{Name: "Operator", Pattern: `(&&|\|\||==|!=|<=|>=|::|[-+*/%<>=!.,;:(){}\[\]@])`},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	},
})
