package schema

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer defines the token types of the Prisma Schema Language.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `\b(model|view|enum|type|datasource|generator|Unsupported)\b`},

	// @@ must come before @
	{Name: "BlockAttr", Pattern: `@@`},
	{Name: "FieldAttr", Pattern: `@`},

	{Name: "DocComment", Pattern: `///[^\r\n]*`},
	{Name: "Comment", Pattern: `//[^\r\n]*`},
	{Name: "MultiLineComment", Pattern: `/\*(?:[^*]|\*[^/])*\*/`},

	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_-]*`},

	{Name: "Punct", Pattern: `[{}()\[\]:,.=?!]`},

	{Name: "Newline", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})
