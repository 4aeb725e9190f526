package design

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// DesignLexer tokenizes circuit description files.
var DesignLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run from # to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	// Quoted strings with Go escapes
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	// Numbers, millimetres for positions and bare pin numbers
	{Name: "Number", Pattern: `[-+]?[0-9]+(?:\.[0-9]+)?`},

	// Keywords are matched as identifiers by the grammar
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},

	{Name: "Dot", Pattern: `\.`},
})
