package irfixture

import "github.com/alecthomas/participle/v2/lexer"

// FixtureLexer tokenizes the small per-block instruction-listing notation
// these fixtures are written in, built the same way grammar.KansoLexer is:
// a single stateful rule set with whitespace elided at parse time.
var FixtureLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"Punct", `[:,=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
