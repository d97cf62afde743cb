package irfixture

// File is the top-level shape of a fixture: a sequence of named blocks,
// each holding a straight-line list of instruction statements. This
// mirrors grammar.Program in the teacher's own parser package — one
// struct per nonterminal, driven entirely by participle struct tags.
type File struct {
	Blocks []*Block `@@*`
}

type Block struct {
	Name  string  `"block" @Ident ":"`
	Stmts []*Stmt `@@*`
}

// Stmt covers both value-producing instructions ("dest = op args...")
// and terminators/void ops ("op args..."), distinguished by whether the
// optional "Ident =" prefix is present.
type Stmt struct {
	Dest string     `[ @Ident "=" ]`
	Op   string     `@Ident`
	Args []*Operand `[ @@ { "," @@ } ]`
}

// Operand is either a bare name (a value defined earlier in the fixture,
// a block name, or a keyword like a comparison kind or extension mode)
// or an integer literal.
type Operand struct {
	Int  *int64  `  @Int`
	Name *string `| @Ident`
}
