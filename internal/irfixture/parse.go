package irfixture

import (
	"fmt"
	"sync"

	"github.com/alecthomas/participle/v2"
)

var (
	parserOnce sync.Once
	parserInst *participle.Parser[File]
	parserErr  error
)

func parse(source string) (*File, error) {
	parserOnce.Do(func() {
		parserInst, parserErr = participle.Build[File](
			participle.Lexer(FixtureLexer),
			participle.Elide("Whitespace", "Comment"),
			participle.UseLookahead(3),
		)
	})
	if parserErr != nil {
		return nil, fmt.Errorf("irfixture: building parser: %w", parserErr)
	}
	f, err := parserInst.ParseString("fixture", source)
	if err != nil {
		return nil, fmt.Errorf("irfixture: %w", err)
	}
	return f, nil
}
