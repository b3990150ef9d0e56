package wat

import (
	"github.com/camlgate/camlgate/wat/internal/encoder"
	"github.com/camlgate/camlgate/wat/internal/parser"
	"github.com/camlgate/camlgate/wat/internal/token"
)

// Compile translates WebAssembly text into a binary module ready for a
// runtime to load. It accepts the subset of the text format described
// in the package documentation.
func Compile(source string) ([]byte, error) {
	mod, err := parser.New(token.Tokenize(source)).Parse()
	if err != nil {
		return nil, err
	}
	return encoder.Encode(mod), nil
}
