package gen

import "github.com/camlgate/camlgate/errors"

// Decl is one parsed variant type declaration.
type Decl struct {
	Name   string   // source name, lowercase
	Params []string // type parameter names without the quote
	Ctors  []Ctor
	Pos    errors.Pos
}

// Ctor is one constructor case. Constructors without a payload encode as
// immediates; constructors with a payload encode as blocks.
type Ctor struct {
	Name string
	Args []TypeExpr
	Pos  errors.Pos
}

// TypeExpr is a payload type reference: a bare name, a type variable, or a
// postfix application like `int list`.
type TypeExpr struct {
	Name  string
	Args  []TypeExpr
	IsVar bool
	Pos   errors.Pos
}
