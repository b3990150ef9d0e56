package gen

import (
	"go.uber.org/zap"

	"github.com/camlgate/camlgate/errors"
)

type parser struct {
	toks []token
	pos  int
	decl string // current declaration name, for diagnostics
}

// Parse reads variant type declarations from source. Every declaration is
// validated: payload types must resolve to builtins, list/option, a type
// variable of the enclosing declaration, or another declaration in the same
// source.
func Parse(source string) ([]Decl, error) {
	toks, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	var decls []Decl
	for p.peek().typ != tokEOF {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return nil, errors.Syntax("", errors.Pos{Line: 1, Col: 1}, "no type declarations")
	}
	if err := resolve(decls); err != nil {
		return nil, err
	}
	Logger().Debug("parse", zap.Int("decls", len(decls)))
	return decls, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ tokenType) (token, error) {
	t := p.next()
	if t.typ != typ {
		return t, errors.Syntax(p.decl, t.pos, "expected %s, got %s", typ, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	switch t.typ {
	case tokEOF:
		return "end of input"
	case tokTyVar:
		return "'" + t.value
	}
	return "\"" + t.value + "\""
}

func (p *parser) parseDecl() (Decl, error) {
	p.decl = ""
	kw, err := p.expect(tokType)
	if err != nil {
		return Decl{}, err
	}
	d := Decl{Pos: kw.pos}

	// Optional type parameters: 'a or ('a, 'b).
	switch p.peek().typ {
	case tokTyVar:
		d.Params = append(d.Params, p.next().value)
	case tokLParen:
		p.next()
		for {
			t := p.next()
			if t.typ != tokTyVar {
				return Decl{}, errors.UnsupportedConstruct("", describe(t), t.pos,
					"type parameters must be type variables")
			}
			d.Params = append(d.Params, t.value)
			sep := p.next()
			if sep.typ == tokRParen {
				break
			}
			if sep.typ != tokComma {
				return Decl{}, errors.Syntax("", sep.pos, "expected ',' or ')', got %s", describe(sep))
			}
		}
	}

	name, err := p.expect(tokLower)
	if err != nil {
		return Decl{}, err
	}
	d.Name = name.value
	p.decl = name.value

	seen := make(map[string]bool)
	for _, param := range d.Params {
		if seen[param] {
			return Decl{}, errors.Syntax(d.Name, d.Pos, "type parameter '%s declared twice", param)
		}
		seen[param] = true
	}

	if _, err := p.expect(tokEq); err != nil {
		return Decl{}, err
	}
	if p.peek().typ == tokBar {
		p.next()
	}

	names := make(map[string]bool)
	for {
		c, err := p.parseCtor()
		if err != nil {
			return Decl{}, err
		}
		if names[c.Name] {
			return Decl{}, errors.DuplicateConstructor(d.Name, c.Name, c.Pos)
		}
		names[c.Name] = true
		d.Ctors = append(d.Ctors, c)

		if p.peek().typ != tokBar {
			break
		}
		p.next()
	}

	switch t := p.peek(); t.typ {
	case tokType, tokEOF:
	case tokUpper:
		return Decl{}, errors.Syntax(d.Name, t.pos, "constructors must be separated by '|'")
	default:
		return Decl{}, errors.Syntax(d.Name, t.pos, "unexpected %s after declaration", describe(t))
	}
	return d, nil
}

func (p *parser) parseCtor() (Ctor, error) {
	if t := p.peek(); t.typ == tokPoly {
		return Ctor{}, errors.UnsupportedConstruct(p.decl, "polymorphic variant", t.pos,
			"polymorphic variants cannot be encoded")
	}
	name, err := p.expect(tokUpper)
	if err != nil {
		return Ctor{}, err
	}
	c := Ctor{Name: name.value, Pos: name.pos}

	switch t := p.peek(); t.typ {
	case tokEq, tokNumber:
		return Ctor{}, errors.UnsupportedConstruct(p.decl, "explicit tag assignment", t.pos,
			"constructor %q assigns an explicit tag", c.Name)
	case tokOf:
		p.next()
		for {
			arg, err := p.parseTypeExpr()
			if err != nil {
				return Ctor{}, err
			}
			c.Args = append(c.Args, arg)
			if p.peek().typ != tokStar {
				break
			}
			p.next()
		}
	}
	return c, nil
}

func (p *parser) parseTypeExpr() (TypeExpr, error) {
	switch t := p.peek(); t.typ {
	case tokLBrace:
		return TypeExpr{}, errors.UnsupportedConstruct(p.decl, "inline record payload", t.pos,
			"inline record payloads cannot be encoded")
	case tokPoly:
		return TypeExpr{}, errors.UnsupportedConstruct(p.decl, "polymorphic variant", t.pos,
			"polymorphic variants cannot be encoded")
	case tokTyVar:
		p.next()
		return p.applyPostfix(TypeExpr{Name: t.value, IsVar: true, Pos: t.pos})
	case tokLower:
		p.next()
		return p.applyPostfix(TypeExpr{Name: t.value, Pos: t.pos})
	case tokLParen:
		p.next()
		var args []TypeExpr
		for {
			arg, err := p.parseTypeExpr()
			if err != nil {
				return TypeExpr{}, err
			}
			args = append(args, arg)
			sep := p.next()
			if sep.typ == tokRParen {
				break
			}
			if sep.typ == tokStar {
				return TypeExpr{}, errors.UnsupportedConstruct(p.decl, "tuple type", sep.pos,
					"parenthesized tuples cannot be encoded; list the payload fields with '*' at the top level")
			}
			if sep.typ != tokComma {
				return TypeExpr{}, errors.Syntax(p.decl, sep.pos, "expected ',' or ')', got %s", describe(sep))
			}
		}
		head, err := p.expect(tokLower)
		if err != nil {
			if len(args) == 1 {
				return TypeExpr{}, errors.Syntax(p.decl, head.pos,
					"parenthesized type must be applied to a type constructor")
			}
			return TypeExpr{}, errors.UnsupportedConstruct(p.decl, "tuple type", head.pos,
				"bare tuple payloads are not supported; separate the fields with '*'")
		}
		return p.applyPostfix(TypeExpr{Name: head.value, Args: args, Pos: head.pos})
	default:
		return TypeExpr{}, errors.Syntax(p.decl, t.pos, "expected a payload type, got %s", describe(t))
	}
}

// applyPostfix wraps te in postfix type applications: `int list list`
// parses as list(list(int)).
func (p *parser) applyPostfix(te TypeExpr) (TypeExpr, error) {
	for p.peek().typ == tokLower {
		head := p.next()
		te = TypeExpr{Name: head.value, Args: []TypeExpr{te}, Pos: head.pos}
	}
	return te, nil
}

// builtinArity maps the payload types the generator knows how to encode
// without a same-source declaration.
var builtinArity = map[string]int{
	"int":    0,
	"bool":   0,
	"unit":   0,
	"list":   1,
	"option": 1,
}

// resolve checks every payload type reference against the declared types,
// the builtins, and the enclosing declaration's parameters, and checks that
// constructor names stay unique across the source since each becomes a
// top-level Go declaration.
func resolve(decls []Decl) error {
	arity := make(map[string]int, len(decls))
	declPos := make(map[string]errors.Pos, len(decls))
	for _, d := range decls {
		if _, dup := arity[d.Name]; dup {
			return errors.Syntax(d.Name, d.Pos, "type %q declared twice", d.Name)
		}
		if _, shadows := builtinArity[d.Name]; shadows {
			return errors.Syntax(d.Name, d.Pos, "type %q shadows a builtin type", d.Name)
		}
		arity[d.Name] = len(d.Params)
		declPos[d.Name] = d.Pos
	}

	ctorOwner := make(map[string]string)
	for _, d := range decls {
		params := make(map[string]bool, len(d.Params))
		for _, param := range d.Params {
			params[param] = true
		}
		for _, c := range d.Ctors {
			if owner, dup := ctorOwner[c.Name]; dup {
				return errors.UnsupportedConstruct(d.Name, c.Name, c.Pos,
					"constructor %q already declared in type %q", c.Name, owner)
			}
			ctorOwner[c.Name] = d.Name
			for _, arg := range c.Args {
				if err := resolveType(d.Name, arg, params, arity); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func resolveType(decl string, te TypeExpr, params map[string]bool, arity map[string]int) error {
	if te.IsVar {
		if !params[te.Name] {
			return errors.Syntax(decl, te.Pos, "unbound type variable '%s", te.Name)
		}
		return nil
	}

	want, known := builtinArity[te.Name]
	if !known {
		want, known = arity[te.Name]
	}
	if !known {
		return errors.UnsupportedConstruct(decl, te.Name, te.Pos,
			"unknown payload type %q", te.Name)
	}
	if len(te.Args) != want {
		return errors.Syntax(decl, te.Pos, "type %s expects %d parameters, got %d",
			te.Name, want, len(te.Args))
	}
	for _, arg := range te.Args {
		if err := resolveType(decl, arg, params, arity); err != nil {
			return err
		}
	}
	return nil
}
