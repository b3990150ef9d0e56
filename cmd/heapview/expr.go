package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/bindings/list"
	"github.com/camlgate/camlgate/bindings/option"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
)

// node is a parsed constructor expression. An empty ctor means an integer
// literal.
type node struct {
	ctor string
	num  int
	args []*node
}

// ctorArity lists the constructors the inspector understands.
var ctorArity = map[string]int{
	"Cons": 2,
	"Nil":  0,
	"Some": 1,
	"None": 0,
}

// parseExpr parses expressions like Cons(1, Cons(2, Nil)) or Some(7).
func parseExpr(input string) (*node, error) {
	p := &exprParser{input: []rune(input)}
	n, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("trailing input at %q", string(p.input[p.pos:]))
	}
	return n, nil
}

type exprParser struct {
	input []rune
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) parse() (*node, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	r := p.input[p.pos]

	if unicode.IsDigit(r) || r == '-' {
		start := p.pos
		p.pos++
		for p.pos < len(p.input) && unicode.IsDigit(p.input[p.pos]) {
			p.pos++
		}
		v, err := strconv.Atoi(string(p.input[start:p.pos]))
		if err != nil {
			return nil, fmt.Errorf("bad integer %q", string(p.input[start:p.pos]))
		}
		return &node{num: v}, nil
	}

	if !unicode.IsUpper(r) {
		return nil, fmt.Errorf("expected a constructor or integer at %q", string(p.input[p.pos:]))
	}
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsLetter(p.input[p.pos]) || unicode.IsDigit(p.input[p.pos])) {
		p.pos++
	}
	name := string(p.input[start:p.pos])
	arity, ok := ctorArity[name]
	if !ok {
		return nil, fmt.Errorf("unknown constructor %q", name)
	}
	n := &node{ctor: name}

	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '(' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			n.args = append(n.args, arg)
			p.skipSpace()
			if p.pos >= len(p.input) {
				return nil, fmt.Errorf("missing ')' in %s(...)", name)
			}
			c := p.input[p.pos]
			p.pos++
			if c == ')' {
				break
			}
			if c != ',' {
				return nil, fmt.Errorf("expected ',' or ')' before %q", string(c))
			}
		}
	}

	if len(n.args) != arity {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", name, arity, len(n.args))
	}
	return n, nil
}

// eval builds the expression bottom-up: children are evaluated and rooted
// before the parent block allocates, the same order builders use. Arities
// were checked at parse time, so eval cannot fail.
func eval(gc *mem.GC, s *roots.Scope, n *node) camlgate.Value {
	switch n.ctor {
	case "":
		return camlgate.FromInt(n.num)
	case "Nil":
		return camlgate.FromInt(int(list.NilTag))
	case "None":
		return camlgate.FromInt(int(option.NoneTag))
	}

	children := make([]*roots.Local, len(n.args))
	for i, a := range n.args {
		children[i] = s.Live(eval(gc, s, a))
	}
	if n.ctor == "Cons" {
		return gc.Alloc(uint8(list.ConsTag), children...)
	}
	return gc.Alloc(uint8(option.SomeTag), children...)
}

// renderValue prints a value structurally: immediates as integers, blocks
// as tag plus rendered fields. The inspector carries no type information,
// so constructor names are not reconstructed.
func renderValue(v camlgate.Value, depth int) string {
	if v.IsImmediate() {
		return strconv.Itoa(v.Int())
	}
	if depth <= 0 {
		return fmt.Sprintf("block@%#x", uintptr(v))
	}
	parts := make([]string, v.Size())
	for i := range parts {
		parts[i] = renderValue(v.Field(i), depth-1)
	}
	return fmt.Sprintf("tag%d(%s)", v.Tag(), strings.Join(parts, ", "))
}

// shortValue prints a field for the heap pane: an integer or a block
// offset.
func shortValue(v camlgate.Value) string {
	if v.IsImmediate() {
		return strconv.Itoa(v.Int())
	}
	return fmt.Sprintf("%#x", uintptr(v))
}
