// Package parser turns a token stream into an ast.Module.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/camlgate/camlgate/wat/internal/ast"
	"github.com/camlgate/camlgate/wat/internal/token"
)

// Parser builds a module tree from a token stream. Function and global
// names are collected in a scan pass before parsing, so a body may call
// a function defined later in the source.
type Parser struct {
	mod       *ast.Module
	funcMap   map[string]uint32
	globalMap map[string]uint32
	tokens    []token.Token
	labels    []string
	pos       int
}

func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens:    tokens,
		funcMap:   make(map[string]uint32),
		globalMap: make(map[string]uint32),
	}
}

func (p *Parser) Parse() (*ast.Module, error) {
	p.mod = &ast.Module{}
	if err := p.scanNames(); err != nil {
		return nil, err
	}
	if err := p.parseModule(); err != nil {
		return nil, err
	}
	return p.mod, nil
}

// scanNames records $names of module-level funcs and globals together with
// their declaration-order indices.
func (p *Parser) scanNames() error {
	depth := 0
	var funcIdx, globalIdx uint32
	for i, t := range p.tokens {
		switch t.Type {
		case token.LParen:
			depth++
			if depth != 2 || i+1 >= len(p.tokens) || p.tokens[i+1].Type != token.Ident {
				continue
			}
			var names map[string]uint32
			var idx *uint32
			switch p.tokens[i+1].Value {
			case "func":
				names, idx = p.funcMap, &funcIdx
			case "global":
				names, idx = p.globalMap, &globalIdx
			default:
				continue
			}
			if i+2 < len(p.tokens) && p.tokens[i+2].Type == token.Ident && strings.HasPrefix(p.tokens[i+2].Value, "$") {
				name := p.tokens[i+2].Value
				if _, dup := names[name]; dup {
					return fmt.Errorf("line %d: duplicate name %s", p.tokens[i+2].Line, name)
				}
				names[name] = *idx
			}
			*idx++
		case token.RParen:
			depth--
		}
	}
	return nil
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected %v", typ)
	}
	if t.Type != typ {
		return nil, fmt.Errorf("line %d: expected %v, got %q", t.Line, typ, t.Value)
	}
	return t, nil
}

func (p *Parser) parseValType() (ast.ValType, error) {
	t, err := p.expect(token.Ident)
	if err != nil {
		return 0, err
	}
	switch t.Value {
	case "i32":
		return ast.ValTypeI32, nil
	case "i64":
		return ast.ValTypeI64, nil
	}
	return 0, fmt.Errorf("line %d: unknown value type %q", t.Line, t.Value)
}

func (p *Parser) parseU32() (uint32, error) {
	t, err := p.expect(token.Number)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(t.Value, "_", ""), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid number %q", t.Line, t.Value)
	}
	return uint32(v), nil
}

// parseIdxIn reads a numeric index or a $name resolved through names.
func (p *Parser) parseIdxIn(names map[string]uint32, what string) (uint32, error) {
	t := p.peek()
	if t == nil {
		return 0, fmt.Errorf("unexpected end of input, expected %s index", what)
	}
	if t.Type == token.Ident && strings.HasPrefix(t.Value, "$") {
		p.next()
		if idx, ok := names[t.Value]; ok {
			return idx, nil
		}
		return 0, fmt.Errorf("line %d: unknown %s %s", t.Line, what, t.Value)
	}
	return p.parseU32()
}

// resolveLabel returns the branch depth of the innermost enclosing block
// carrying the given label name.
func (p *Parser) resolveLabel(name string) (uint32, bool) {
	for i := len(p.labels) - 1; i >= 0; i-- {
		if p.labels[i] == name {
			return uint32(len(p.labels) - 1 - i), true
		}
	}
	return 0, false
}

func (p *Parser) findOrAddType(ft ast.FuncType) uint32 {
	for i, t := range p.mod.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	p.mod.Types = append(p.mod.Types, ft)
	return uint32(len(p.mod.Types) - 1)
}
