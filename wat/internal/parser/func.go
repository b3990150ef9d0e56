package parser

import (
	"fmt"
	"strings"

	"github.com/camlgate/camlgate/wat/internal/ast"
	"github.com/camlgate/camlgate/wat/internal/token"
)

// parseFunc handles (func $name? (export "nm")* (param ...)* (result ...)*
// (local ...)* body). A named param or local declares exactly one slot; an
// anonymous clause may declare several.
func (p *Parser) parseFunc() error {
	fnIdx := uint32(len(p.mod.Funcs))
	if t := p.peek(); t != nil && t.Type == token.Ident && strings.HasPrefix(t.Value, "$") {
		p.next()
	}

	localMap := make(map[string]uint32)
	var ft ast.FuncType
	var fn ast.Func
	var slots uint32

header:
	for {
		t := p.peek()
		if t == nil {
			return fmt.Errorf("unexpected end of input in func")
		}
		if t.Type != token.LParen {
			break
		}
		saved := p.pos
		p.next()
		kw, err := p.expect(token.Ident)
		if err != nil {
			return err
		}
		switch kw.Value {
		case "export":
			name, err := p.expect(token.String)
			if err != nil {
				return err
			}
			if _, err := p.expect(token.RParen); err != nil {
				return err
			}
			p.mod.Exports = append(p.mod.Exports, ast.Export{Name: name.Value, Kind: ast.KindFunc, Idx: fnIdx})

		case "param":
			if err := p.parseSlots(&ft.Params, localMap, &slots); err != nil {
				return err
			}

		case "result":
			for {
				t := p.peek()
				if t == nil {
					return fmt.Errorf("unexpected end of input in result")
				}
				if t.Type == token.RParen {
					p.next()
					break
				}
				vt, err := p.parseValType()
				if err != nil {
					return err
				}
				ft.Results = append(ft.Results, vt)
			}

		case "local":
			if err := p.parseSlots(&fn.Locals, localMap, &slots); err != nil {
				return err
			}

		default:
			// Start of the body, a folded instruction.
			p.pos = saved
			break header
		}
	}

	body, err := p.parseInstrs(localMap)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}

	fn.Body = body
	fn.TypeIdx = p.findOrAddType(ft)
	p.mod.Funcs = append(p.mod.Funcs, fn)
	return nil
}

// parseSlots reads the tail of a param or local clause into types,
// registering a $name for the slot when one is given.
func (p *Parser) parseSlots(types *[]ast.ValType, localMap map[string]uint32, slots *uint32) error {
	if t := p.peek(); t != nil && t.Type == token.Ident && strings.HasPrefix(t.Value, "$") {
		p.next()
		vt, err := p.parseValType()
		if err != nil {
			return err
		}
		if _, dup := localMap[t.Value]; dup {
			return fmt.Errorf("line %d: duplicate local name %s", t.Line, t.Value)
		}
		localMap[t.Value] = *slots
		*types = append(*types, vt)
		*slots++
		_, err = p.expect(token.RParen)
		return err
	}
	for {
		t := p.peek()
		if t == nil {
			return fmt.Errorf("unexpected end of input in param or local")
		}
		if t.Type == token.RParen {
			p.next()
			return nil
		}
		vt, err := p.parseValType()
		if err != nil {
			return err
		}
		*types = append(*types, vt)
		*slots++
	}
}
