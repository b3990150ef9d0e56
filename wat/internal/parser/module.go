package parser

import (
	"fmt"
	"strings"

	"github.com/camlgate/camlgate/wat/internal/ast"
	"github.com/camlgate/camlgate/wat/internal/token"
)

func (p *Parser) parseModule() error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	kw, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	if kw.Value != "module" {
		return fmt.Errorf("line %d: expected 'module', got %q", kw.Line, kw.Value)
	}

	for {
		t := p.peek()
		if t == nil {
			return fmt.Errorf("unexpected end of input in module")
		}
		if t.Type == token.RParen {
			p.next()
			break
		}
		if t.Type != token.LParen {
			return fmt.Errorf("line %d: expected '(', got %q", t.Line, t.Value)
		}
		p.next()
		field, err := p.expect(token.Ident)
		if err != nil {
			return err
		}
		switch field.Value {
		case "memory":
			err = p.parseMemory()
		case "global":
			err = p.parseGlobal()
		case "func":
			err = p.parseFunc()
		case "export":
			err = p.parseExport()
		default:
			err = fmt.Errorf("line %d: unsupported module field %q", field.Line, field.Value)
		}
		if err != nil {
			return err
		}
	}

	if t := p.peek(); t != nil {
		return fmt.Errorf("line %d: unexpected %q after module", t.Line, t.Value)
	}
	return nil
}

// parseMemory handles (memory $name? (export "nm")* min max?).
func (p *Parser) parseMemory() error {
	if t := p.peek(); t != nil && t.Type == token.Ident && strings.HasPrefix(t.Value, "$") {
		p.next()
	}
	idx := uint32(len(p.mod.Memories))

	for {
		t := p.peek()
		if t == nil {
			return fmt.Errorf("unexpected end of input in memory")
		}
		if t.Type != token.LParen {
			break
		}
		p.next()
		kw, err := p.expect(token.Ident)
		if err != nil {
			return err
		}
		if kw.Value != "export" {
			return fmt.Errorf("line %d: unsupported memory clause %q", kw.Line, kw.Value)
		}
		name, err := p.expect(token.String)
		if err != nil {
			return err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return err
		}
		p.mod.Exports = append(p.mod.Exports, ast.Export{Name: name.Value, Kind: ast.KindMemory, Idx: idx})
	}

	min, err := p.parseU32()
	if err != nil {
		return err
	}
	lim := ast.Limits{Min: min}
	if t := p.peek(); t != nil && t.Type == token.Number {
		max, err := p.parseU32()
		if err != nil {
			return err
		}
		lim.Max = &max
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	p.mod.Memories = append(p.mod.Memories, ast.Memory{Limits: lim})
	return nil
}

// parseGlobal handles (global $name? (export "nm")* <type> <init>) where
// the type is i32, i64, or (mut <type>).
func (p *Parser) parseGlobal() error {
	idx := uint32(len(p.mod.Globals))
	if t := p.peek(); t != nil && t.Type == token.Ident && strings.HasPrefix(t.Value, "$") {
		p.next()
	}

	var g ast.Global
	for typed := false; !typed; {
		t := p.peek()
		if t == nil {
			return fmt.Errorf("unexpected end of input in global")
		}
		switch t.Type {
		case token.Ident:
			vt, err := p.parseValType()
			if err != nil {
				return err
			}
			g.Type = vt
			typed = true
		case token.LParen:
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
				p.mod.Exports = append(p.mod.Exports, ast.Export{Name: name.Value, Kind: ast.KindGlobal, Idx: idx})
			case "mut":
				vt, err := p.parseValType()
				if err != nil {
					return err
				}
				if _, err := p.expect(token.RParen); err != nil {
					return err
				}
				g.Type = vt
				g.Mutable = true
				typed = true
			default:
				return fmt.Errorf("line %d: unsupported global clause %q", kw.Line, kw.Value)
			}
		default:
			return fmt.Errorf("line %d: expected global type, got %q", t.Line, t.Value)
		}
	}

	init, err := p.parseInstrs(nil)
	if err != nil {
		return err
	}
	if len(init) == 0 {
		if t := p.peek(); t != nil {
			return fmt.Errorf("line %d: global requires an init expression", t.Line)
		}
		return fmt.Errorf("unexpected end of input in global")
	}
	g.Init = init
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	p.mod.Globals = append(p.mod.Globals, g)
	return nil
}

// parseExport handles the standalone form (export "name" (func $f)).
func (p *Parser) parseExport() error {
	name, err := p.expect(token.String)
	if err != nil {
		return err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	kw, err := p.expect(token.Ident)
	if err != nil {
		return err
	}

	var kind byte
	var idx uint32
	switch kw.Value {
	case "func":
		kind = ast.KindFunc
		idx, err = p.parseIdxIn(p.funcMap, "function")
	case "memory":
		kind = ast.KindMemory
		idx, err = p.parseIdxIn(nil, "memory")
	case "global":
		kind = ast.KindGlobal
		idx, err = p.parseIdxIn(p.globalMap, "global")
	default:
		err = fmt.Errorf("line %d: unsupported export kind %q", kw.Line, kw.Value)
	}
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return err
	}
	p.mod.Exports = append(p.mod.Exports, ast.Export{Name: name.Value, Kind: kind, Idx: idx})
	return nil
}
