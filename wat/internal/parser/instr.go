package parser

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/camlgate/camlgate/wat/internal/ast"
	"github.com/camlgate/camlgate/wat/internal/token"
)

type immKind int

const (
	immNone immKind = iota
	immIdx
	immI32
	immI64
	immMem
)

type space int

const (
	spaceNone space = iota
	spaceLocal
	spaceGlobal
	spaceFunc
	spaceLabel
)

// instrSpec describes a plain instruction: its opcode, the shape of its
// immediate, the name space a $name immediate resolves in, the natural
// alignment for loads and stores, and how many folded operand groups it
// takes (-1 means any number).
type instrSpec struct {
	op       byte
	imm      immKind
	space    space
	align    uint32
	operands int
}

var instrTable = map[string]instrSpec{
	"unreachable": {op: ast.OpUnreachable},
	"nop":         {op: ast.OpNop},
	"drop":        {op: ast.OpDrop, operands: 1},
	"return":      {op: ast.OpReturn, operands: -1},
	"call":        {op: ast.OpCall, imm: immIdx, space: spaceFunc, operands: -1},
	"br":          {op: ast.OpBr, imm: immIdx, space: spaceLabel},
	"br_if":       {op: ast.OpBrIf, imm: immIdx, space: spaceLabel, operands: 1},

	"local.get":  {op: ast.OpLocalGet, imm: immIdx, space: spaceLocal},
	"local.set":  {op: ast.OpLocalSet, imm: immIdx, space: spaceLocal, operands: 1},
	"local.tee":  {op: ast.OpLocalTee, imm: immIdx, space: spaceLocal, operands: 1},
	"global.get": {op: ast.OpGlobalGet, imm: immIdx, space: spaceGlobal},
	"global.set": {op: ast.OpGlobalSet, imm: immIdx, space: spaceGlobal, operands: 1},

	"i32.load":  {op: ast.OpI32Load, imm: immMem, align: 2, operands: 1},
	"i64.load":  {op: ast.OpI64Load, imm: immMem, align: 3, operands: 1},
	"i32.store": {op: ast.OpI32Store, imm: immMem, align: 2, operands: 2},
	"i64.store": {op: ast.OpI64Store, imm: immMem, align: 3, operands: 2},

	"memory.size": {op: ast.OpMemorySize},
	"memory.grow": {op: ast.OpMemoryGrow, operands: 1},

	"i32.const": {op: ast.OpI32Const, imm: immI32},
	"i64.const": {op: ast.OpI64Const, imm: immI64},

	"i32.eqz":  {op: ast.OpI32Eqz, operands: 1},
	"i32.eq":   {op: ast.OpI32Eq, operands: 2},
	"i32.ne":   {op: ast.OpI32Ne, operands: 2},
	"i32.lt_s": {op: ast.OpI32LtS, operands: 2},
	"i32.lt_u": {op: ast.OpI32LtU, operands: 2},
	"i32.gt_s": {op: ast.OpI32GtS, operands: 2},
	"i32.gt_u": {op: ast.OpI32GtU, operands: 2},
	"i32.le_s": {op: ast.OpI32LeS, operands: 2},
	"i32.le_u": {op: ast.OpI32LeU, operands: 2},
	"i32.ge_s": {op: ast.OpI32GeS, operands: 2},
	"i32.ge_u": {op: ast.OpI32GeU, operands: 2},

	"i64.eqz":  {op: ast.OpI64Eqz, operands: 1},
	"i64.eq":   {op: ast.OpI64Eq, operands: 2},
	"i64.ne":   {op: ast.OpI64Ne, operands: 2},
	"i64.lt_s": {op: ast.OpI64LtS, operands: 2},
	"i64.lt_u": {op: ast.OpI64LtU, operands: 2},
	"i64.gt_s": {op: ast.OpI64GtS, operands: 2},
	"i64.gt_u": {op: ast.OpI64GtU, operands: 2},
	"i64.le_s": {op: ast.OpI64LeS, operands: 2},
	"i64.le_u": {op: ast.OpI64LeU, operands: 2},
	"i64.ge_s": {op: ast.OpI64GeS, operands: 2},
	"i64.ge_u": {op: ast.OpI64GeU, operands: 2},

	"i32.add":   {op: ast.OpI32Add, operands: 2},
	"i32.sub":   {op: ast.OpI32Sub, operands: 2},
	"i32.mul":   {op: ast.OpI32Mul, operands: 2},
	"i32.div_u": {op: ast.OpI32DivU, operands: 2},
	"i32.rem_u": {op: ast.OpI32RemU, operands: 2},
	"i32.and":   {op: ast.OpI32And, operands: 2},
	"i32.or":    {op: ast.OpI32Or, operands: 2},
	"i32.xor":   {op: ast.OpI32Xor, operands: 2},
	"i32.shl":   {op: ast.OpI32Shl, operands: 2},
	"i32.shr_s": {op: ast.OpI32ShrS, operands: 2},
	"i32.shr_u": {op: ast.OpI32ShrU, operands: 2},

	"i64.add":   {op: ast.OpI64Add, operands: 2},
	"i64.sub":   {op: ast.OpI64Sub, operands: 2},
	"i64.mul":   {op: ast.OpI64Mul, operands: 2},
	"i64.div_u": {op: ast.OpI64DivU, operands: 2},
	"i64.rem_u": {op: ast.OpI64RemU, operands: 2},
	"i64.and":   {op: ast.OpI64And, operands: 2},
	"i64.or":    {op: ast.OpI64Or, operands: 2},
	"i64.xor":   {op: ast.OpI64Xor, operands: 2},
	"i64.shl":   {op: ast.OpI64Shl, operands: 2},
	"i64.shr_s": {op: ast.OpI64ShrS, operands: 2},
	"i64.shr_u": {op: ast.OpI64ShrU, operands: 2},

	"i32.wrap_i64":     {op: ast.OpI32WrapI64, operands: 1},
	"i64.extend_i32_s": {op: ast.OpI64ExtendI32S, operands: 1},
	"i64.extend_i32_u": {op: ast.OpI64ExtendI32U, operands: 1},
}

// parseInstrs reads instructions until the enclosing ')'. Folded operand
// groups are emitted before the instruction that consumes them, so nesting
// order in the source becomes stack order in the binary.
func (p *Parser) parseInstrs(localMap map[string]uint32) ([]ast.Instr, error) {
	var instrs []ast.Instr
	for {
		t := p.peek()
		if t == nil || t.Type == token.RParen {
			return instrs, nil
		}
		if t.Type == token.LParen {
			p.next()
			nested, err := p.parseInstrs(localMap)
			if err != nil {
				return nil, err
			}
			instrs = append(instrs, nested...)
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			continue
		}
		if t.Type != token.Ident {
			return nil, fmt.Errorf("line %d: expected instruction, got %q", t.Line, t.Value)
		}
		p.next()

		var seq []ast.Instr
		var err error
		switch t.Value {
		case "block", "loop":
			seq, err = p.parseBlock(t.Value, localMap)
		case "if":
			seq, err = p.parseIf(localMap)
		default:
			spec, ok := instrTable[t.Value]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown instruction %q", t.Line, t.Value)
			}
			seq, err = p.parsePlain(t, spec, localMap)
		}
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, seq...)
	}
}

func (p *Parser) parsePlain(t *token.Token, spec instrSpec, localMap map[string]uint32) ([]ast.Instr, error) {
	in := ast.Instr{Op: spec.op}

	switch spec.imm {
	case immIdx:
		idx, err := p.parseRef(spec.space, localMap)
		if err != nil {
			return nil, err
		}
		in.U32 = idx
	case immI32:
		v, err := p.parseIntImm(t.Value, 32)
		if err != nil {
			return nil, err
		}
		in.I64 = v
	case immI64:
		v, err := p.parseIntImm(t.Value, 64)
		if err != nil {
			return nil, err
		}
		in.I64 = v
	case immMem:
		ma, err := p.parseMemarg(spec.align)
		if err != nil {
			return nil, err
		}
		in.Mem = ma
	}

	ops, err := p.parseOperands(spec.operands, localMap)
	if err != nil {
		return nil, err
	}
	return append(ops, in), nil
}

func (p *Parser) parseRef(sp space, localMap map[string]uint32) (uint32, error) {
	switch sp {
	case spaceLocal:
		return p.parseIdxIn(localMap, "local")
	case spaceGlobal:
		return p.parseIdxIn(p.globalMap, "global")
	case spaceFunc:
		return p.parseIdxIn(p.funcMap, "function")
	case spaceLabel:
		if t := p.peek(); t != nil && t.Type == token.Ident && strings.HasPrefix(t.Value, "$") {
			p.next()
			if depth, ok := p.resolveLabel(t.Value); ok {
				return depth, nil
			}
			return 0, fmt.Errorf("line %d: unknown label %s", t.Line, t.Value)
		}
		return p.parseU32()
	}
	return 0, fmt.Errorf("missing name space for index")
}

func (p *Parser) parseIntImm(instr string, size int) (int64, error) {
	t, err := p.expect(token.Number)
	if err != nil {
		return 0, err
	}
	s := strings.ReplaceAll(t.Value, "_", "")
	if v, err := strconv.ParseInt(s, 0, size); err == nil {
		return v, nil
	}
	u, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, size)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s immediate %q", t.Line, instr, t.Value)
	}
	if size == 32 {
		return int64(int32(uint32(u))), nil
	}
	return int64(u), nil
}

func (p *Parser) parseMemarg(naturalAlign uint32) (ast.Memarg, error) {
	ma := ast.Memarg{Align: naturalAlign}
	for {
		t := p.peek()
		if t == nil || t.Type != token.Ident {
			return ma, nil
		}
		switch {
		case strings.HasPrefix(t.Value, "offset="):
			p.next()
			v, err := parseMemargValue(strings.TrimPrefix(t.Value, "offset="))
			if err != nil {
				return ma, fmt.Errorf("line %d: invalid %q", t.Line, t.Value)
			}
			ma.Offset = v
		case strings.HasPrefix(t.Value, "align="):
			p.next()
			v, err := parseMemargValue(strings.TrimPrefix(t.Value, "align="))
			if err != nil || v == 0 || v&(v-1) != 0 {
				return ma, fmt.Errorf("line %d: invalid %q", t.Line, t.Value)
			}
			ma.Align = uint32(bits.TrailingZeros32(v))
		default:
			return ma, nil
		}
	}
}

func parseMemargValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 32)
	return uint32(v), err
}

// parseOperands hoists folded operand groups. It stops at the first token
// that does not open a group, so flat sequences still parse.
func (p *Parser) parseOperands(count int, localMap map[string]uint32) ([]ast.Instr, error) {
	var ops []ast.Instr
	for i := 0; count < 0 || i < count; i++ {
		t := p.peek()
		if t == nil || t.Type != token.LParen {
			return ops, nil
		}
		p.next()
		nested, err := p.parseInstrs(localMap)
		if err != nil {
			return nil, err
		}
		ops = append(ops, nested...)
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func (p *Parser) parseLabel() string {
	if t := p.peek(); t != nil && t.Type == token.Ident && strings.HasPrefix(t.Value, "$") {
		p.next()
		return t.Value
	}
	return ""
}

// parseBlockType reads an optional (result <valtype>) clause. Blocks with
// parameters or multiple results are not supported.
func (p *Parser) parseBlockType() (byte, error) {
	t := p.peek()
	if t == nil || t.Type != token.LParen {
		return ast.BlockTypeEmpty, nil
	}
	saved := p.pos
	p.next()
	kw := p.peek()
	if kw == nil || kw.Type != token.Ident || kw.Value != "result" {
		p.pos = saved
		return ast.BlockTypeEmpty, nil
	}
	p.next()
	vt, err := p.parseValType()
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return 0, err
	}
	return byte(vt), nil
}

func (p *Parser) parseBlock(kind string, localMap map[string]uint32) ([]ast.Instr, error) {
	op := ast.OpBlock
	if kind == "loop" {
		op = ast.OpLoop
	}
	label := p.parseLabel()
	bt, err := p.parseBlockType()
	if err != nil {
		return nil, err
	}

	instrs := []ast.Instr{{Op: op, Block: bt}}
	p.labels = append(p.labels, label)
	body, err := p.parseInstrs(localMap)
	p.labels = p.labels[:len(p.labels)-1]
	if err != nil {
		return nil, err
	}
	instrs = append(instrs, body...)
	return append(instrs, ast.Instr{Op: ast.OpEnd}), nil
}

// parseIf handles the folded form (if <label>? <blocktype>? <cond>?
// (then ...) (else ...)?).
func (p *Parser) parseIf(localMap map[string]uint32) ([]ast.Instr, error) {
	label := p.parseLabel()
	bt, err := p.parseBlockType()
	if err != nil {
		return nil, err
	}

	var instrs []ast.Instr
	if t := p.peek(); t != nil && t.Type == token.LParen {
		saved := p.pos
		p.next()
		if kw := p.peek(); kw != nil && kw.Type == token.Ident && kw.Value == "then" {
			p.pos = saved
		} else {
			cond, err := p.parseInstrs(localMap)
			if err != nil {
				return nil, err
			}
			instrs = append(instrs, cond...)
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
		}
	}
	instrs = append(instrs, ast.Instr{Op: ast.OpIf, Block: bt})

	p.labels = append(p.labels, label)
	branches, err := p.parseIfBranches(localMap)
	p.labels = p.labels[:len(p.labels)-1]
	if err != nil {
		return nil, err
	}
	instrs = append(instrs, branches...)
	return append(instrs, ast.Instr{Op: ast.OpEnd}), nil
}

func (p *Parser) parseIfBranches(localMap map[string]uint32) ([]ast.Instr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	kw, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if kw.Value != "then" {
		return nil, fmt.Errorf("line %d: expected 'then', got %q", kw.Line, kw.Value)
	}
	instrs, err := p.parseInstrs(localMap)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	t := p.peek()
	if t == nil || t.Type != token.LParen {
		return instrs, nil
	}
	saved := p.pos
	p.next()
	kw2 := p.peek()
	if kw2 == nil || kw2.Type != token.Ident || kw2.Value != "else" {
		p.pos = saved
		return instrs, nil
	}
	p.next()
	elseInstrs, err := p.parseInstrs(localMap)
	if err != nil {
		return nil, err
	}
	instrs = append(instrs, ast.Instr{Op: ast.OpElse})
	instrs = append(instrs, elseInstrs...)
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return instrs, nil
}
