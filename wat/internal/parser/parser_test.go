package parser

import (
	"strings"
	"testing"

	"github.com/camlgate/camlgate/wat/internal/ast"
	"github.com/camlgate/camlgate/wat/internal/token"
)

func parse(t *testing.T, source string) *ast.Module {
	t.Helper()
	mod, err := New(token.Tokenize(source)).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return mod
}

func ops(body []ast.Instr) []byte {
	out := make([]byte, len(body))
	for i, in := range body {
		out[i] = in.Op
	}
	return out
}

func TestParseMemory(t *testing.T) {
	mod := parse(t, `(module (memory (export "memory") 2 16))`)
	if len(mod.Memories) != 1 {
		t.Fatalf("got %d memories", len(mod.Memories))
	}
	lim := mod.Memories[0].Limits
	if lim.Min != 2 || lim.Max == nil || *lim.Max != 16 {
		t.Errorf("limits = %+v", lim)
	}
	if len(mod.Exports) != 1 || mod.Exports[0].Kind != ast.KindMemory || mod.Exports[0].Name != "memory" {
		t.Errorf("exports = %+v", mod.Exports)
	}
}

func TestParseGlobal(t *testing.T) {
	mod := parse(t, `(module
		(global $next (mut i32) (i32.const 1024))
		(global (export "base") i64 (i64.const -1)))`)
	if len(mod.Globals) != 2 {
		t.Fatalf("got %d globals", len(mod.Globals))
	}

	g := mod.Globals[0]
	if !g.Mutable || g.Type != ast.ValTypeI32 {
		t.Errorf("global 0 = %+v", g)
	}
	if len(g.Init) != 1 || g.Init[0].Op != ast.OpI32Const || g.Init[0].I64 != 1024 {
		t.Errorf("global 0 init = %+v", g.Init)
	}

	g = mod.Globals[1]
	if g.Mutable || g.Type != ast.ValTypeI64 || g.Init[0].I64 != -1 {
		t.Errorf("global 1 = %+v", g)
	}
	if len(mod.Exports) != 1 || mod.Exports[0].Kind != ast.KindGlobal || mod.Exports[0].Idx != 1 {
		t.Errorf("exports = %+v", mod.Exports)
	}
}

func TestParseFuncTypes(t *testing.T) {
	mod := parse(t, `(module
		(func $a (param i32 i32) (result i64) (i64.const 0))
		(func $b (param $x i32) (param $y i32) (result i64) (i64.const 1))
		(func $c (param i64)))`)
	if len(mod.Types) != 2 {
		t.Fatalf("got %d types, want deduplicated 2", len(mod.Types))
	}
	if mod.Funcs[0].TypeIdx != mod.Funcs[1].TypeIdx {
		t.Errorf("same signature mapped to types %d and %d", mod.Funcs[0].TypeIdx, mod.Funcs[1].TypeIdx)
	}
	if mod.Funcs[2].TypeIdx == mod.Funcs[0].TypeIdx {
		t.Error("distinct signature shares a type index")
	}
}

func TestParseNamedSlots(t *testing.T) {
	mod := parse(t, `(module
		(func (param $a i32) (param $b i64) (local $tmp i32)
			(drop (local.get $tmp))
			(drop (local.get $b))
			(drop (local.get 0))))`)
	body := mod.Funcs[0].Body
	// Local indices continue after params: $a=0, $b=1, $tmp=2.
	var gets []uint32
	for _, in := range body {
		if in.Op == ast.OpLocalGet {
			gets = append(gets, in.U32)
		}
	}
	if len(gets) != 3 || gets[0] != 2 || gets[1] != 1 || gets[2] != 0 {
		t.Errorf("local.get indices = %v, want [2 1 0]", gets)
	}
	if got := len(mod.Funcs[0].Locals); got != 1 {
		t.Errorf("locals = %d, want 1", got)
	}
}

func TestParseFoldedOrdering(t *testing.T) {
	mod := parse(t, `(module (func (result i32)
		(i32.add (i32.const 1) (i32.mul (i32.const 2) (i32.const 3)))))`)
	want := []byte{
		ast.OpI32Const,
		ast.OpI32Const,
		ast.OpI32Const,
		ast.OpI32Mul,
		ast.OpI32Add,
	}
	got := ops(mod.Funcs[0].Body)
	if string(got) != string(want) {
		t.Errorf("body ops = % x, want % x", got, want)
	}
}

func TestParseBlockLabels(t *testing.T) {
	mod := parse(t, `(module (func
		(block $outer
			(loop $inner
				(br_if $outer (i32.const 1))
				(br $inner)))))`)
	body := mod.Funcs[0].Body
	want := []byte{
		ast.OpBlock,
		ast.OpLoop,
		ast.OpI32Const,
		ast.OpBrIf,
		ast.OpBr,
		ast.OpEnd,
		ast.OpEnd,
	}
	if got := ops(body); string(got) != string(want) {
		t.Fatalf("body ops = % x, want % x", got, want)
	}
	if body[3].U32 != 1 {
		t.Errorf("br_if $outer depth = %d, want 1", body[3].U32)
	}
	if body[4].U32 != 0 {
		t.Errorf("br $inner depth = %d, want 0", body[4].U32)
	}
}

func TestParseIf(t *testing.T) {
	mod := parse(t, `(module (func (param i32) (result i64)
		(if (result i64) (local.get 0)
			(then (i64.const 1))
			(else (i64.const 2)))))`)
	body := mod.Funcs[0].Body
	want := []byte{
		ast.OpLocalGet,
		ast.OpIf,
		ast.OpI64Const,
		ast.OpElse,
		ast.OpI64Const,
		ast.OpEnd,
	}
	if got := ops(body); string(got) != string(want) {
		t.Fatalf("body ops = % x, want % x", got, want)
	}
	if body[1].Block != byte(ast.ValTypeI64) {
		t.Errorf("if block type = %#x, want i64", body[1].Block)
	}
}

func TestParseMemarg(t *testing.T) {
	mod := parse(t, `(module (func (param i32)
		(i64.store offset=8 (local.get 0) (i64.const 0))
		(i64.store (local.get 0) (i64.const 0))
		(drop (i32.load offset=4 align=2 (local.get 0)))))`)
	var margs []ast.Memarg
	for _, in := range mod.Funcs[0].Body {
		if in.Op == ast.OpI64Store || in.Op == ast.OpI32Load {
			margs = append(margs, in.Mem)
		}
	}
	if len(margs) != 3 {
		t.Fatalf("got %d memory instructions", len(margs))
	}
	if margs[0] != (ast.Memarg{Align: 3, Offset: 8}) {
		t.Errorf("store with offset = %+v", margs[0])
	}
	if margs[1] != (ast.Memarg{Align: 3}) {
		t.Errorf("store with defaults = %+v", margs[1])
	}
	if margs[2] != (ast.Memarg{Align: 1, Offset: 4}) {
		t.Errorf("load with align=2 = %+v", margs[2])
	}
}

func TestParseForwardCall(t *testing.T) {
	mod := parse(t, `(module
		(func $first (call $second))
		(func $second))`)
	body := mod.Funcs[0].Body
	if len(body) != 1 || body[0].Op != ast.OpCall || body[0].U32 != 1 {
		t.Errorf("body = %+v, want call 1", body)
	}
}

func TestParseStandaloneExport(t *testing.T) {
	mod := parse(t, `(module
		(global $g (mut i64) (i64.const 0))
		(func $f)
		(export "run" (func $f))
		(export "state" (global $g)))`)
	if len(mod.Exports) != 2 {
		t.Fatalf("got %d exports", len(mod.Exports))
	}
	if mod.Exports[0].Kind != ast.KindFunc || mod.Exports[0].Idx != 0 || mod.Exports[0].Name != "run" {
		t.Errorf("export 0 = %+v", mod.Exports[0])
	}
	if mod.Exports[1].Kind != ast.KindGlobal || mod.Exports[1].Idx != 0 {
		t.Errorf("export 1 = %+v", mod.Exports[1])
	}
}

func TestParseIntImmediates(t *testing.T) {
	mod := parse(t, `(module (func
		(drop (i32.const -1))
		(drop (i32.const 0xFFFF_FFFF))
		(drop (i64.const 0x7FFF_FFFF_FFFF_FFFF))))`)
	var consts []int64
	for _, in := range mod.Funcs[0].Body {
		if in.Op == ast.OpI32Const || in.Op == ast.OpI64Const {
			consts = append(consts, in.I64)
		}
	}
	if len(consts) != 3 || consts[0] != -1 || consts[1] != -1 || consts[2] != 0x7FFFFFFFFFFFFFFF {
		t.Errorf("consts = %v", consts)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, source, wantErr string
	}{
		{"duplicate_global_name", "(module (global $g i32 (i32.const 0)) (global $g i32 (i32.const 0)))", "duplicate name"},
		{"duplicate_local_name", "(module (func (param $x i32) (local $x i32)))", "duplicate local name"},
		{"mut_without_paren", "(module (global mut i32 (i32.const 0)))", "unknown value type"},
		{"bad_global_clause", `(module (global (import "a" "b") i32))`, "unsupported global clause"},
		{"label_out_of_scope", "(module (func (block $l) (br $l)))", "unknown label"},
		{"if_requires_then", "(module (func (if (i32.const 1) (i32.const 2))))", "expected 'then'"},
		{"number_overflow", "(module (func (drop (i32.const 0x1_FFFF_FFFF))))", "invalid i32.const"},
		{"memory_clause", "(module (memory (data) 1))", "unsupported memory clause"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(token.Tokenize(tt.source)).Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}
