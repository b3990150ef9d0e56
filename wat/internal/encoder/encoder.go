// Package encoder serializes a parsed module into the WASM binary format.
package encoder

import "github.com/camlgate/camlgate/wat/internal/ast"

var magic = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// Encode produces the binary form of mod. Sections are emitted in ID order
// and empty sections are omitted.
func Encode(mod *ast.Module) []byte {
	var out Buffer
	out.WriteBytes(magic)

	if len(mod.Types) > 0 {
		writeSection(&out, ast.SectionType, encodeTypes(mod.Types))
	}
	if len(mod.Funcs) > 0 {
		writeSection(&out, ast.SectionFunc, encodeFuncDecls(mod.Funcs))
	}
	if len(mod.Memories) > 0 {
		writeSection(&out, ast.SectionMemory, encodeMemories(mod.Memories))
	}
	if len(mod.Globals) > 0 {
		writeSection(&out, ast.SectionGlobal, encodeGlobals(mod.Globals))
	}
	if len(mod.Exports) > 0 {
		writeSection(&out, ast.SectionExport, encodeExports(mod.Exports))
	}
	if len(mod.Funcs) > 0 {
		writeSection(&out, ast.SectionCode, encodeCode(mod.Funcs))
	}

	return out.Bytes
}

func writeSection(out *Buffer, id byte, payload []byte) {
	out.AppendByte(id)
	out.WriteU32(uint32(len(payload)))
	out.WriteBytes(payload)
}

func encodeTypes(types []ast.FuncType) []byte {
	var buf Buffer
	buf.WriteU32(uint32(len(types)))
	for _, ft := range types {
		buf.AppendByte(ast.FuncTypeMarker)
		buf.WriteU32(uint32(len(ft.Params)))
		for _, p := range ft.Params {
			buf.AppendByte(byte(p))
		}
		buf.WriteU32(uint32(len(ft.Results)))
		for _, r := range ft.Results {
			buf.AppendByte(byte(r))
		}
	}
	return buf.Bytes
}

func encodeFuncDecls(funcs []ast.Func) []byte {
	var buf Buffer
	buf.WriteU32(uint32(len(funcs)))
	for _, f := range funcs {
		buf.WriteU32(f.TypeIdx)
	}
	return buf.Bytes
}

func encodeMemories(mems []ast.Memory) []byte {
	var buf Buffer
	buf.WriteU32(uint32(len(mems)))
	for _, m := range mems {
		buf.WriteLimits(m.Limits)
	}
	return buf.Bytes
}

func encodeGlobals(globals []ast.Global) []byte {
	var buf Buffer
	buf.WriteU32(uint32(len(globals)))
	for _, g := range globals {
		buf.AppendByte(byte(g.Type))
		if g.Mutable {
			buf.AppendByte(0x01)
		} else {
			buf.AppendByte(0x00)
		}
		for _, in := range g.Init {
			encodeInstr(&buf, in)
		}
		buf.AppendByte(ast.OpEnd)
	}
	return buf.Bytes
}

func encodeExports(exports []ast.Export) []byte {
	var buf Buffer
	buf.WriteU32(uint32(len(exports)))
	for _, e := range exports {
		buf.WriteString(e.Name)
		buf.AppendByte(e.Kind)
		buf.WriteU32(e.Idx)
	}
	return buf.Bytes
}

func encodeCode(funcs []ast.Func) []byte {
	var buf Buffer
	buf.WriteU32(uint32(len(funcs)))
	for _, f := range funcs {
		body := encodeBody(f)
		buf.WriteU32(uint32(len(body)))
		buf.WriteBytes(body)
	}
	return buf.Bytes
}

// encodeBody writes the local declarations, grouped by runs of the same
// type, followed by the instructions and the end marker.
func encodeBody(f ast.Func) []byte {
	var buf Buffer

	type group struct {
		typ   ast.ValType
		count uint32
	}
	var groups []group
	for _, l := range f.Locals {
		if n := len(groups); n > 0 && groups[n-1].typ == l {
			groups[n-1].count++
			continue
		}
		groups = append(groups, group{typ: l, count: 1})
	}

	buf.WriteU32(uint32(len(groups)))
	for _, g := range groups {
		buf.WriteU32(g.count)
		buf.AppendByte(byte(g.typ))
	}

	for _, in := range f.Body {
		encodeInstr(&buf, in)
	}
	buf.AppendByte(ast.OpEnd)
	return buf.Bytes
}

func encodeInstr(buf *Buffer, in ast.Instr) {
	buf.AppendByte(in.Op)
	switch in.Op {
	case ast.OpBlock, ast.OpLoop, ast.OpIf:
		buf.AppendByte(in.Block)
	case ast.OpBr, ast.OpBrIf, ast.OpCall,
		ast.OpLocalGet, ast.OpLocalSet, ast.OpLocalTee,
		ast.OpGlobalGet, ast.OpGlobalSet:
		buf.WriteU32(in.U32)
	case ast.OpI32Const:
		buf.WriteI32(int32(in.I64))
	case ast.OpI64Const:
		buf.WriteI64(in.I64)
	case ast.OpI32Load, ast.OpI64Load, ast.OpI32Store, ast.OpI64Store:
		buf.WriteU32(in.Mem.Align)
		buf.WriteU32(in.Mem.Offset)
	case ast.OpMemorySize, ast.OpMemoryGrow:
		buf.AppendByte(0x00)
	}
}
