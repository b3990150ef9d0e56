// Package wat compiles a subset of the WebAssembly text format to binary.
//
// Collector modules used in tests are written as WAT text; this package
// turns them into bytes the engine can load, without shelling out to an
// external assembler.
//
// Basic usage:
//
//	wasm, err := wat.Compile(`(module
//		(memory (export "memory") 1)
//		(func (export "peek") (param i32) (result i64)
//			(i64.load (local.get 0)))
//	)`)
//
// Supported features:
//   - Functions with named or indexed params, results, and locals
//   - Inline and standalone exports of funcs, memories, and globals
//   - Memory declarations with min and max page limits
//   - Mutable and immutable i32/i64 globals with const initializers
//   - Folded control flow: block, loop, if/then/else, br, br_if, return
//   - call with forward references
//   - unreachable, nop, drop, and local.tee
//   - i32/i64 constants, arithmetic, comparisons, bitwise ops, shifts
//   - i32.wrap_i64 and i64.extend_i32_s/_u conversions
//   - i32/i64 load and store with offset= and align=
//   - memory.size and memory.grow
//   - Comments: line (;;) and block (; ;)
//
// Not supported: floats, tables, imports, data and elem segments, flat
// (unparenthesized) block syntax, multi-value blocks, SIMD, and everything
// else outside the list above.
package wat
