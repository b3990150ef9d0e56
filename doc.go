// Package camlgate lets Go code construct, inspect, and exchange values
// with an external Caml-style managed runtime whose heap is governed by a
// precise, moving garbage collector.
//
// The collector can relocate or reclaim any heap object whenever it
// performs an allocation, and it discovers live objects only by walking a
// registered chain of root locations; it cannot scan Go stacks. camlgate
// exists to make holding references into that heap safe: values are rooted
// before any allocation can invalidate them, field writes go through the
// collector's write barrier, and decoding never copies.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	camlgate/            Root package: tagged Value encoding, block layout,
//	                     and the Runtime boundary interface
//	├── roots/           Root-frame chain and the rooted handle lifecycle
//	├── mem/             Allocation context, allocation primitive, and the
//	                     Builder protocol
//	├── match/           Shallow zero-copy decoding of heap values
//	├── bindings/        Standard type bindings (int, bool, unit)
//	│   ├── list/        List constructors and matcher declarations
//	│   └── option/      Option constructors and matcher declarations
//	├── extern/          Externally-callable entry-point wrappers
//	├── camltest/        In-process reference runtime with a moving
//	                     collector, for tests and tooling
//	├── engine/          wazero-hosted collector adapter
//	├── wat/             WebAssembly text to binary compiler for collector
//	│                    guest modules
//	├── gen/             Variant-declaration parser and bindings generator
//	└── errors/          Structured error types for the generator and engine
//
// # Quick Start
//
// Build a list, then take it apart:
//
//	rt := camltest.New()
//	defer rt.Close()
//
//	rt.Session(func(gc *mem.GC) {
//	    s := roots.NewScope()
//	    defer s.Close()
//
//	    l := mem.Rooted(gc, s, list.Elems(bindings.OfInt(1), bindings.OfInt(2)))
//
//	    for m := list.Match(l.Value()); m.Kind() == match.KindBlock; {
//	        _, cell := m.Block()
//	        fmt.Println(cell.Head.Int())
//	        m = list.Match(cell.Tail)
//	    }
//	})
//
// # Safety Model
//
// A Value not reachable from a registered root is invalidated by the next
// allocation. The sanctioned surface enforces the discipline that prevents
// this: Builders root every child before allocating the parent, entry-point
// wrappers root every raw argument before running host code, and rooted
// handles release in strict reverse order of registration.
//
// # Thread Safety
//
// The core is single-threaded by contract. The external collector is not
// reentrant-safe, so at most one allocation context is live per process and
// every allocating call path threads it explicitly.
package camlgate
