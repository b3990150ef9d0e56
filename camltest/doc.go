// Package camltest provides an in-process reference runtime for exercising
// the collector boundary without a real external collector: a bump
// allocator with a semispace copying collector that genuinely moves every
// live block on every cycle.
//
// It exists for tests, examples, and the heap inspector. Collection
// semantics are deliberately hostile in the way the real contract allows:
// with WithMoveEveryAlloc every allocation relocates the entire live heap,
// so any unrooted block reference held across an allocation is stale
// immediately rather than occasionally.
//
//	rt := camltest.New(camltest.WithMoveEveryAlloc())
//	defer rt.Close()
//
//	rt.Session(func(gc *mem.GC) {
//	    v := list.Elems(bindings.OfInt(1), bindings.OfInt(2)).Build(gc)
//	    l := roots.Live(v.Value())
//	    defer l.Release()
//	    // l.Value() tracks the list across every relocation.
//	})
//
// Session verifies root-chain balance on exit, Stats exposes collector
// counters, Blocks and RootValues support inspection, and Snapshot
// round-trips the heap through canonical CBOR for the inspector's save and
// load.
package camltest
