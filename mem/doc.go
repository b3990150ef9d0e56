// Package mem provides the allocation side of the collector boundary: the
// GC allocation context, the block allocation primitive, and the Builder
// protocol for constructing compound heap values without ever holding an
// unrooted block reference across an allocation.
//
// The central hazard this package exists to prevent: the external
// collector may run on any allocation and relocates every block not
// reachable from a registered root. A compound value must therefore root
// each child before the parent allocation happens. Builders encode that
// ordering once, in Rooted and (*GC).Alloc, so consumers describe structure
// and never sequence roots by hand:
//
//	func (b pairBuilder) Build(gc *mem.GC) mem.Ref[Pair] {
//	    s := roots.NewScope()
//	    defer s.Close()
//	    fst := mem.Rooted(gc, s, b.fst)
//	    snd := mem.Rooted(gc, s, b.snd)
//	    return mem.AsRef[Pair](gc.Alloc(pairTag, fst, snd))
//	}
package mem
