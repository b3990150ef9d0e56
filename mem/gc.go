package mem

import (
	"go.uber.org/zap"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/roots"
)

// GC is the allocation context: the capability to call the external
// runtime's allocation primitive. Every operation that may allocate takes a
// *GC, which serializes allocation-capable code paths to one holder at a
// time. The collector side is not reentrant-safe, so at most one context
// may be live per process.
//
// NewGC carries that precondition; entry-point wrappers (extern) and
// runtime sessions (camltest) are the sanctioned in-tree constructors, and
// embedders taking over that role inherit the contract. GC must not be
// copied and must not be shared across goroutines.
type GC struct {
	noCopy noCopy
	rt     camlgate.Runtime
}

// NewGC wraps the foreign runtime boundary in an allocation context. The
// caller asserts that no other context is live in this process.
func NewGC(rt camlgate.Runtime) *GC {
	return &GC{rt: rt}
}

// Runtime exposes the foreign boundary the context allocates against.
func (gc *GC) Runtime() camlgate.Runtime {
	return gc.rt
}

// Alloc allocates a block tagged tag whose fields come from the given
// rooted handles, in handle order.
//
// The foreign allocation may collect and relocate the children; each
// child's slot is read after the allocation returns, so the field values
// stored are the children's current locations. This is the sanctioned path
// for building compound values.
func (gc *GC) Alloc(tag uint8, children ...*roots.Local) camlgate.Value {
	block := gc.rt.AllocBlock(len(children), tag)
	for i, c := range children {
		v := c.Value()
		Logger().Debug("modify",
			zap.Uintptr("block", uintptr(block)),
			zap.Int("field", i),
			zap.Uintptr("value", uintptr(v)))
		gc.rt.SetField(block, i, v)
	}
	return block
}

// RawAlloc is the bare allocation primitive: request a block of len(fields)
// words tagged tag, then populate each field through the runtime's write
// barrier.
//
// fields are plain Values captured before the allocation runs. The
// allocation may collect, and a collection invalidates every block
// reference not reachable from a registered root, including copies held in
// fields. Callers must guarantee each field either is an immediate or
// cannot be invalidated by this allocation. Alloc is the safe form.
func (gc *GC) RawAlloc(tag uint8, fields []camlgate.Value) camlgate.Value {
	block := gc.rt.AllocBlock(len(fields), tag)
	for i, v := range fields {
		Logger().Debug("modify",
			zap.Uintptr("block", uintptr(block)),
			zap.Int("field", i),
			zap.Uintptr("value", uintptr(v)))
		gc.rt.SetField(block, i, v)
	}
	return block
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
