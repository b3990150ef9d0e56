package roots

import (
	"github.com/camlgate/camlgate"
)

// Frame is the fixed-shape record the external collector walks during a
// collection: a link to the next frame, a slot count, and the slot
// addresses. Every Value reachable through a registered frame's slots is
// treated as live and is rewritten in place when the collector relocates
// the block it refers to.
//
// Frames form a strict stack. A frame may only be removed while it is the
// current head; removing a deeper frame corrupts the chain for every frame
// registered after it.
type Frame struct {
	next   *Frame
	nitems uintptr
	slots  [1]*camlgate.Value
}

// Next returns the frame registered immediately before f, or nil at the
// end of the chain.
func (f *Frame) Next() *Frame {
	return f.next
}

// Len returns the number of live slots in f.
func (f *Frame) Len() int {
	return int(f.nitems)
}

// Get reads slot i.
func (f *Frame) Get(i int) camlgate.Value {
	return *f.slots[i]
}

// Set rewrites slot i. Collector adapters call this to install relocated
// values after a collection.
func (f *Frame) Set(i int, v camlgate.Value) {
	*f.slots[i] = v
}

// head is the process-global root-chain head, the one shared variable of
// the collector boundary besides the heap segment itself. Single-threaded
// by contract; see the package documentation.
var head *Frame

// Head returns the current chain head for collector adapters to walk.
func Head() *Frame {
	return head
}

func push(f *Frame) {
	f.next = head
	head = f
}

func pop(f *Frame) {
	if head != f {
		panic("roots: frame released out of order")
	}
	head = f.next
	f.next = nil
}
