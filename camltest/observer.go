package camltest

import (
	"github.com/camlgate/camlgate"
)

// EventKind identifies a heap event.
type EventKind uint8

const (
	// EventAlloc fires after a block is carved.
	EventAlloc EventKind = iota
	// EventCollect fires after a collection cycle completes.
	EventCollect
)

// Event describes one heap event. Alloc events carry Block, Size, and Tag;
// collect events carry Live and Copied.
type Event struct {
	Kind   EventKind
	Block  camlgate.Value
	Size   int
	Tag    uint8
	Live   int
	Copied int
}

// Observer receives heap events as they happen. Observers run synchronously
// on the allocating goroutine and must not allocate against the runtime.
type Observer interface {
	OnHeapEvent(Event)
}
