package camltest

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
)

const defaultHeapWords = 4096

// Runtime is the reference collector: a bump allocator over a single
// segment with a semispace copying collector. Every allocation may collect;
// a collection copies exactly the blocks reachable from the registered root
// chain into a fresh segment and rewrites the root slots, which is the
// relocation behavior the rest of the library is built to survive.
//
// Runtime implements camlgate.Runtime. Only one may be active per process
// because the heap segment window is process-global.
type Runtime struct {
	seg       []uintptr
	next      int // word index of the next block header
	heapWords int
	moveEvery bool
	observers []Observer
	stats     Stats
	closed    bool
}

var _ camlgate.Runtime = (*Runtime)(nil)

// Stats counts collector activity since New.
type Stats struct {
	Allocations int
	Collections int
	LiveBlocks  int // blocks surviving the most recent collection
	CopiedWords int // cumulative words copied by collections
	HeapWords   int
	Grows       int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHeapWords sets the initial segment size in words. Small heaps force
// frequent collections.
func WithHeapWords(n int) Option {
	return func(r *Runtime) {
		if n < 16 {
			n = 16
		}
		r.heapWords = n
	}
}

// WithMoveEveryAlloc makes every allocation run a full collection first, so
// every live block relocates on every allocation. This is the hazard
// amplifier: any unrooted block reference held across an allocation is
// guaranteed stale.
func WithMoveEveryAlloc() Option {
	return func(r *Runtime) {
		r.moveEvery = true
	}
}

// WithObserver registers an observer for allocation and collection events.
func WithObserver(o Observer) Option {
	return func(r *Runtime) {
		r.observers = append(r.observers, o)
	}
}

var active *Runtime

// New creates the runtime and registers its heap segment as the process's
// active segment. Close releases it.
func New(opts ...Option) *Runtime {
	if active != nil {
		panic("camltest: another runtime is active in this process")
	}
	r := &Runtime{heapWords: defaultHeapWords}
	for _, opt := range opts {
		opt(r)
	}
	r.seg = make([]uintptr, r.heapWords)
	r.next = 1
	active = r
	r.register()
	Logger().Debug("runtime ready",
		zap.Int("heap_words", len(r.seg)),
		zap.Bool("move_every_alloc", r.moveEvery))
	return r
}

// Close deactivates the runtime and drops the segment window. Values and
// handles referring into the heap are dead after Close.
func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if active == r {
		active = nil
		camlgate.SetSegment(nil, 0)
	}
	r.seg = nil
}

func (r *Runtime) register() {
	camlgate.SetSegment(unsafe.Pointer(&r.seg[0]), uintptr(len(r.seg))*camlgate.WordSize)
}

// AllocBlock carves a block of size fields tagged tag, collecting first
// when the segment is full or when WithMoveEveryAlloc is set. Fields start
// as the immediate 0.
func (r *Runtime) AllocBlock(size int, tag uint8) camlgate.Value {
	if size < 0 {
		panic("camltest: negative block size")
	}
	need := size + 1
	if r.moveEvery || r.next+need > len(r.seg) {
		r.collect(need)
	}
	hdr := r.next
	r.seg[hdr] = camlgate.BlockHeader(size, tag)
	for i := 1; i <= size; i++ {
		r.seg[hdr+i] = uintptr(camlgate.FromInt(0))
	}
	r.next = hdr + need

	v := camlgate.Value(uintptr(hdr+1) * camlgate.WordSize)
	r.stats.Allocations++
	r.emit(Event{Kind: EventAlloc, Block: v, Size: size, Tag: tag})
	return v
}

// SetField is the write barrier. The reference collector is not
// generational, so the barrier reduces to the store itself; it still is the
// only sanctioned way to write a field.
func (r *Runtime) SetField(block camlgate.Value, index int, v camlgate.Value) {
	wi := int(uintptr(block) / camlgate.WordSize)
	r.seg[wi+index] = uintptr(v)
}

// Collect forces a full collection cycle.
func (r *Runtime) Collect() {
	r.collect(0)
}

// collect copies every block reachable from the root chain into a fresh
// segment with at least need words of headroom, rewrites the root slots,
// and re-registers the segment window. Cheney's algorithm: evacuate the
// roots, then scan the copied blocks, evacuating whatever their fields
// refer to.
func (r *Runtime) collect(need int) {
	newCap := len(r.seg)
	for newCap < r.next+need {
		newCap *= 2
	}
	to := make([]uintptr, newCap)
	next := 1
	fwd := make(map[camlgate.Value]camlgate.Value)

	evac := func(v camlgate.Value) camlgate.Value {
		if v == 0 || v.IsImmediate() {
			return v
		}
		if nv, ok := fwd[v]; ok {
			return nv
		}
		wi := int(uintptr(v) / camlgate.WordSize)
		hdr := r.seg[wi-1]
		size := camlgate.HeaderSize(hdr)
		to[next] = hdr
		copy(to[next+1:next+1+size], r.seg[wi:wi+size])
		nv := camlgate.Value(uintptr(next+1) * camlgate.WordSize)
		fwd[v] = nv
		next += size + 1
		return nv
	}

	for f := roots.Head(); f != nil; f = f.Next() {
		for i := 0; i < f.Len(); i++ {
			f.Set(i, evac(f.Get(i)))
		}
	}
	for scan := 1; scan < next; {
		hdr := to[scan]
		size := camlgate.HeaderSize(hdr)
		for i := 0; i < size; i++ {
			to[scan+1+i] = uintptr(evac(camlgate.Value(to[scan+1+i])))
		}
		scan += size + 1
	}

	copied := next - 1
	grew := newCap > len(r.seg)
	r.seg = to
	r.next = next
	r.register()

	r.stats.Collections++
	r.stats.LiveBlocks = len(fwd)
	r.stats.CopiedWords += copied
	if grew {
		r.stats.Grows++
	}
	Logger().Debug("collect",
		zap.Int("live_blocks", len(fwd)),
		zap.Int("copied_words", copied),
		zap.Int("heap_words", newCap))
	r.emit(Event{Kind: EventCollect, Live: len(fwd), Copied: copied})
}

// Stats returns collector counters.
func (r *Runtime) Stats() Stats {
	s := r.stats
	s.HeapWords = len(r.seg)
	return s
}

// Session runs fn with an allocation context for this runtime and checks
// that fn left the root chain exactly as it found it.
func (r *Runtime) Session(fn func(gc *mem.GC)) {
	before := roots.Head()
	fn(mem.NewGC(r))
	if roots.Head() != before {
		panic("camltest: root chain unbalanced after session")
	}
}

// BlockInfo describes one heap block for inspection.
type BlockInfo struct {
	Value  camlgate.Value
	Tag    uint8
	Size   int
	Fields []camlgate.Value
}

// Blocks walks the segment and returns every live-or-not-yet-collected
// block in address order. Bump allocation leaves no holes, so the walk is
// linear.
func (r *Runtime) Blocks() []BlockInfo {
	var out []BlockInfo
	for scan := 1; scan < r.next; {
		hdr := r.seg[scan]
		size := camlgate.HeaderSize(hdr)
		b := BlockInfo{
			Value: camlgate.Value(uintptr(scan+1) * camlgate.WordSize),
			Tag:   camlgate.HeaderTag(hdr),
			Size:  size,
		}
		for i := 0; i < size; i++ {
			b.Fields = append(b.Fields, camlgate.Value(r.seg[scan+1+i]))
		}
		out = append(out, b)
		scan += size + 1
	}
	return out
}

// RootValues returns the values held by the registered root chain, head
// first.
func (r *Runtime) RootValues() []camlgate.Value {
	var out []camlgate.Value
	for f := roots.Head(); f != nil; f = f.Next() {
		for i := 0; i < f.Len(); i++ {
			out = append(out, f.Get(i))
		}
	}
	return out
}

func (r *Runtime) emit(e Event) {
	for _, o := range r.observers {
		o.OnHeapEvent(e)
	}
}
