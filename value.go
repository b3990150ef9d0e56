package camlgate

import "unsafe"

// Value is the single machine word exchanged with the external runtime.
//
// If the lowest bit is 1 the Value is an immediate: the remaining bits hold
// a signed integer, recovered with an arithmetic shift. If the lowest bit is
// 0 the Value is a reference to a heap block: a word-aligned byte offset
// into the runtime's heap segment, pointing directly at the block's first
// field. The block header sits one word before that offset.
//
// Value performs no tag checking of its own. Callers must know statically
// which case applies; the match package is the sanctioned way to branch on
// a Value whose case is not known.
type Value uintptr

// WordSize is the width in bytes of a Value and of every block field.
const WordSize = unsafe.Sizeof(Value(0))

// FromInt encodes i as an immediate Value.
//
// i must fit in one bit less than the native word width; wider values wrap
// silently.
func FromInt(i int) Value {
	return Value(i)<<1 | 1
}

// Int decodes an immediate Value. Defined only when IsImmediate reports
// true; no checking is performed.
func (v Value) Int() int {
	return int(v) >> 1
}

// IsImmediate reports whether v encodes an integer rather than a block
// reference.
func (v Value) IsImmediate() bool {
	return v&1 == 1
}

// IsBlock reports whether v refers to a heap block.
func (v Value) IsBlock() bool {
	return v&1 == 0
}

// Tag returns the block tag from the header preceding the block v refers
// to. Defined only when IsBlock reports true and a heap segment is active.
func (v Value) Tag() uint8 {
	return HeaderTag(v.header())
}

// Size returns the block's field count from its header. Defined only when
// IsBlock reports true and a heap segment is active.
func (v Value) Size() int {
	return HeaderSize(v.header())
}

// Field reads field i of the block v refers to. The read is raw: no bounds
// or tag checking. The result is stale once the runtime performs another
// allocation unless v is reachable from a registered root.
func (v Value) Field(i int) Value {
	return *(*Value)(unsafe.Add(segBase, uintptr(v)+uintptr(i)*WordSize))
}

// FieldsPointer returns the address of field 0 of the block v refers to.
// This is the trusted-conversion boundary used by the match package to
// produce typed field views; the caller must have checked the tag and must
// not retain the pointer across an allocation.
func (v Value) FieldsPointer() unsafe.Pointer {
	return unsafe.Add(segBase, uintptr(v))
}

func (v Value) header() uintptr {
	return *(*uintptr)(unsafe.Add(segBase, uintptr(v)-WordSize))
}

// Heap segment window. The active runtime registers its segment here at
// session start and again whenever the segment grows or moves; block
// offsets stay valid across both because every read resolves through the
// current base.
var (
	segBase unsafe.Pointer
	segSize uintptr
)

// SetSegment registers the active runtime's heap segment. Only one runtime
// may be active in a process at a time.
func SetSegment(base unsafe.Pointer, size uintptr) {
	segBase = base
	segSize = size
}

// Segment returns the currently registered heap segment window.
func Segment() (unsafe.Pointer, uintptr) {
	return segBase, segSize
}
