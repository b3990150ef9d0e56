package camlgate

// Runtime is the foreign boundary to the external managed runtime. It
// carries exactly the two operations the collector side exposes to native
// code: block allocation and barrier-respecting field update. The root
// chain the collector walks is the third piece of the boundary and lives in
// the roots package.
//
// The runtime is a trusted collaborator: neither operation returns an
// error. An adapter whose backing collector faults must panic, because a
// failed collector leaves no state worth continuing with.
type Runtime interface {
	// AllocBlock requests a block of size fields tagged tag and returns a
	// block Value referring to it, fields initialized to FromInt(0). The
	// call may trigger a full collection, which can relocate or reclaim
	// every heap object not reachable from a registered root.
	AllocBlock(size int, tag uint8) Value

	// SetField stores v into field index of block through the runtime's
	// write barrier. Never store into a block with a raw write; the
	// collector's bookkeeping depends on seeing every field update.
	SetField(block Value, index int, v Value)
}

// Block header layout, shared with the collector side. The header is the
// word immediately preceding the block offset a Value refers to: the field
// count in the upper bits, the tag in the low byte, two reserved bits
// between them.
const (
	HeaderSizeShift = 10
	HeaderTagMask   = 0xff
)

// BlockHeader assembles the header word for a block of size fields tagged
// tag.
func BlockHeader(size int, tag uint8) uintptr {
	return uintptr(size)<<HeaderSizeShift | uintptr(tag)
}

// HeaderSize extracts the field count from a header word.
func HeaderSize(h uintptr) int {
	return int(h >> HeaderSizeShift)
}

// HeaderTag extracts the tag from a header word.
func HeaderTag(h uintptr) uint8 {
	return uint8(h & HeaderTagMask)
}
