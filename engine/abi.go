package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// Exports every collector module must provide. Values crossing this
// boundary are 64-bit words carrying the shared tagged encoding; block
// references are offsets into the module's linear memory.
const (
	ExportMemory = "memory"
	ExportInit   = "rt_init"   // rt_init() -> u64 heap base
	ExportAlloc  = "rt_alloc"  // rt_alloc(size u32, tag u32) -> u64 value
	ExportModify = "rt_modify" // rt_modify(block u64, index u32, value u64)
	ExportRoots  = "rt_roots"  // rt_roots(count u32) -> u64 buffer offset
)

// requiredFuncs are the function exports checked at instantiation.
var requiredFuncs = []string{ExportInit, ExportAlloc, ExportModify, ExportRoots}

// guestMemory is the slice of api.Memory the adapter uses. Tests substitute
// a plain byte-slice implementation.
type guestMemory interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	ReadUint64Le(offset uint32) (uint64, bool)
	WriteUint64Le(offset uint32, v uint64) bool
}

// guestFunc is the slice of api.Function the adapter uses.
type guestFunc interface {
	CallWithStack(ctx context.Context, stack []uint64) error
}

// guestModule is the slice of api.Module the adapter uses.
type guestModule interface {
	Close(ctx context.Context) error
}

var (
	_ guestMemory = (api.Memory)(nil)
	_ guestFunc   = (api.Function)(nil)
	_ guestModule = (api.Module)(nil)
)
