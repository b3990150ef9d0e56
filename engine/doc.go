// Package engine hosts a garbage-collected heap compiled to WebAssembly.
//
// This package wraps wazero to run a collector module and adapt its exports
// to the runtime boundary the rest of the library allocates through. The
// guest owns the heap inside its linear memory; the host never takes a raw
// pointer into it, only word-aligned offsets in the shared value encoding.
//
// # Architecture
//
// The engine package provides three main types:
//
//	Engine  - Creates and manages the wazero runtime
//	Module  - A compiled collector module, can create instances
//	Runtime - A running instance adapted to the runtime boundary
//
// # Collector ABI
//
// A collector module must export:
//
//	memory                                      linear memory holding the heap
//	rt_init() -> u64                            one-time init, returns heap base
//	rt_alloc(size u32, tag u32) -> u64          allocate, may collect first
//	rt_modify(block u64, index u32, value u64)  write barrier
//	rt_roots(count u32) -> u64                  reserve the root spill buffer
//
// Heap words are 64-bit and little-endian, carrying the same tagged
// encoding the host uses: odd words are immediates, even words are byte
// offsets into linear memory pointing at a block's first field.
//
// # Root Spilling
//
// The guest cannot walk host memory, so before each rt_alloc the adapter
// copies every registered root slot into a buffer obtained from rt_roots.
// The guest uses that buffer as its root array; after the call the adapter
// copies the possibly relocated values back into the host-side slots and
// re-registers the segment window, since growth can move linear memory.
//
// # Thread Safety
//
// Engine and Module are safe for concurrent use. Runtime is not; the
// boundary contract is single-threaded, and at most one Runtime is active
// per process.
//
// # Known Limitations
//
// Memory64 collectors are not supported; wazero (v1.10.1) implements only
// 32-bit linear memory, so block offsets stay within 4GB. Hosts must be
// 64-bit and little-endian for the segment window to alias heap words
// directly.
package engine
