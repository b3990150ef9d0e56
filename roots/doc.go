// Package roots implements the root-registration side of the collector
// boundary: the process-global chain of root frames the external collector
// walks during a collection, and the rooted handle (Local) that owns
// exactly one frame.
//
// The chain is a strict stack. Handles must release in exact reverse order
// of registration; a violation panics immediately rather than corrupting
// the chain for every shallower handle. Tie releases to scope exit with
// defer, or use Scope when handles outlive a single function body:
//
//	l := roots.Live(v)
//	defer l.Release()
//
// The chain head is process-global mutable state touched only by handle
// registration and release. The package is single-threaded by contract, as
// is everything that allocates against the external runtime.
package roots
