package mem

import (
	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/roots"
)

// Ref is a typed reference to a Value whose logical type is T. T is
// phantom: a Ref carries no Go representation of the heap block, only the
// word referring to it. The trusted conversion AsRef is how decoded or
// freshly allocated Values acquire their static type; the tag must already
// be known to match T's layout.
//
// A Ref is only as valid as the Value inside it: unless that Value is
// rooted, the next allocation invalidates both.
type Ref[T any] struct {
	v camlgate.Value
}

// AsRef types a raw Value as referring to a T. Trusted conversion; the
// caller has checked, or constructed, the tag.
func AsRef[T any](v camlgate.Value) Ref[T] {
	return Ref[T]{v: v}
}

// Value returns the raw word.
func (r Ref[T]) Value() camlgate.Value {
	return r.v
}

// Builder describes a value of logical type T that does not exist yet.
// Build materializes it, allocating as needed, and is the only operation
// that turns a description into a Value.
//
// A leaf builder encodes an immediate and never allocates. A compound
// builder must bring every child under a registered root before the parent
// allocation: register a handle, build the child, root the result on that
// handle, and only then allocate the parent from the handles. Rooted is
// that sequence.
type Builder[T any] interface {
	Build(gc *GC) Ref[T]
}

// Rooted builds b and returns a handle in s rooting the result. The handle
// is registered before the child build runs, so nothing the build allocates
// can invalidate the slot, and the built value goes straight from the build
// into collector-visible storage with no allocation in between.
func Rooted[T any](gc *GC, s *roots.Scope, b Builder[T]) *roots.Local {
	l := s.Enter()
	l.Root(b.Build(gc).Value())
	return l
}
