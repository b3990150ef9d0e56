// Package option binds the standard option type: None is the immediate 0,
// Some a one-field block tagged 0 holding the inner value.
package option

import (
	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/match"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
)

// Option is the phantom type of runtime options with element type E.
type Option[E any] struct{}

// Inline is the option's unboxed constructor tag type.
type Inline int

// NoneTag is the absent case.
const NoneTag Inline = 0

// Block is the option's boxed constructor tag type.
type Block uint8

// SomeTag is the present case.
const SomeTag Block = 0

// Cell is the field layout of a Some block.
type Cell struct {
	Inner camlgate.Value
}

// Match decodes one level of an option value.
func Match(v camlgate.Value) match.View[Inline, Block, Cell] {
	return match.Of[Inline, Block, Cell](v)
}

// None describes the absent case.
func None[E any]() mem.Builder[Option[E]] {
	return noneBuilder[E]{}
}

// Some describes the present case holding inner.
func Some[E any](inner mem.Builder[E]) mem.Builder[Option[E]] {
	return someBuilder[E]{inner: inner}
}

type noneBuilder[E any] struct{}

func (noneBuilder[E]) Build(gc *mem.GC) mem.Ref[Option[E]] {
	return mem.AsRef[Option[E]](camlgate.FromInt(int(NoneTag)))
}

type someBuilder[E any] struct {
	inner mem.Builder[E]
}

func (b someBuilder[E]) Build(gc *mem.GC) mem.Ref[Option[E]] {
	s := roots.NewScope()
	defer s.Close()
	inner := mem.Rooted(gc, s, b.inner)
	return mem.AsRef[Option[E]](gc.Alloc(uint8(SomeTag), inner))
}
