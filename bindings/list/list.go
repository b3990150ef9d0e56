// Package list binds the standard list type: Nil is the immediate 0, Cons
// a two-field block tagged 0 holding the head and the rest of the list.
package list

import (
	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/match"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
)

// List is the phantom type of runtime lists with element type E.
type List[E any] struct{}

// Inline is the list's unboxed constructor tag type.
type Inline int

// NilTag is the empty list.
const NilTag Inline = 0

// Block is the list's boxed constructor tag type.
type Block uint8

// ConsTag is a cons cell.
const ConsTag Block = 0

// Cell is the field layout of a Cons block.
type Cell struct {
	Head camlgate.Value
	Tail camlgate.Value
}

// Match decodes one level of a list value.
func Match(v camlgate.Value) match.View[Inline, Block, Cell] {
	return match.Of[Inline, Block, Cell](v)
}

// Nil describes the empty list.
func Nil[E any]() mem.Builder[List[E]] {
	return nilBuilder[E]{}
}

// Cons describes a cell holding head and tail.
func Cons[E any](head mem.Builder[E], tail mem.Builder[List[E]]) mem.Builder[List[E]] {
	return consBuilder[E]{head: head, tail: tail}
}

// Elems describes the list of the given elements in order.
func Elems[E any](elems ...mem.Builder[E]) mem.Builder[List[E]] {
	var b mem.Builder[List[E]] = Nil[E]()
	for i := len(elems) - 1; i >= 0; i-- {
		b = Cons(elems[i], b)
	}
	return b
}

type nilBuilder[E any] struct{}

func (nilBuilder[E]) Build(gc *mem.GC) mem.Ref[List[E]] {
	return mem.AsRef[List[E]](camlgate.FromInt(int(NilTag)))
}

type consBuilder[E any] struct {
	head mem.Builder[E]
	tail mem.Builder[List[E]]
}

func (b consBuilder[E]) Build(gc *mem.GC) mem.Ref[List[E]] {
	s := roots.NewScope()
	defer s.Close()
	hd := mem.Rooted(gc, s, b.head)
	tl := mem.Rooted(gc, s, b.tail)
	return mem.AsRef[List[E]](gc.Alloc(uint8(ConsTag), hd, tl))
}
