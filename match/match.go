package match

import (
	"github.com/camlgate/camlgate"
)

// Kind discriminates the two decoded forms of a Value.
type Kind uint8

const (
	// KindInline is an immediate: an unboxed constructor or bare integer.
	KindInline Kind = iota
	// KindBlock is a heap block: a boxed constructor with fields.
	KindBlock
)

// View is the one-level decoding of a Value against a participating type's
// declarations: I is its inline-tag type, B its block-tag type, and F the
// field layout shared by its block constructors (a struct of Values).
//
// The field view aliases the block in place; nothing is copied. It is valid
// only until the next allocation, like every unrooted reference. Only one
// level is decoded: inspecting a sub-field takes another Of call on that
// field's Value.
type View[I ~int, B ~uint8, F any] struct {
	k      Kind
	inline I
	block  B
	fields *F
}

// Of decodes one level of v. v's tags must belong to the declarations of
// the type (I, B, F) describe; decoding a Value against the wrong type's
// declarations produces a meaningless view.
func Of[I ~int, B ~uint8, F any](v camlgate.Value) View[I, B, F] {
	if v.IsImmediate() {
		return View[I, B, F]{k: KindInline, inline: I(v.Int())}
	}
	return View[I, B, F]{
		k:      KindBlock,
		block:  B(v.Tag()),
		fields: (*F)(v.FieldsPointer()),
	}
}

// Kind reports which form the Value decoded to.
func (m View[I, B, F]) Kind() Kind {
	return m.k
}

// Inline returns the inline tag. It panics when the view is a block.
func (m View[I, B, F]) Inline() I {
	if m.k != KindInline {
		panic("match.View.Inline: not an immediate")
	}
	return m.inline
}

// Block returns the block tag and the typed field view. It panics when the
// view is an immediate.
func (m View[I, B, F]) Block() (B, *F) {
	if m.k != KindBlock {
		panic("match.View.Block: not a block")
	}
	return m.block, m.fields
}
