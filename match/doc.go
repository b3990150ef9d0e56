// Package match decodes heap values shallowly and without copying.
//
// A type participates in matching by declaring three things: an inline-tag
// type for its unboxed constructors, a block-tag type for its boxed
// constructors, and a field-layout struct of Values for its blocks. Of then
// turns a raw Value into a View that branches on Kind:
//
//	switch m := list.Match(v); m.Kind() {
//	case match.KindInline:
//	    // list.NilTag
//	case match.KindBlock:
//	    tag, cell := m.Block()
//	    _ = tag // list.ConsTag
//	    head, rest := cell.Head, cell.Tail
//	}
//
// The block case reads the one-byte tag from the header preceding the
// block and reinterprets the field area as the declared layout in place.
// That reinterpretation is a trusted conversion: sound exactly when the
// declarations describe the Value's actual type, which the typed
// Builder/Matcher surface guarantees and raw Values do not.
package match
