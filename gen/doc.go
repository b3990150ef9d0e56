// Package gen turns OCaml variant type declarations into Go binding source.
//
// The input is a fragment of OCaml: one or more `type` declarations built
// from variant constructors. The output is a single gofmt-formatted Go file
// in the caller's package, with the pieces a hand-written binding would
// carry: inline and block tag constants in declaration order, one builder
// per constructor, a typed field cell plus accessor per payload constructor,
// and a one-level Match entry point per type.
//
// Basic usage:
//
//	decls, err := gen.Parse(`
//		type shape =
//		  | Point
//		  | Circle of int
//		  | Rect of int * int
//	`)
//	if err != nil {
//		return err
//	}
//	src, err := gen.Generate(decls, gen.Options{Package: "shapes"})
//
// Supported declaration features:
//   - Nullary and payload constructors, mixed freely
//   - Payload tuples (Ctor of t1 * t2 * ...)
//   - Type parameters: 'a t and ('a, 'b) t
//   - Built-in payload types: int, bool, unit, list, option
//   - References between declarations in the same input, including
//     applications of generic declarations
//   - Nested comments (* like (* this *) *) and ;; separators
//
// Not supported: records (inline or named), polymorphic variants, explicit
// tag assignment, tuple types outside a constructor payload, and payload
// types not declared in the same input. Rejections name the construct and
// its source position.
package gen
