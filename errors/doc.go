// Package errors provides structured error types for the camlgate library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes context for tooling: the enclosing
// declaration, the offending construct, and a source position for generator
// diagnostics, plus a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindUnsupported).
//		Decl("shape").
//		Construct("Circle of {radius: int}").
//		Pos(3, 14).
//		Detail("inline record payloads cannot be given sound bindings").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedConstruct("shape", "[@tag 4]", pos, "explicit tags")
//	err := errors.MissingExport("rt_alloc")
//
// All errors implement the standard error interface and support errors.Is/As.
//
// Undefined-behavior hazards are deliberately absent here: allocating while
// holding an unrooted value or releasing a root frame out of order corrupts
// collector-visible state and panics at the violation site instead of
// returning an error.
package errors
