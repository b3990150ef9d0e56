// Package extern wraps Go functions as entry points callable from the
// runtime side with raw values. The wrappers implement the calling
// convention: every raw argument is registered as a root before the
// implementation runs, so no argument can be invalidated by the
// implementation's allocations.
package extern

import (
	"go.uber.org/zap"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
)

// Param is a typed view of an entry point's rooted argument. Ref and Value
// re-read the root slot, so the argument tracks relocations across the
// implementation's own allocations. Params are only constructed by the
// Func wrappers and are only valid for the duration of the call.
type Param[T any] struct {
	l *roots.Local
}

// Ref returns the argument as a typed reference, current as of this call.
func (p Param[T]) Ref() mem.Ref[T] {
	return mem.AsRef[T](p.l.Value())
}

// Value returns the argument's raw word, current as of this call.
func (p Param[T]) Value() camlgate.Value {
	return p.l.Value()
}

// Func1 wraps impl as a one-argument entry point. The returned function
// roots its argument, runs impl with an allocation context for rt, and
// returns the raw result. The result is unrooted; the caller must root it
// before its next allocation.
func Func1[A, R any](rt camlgate.Runtime, name string, impl func(gc *mem.GC, a Param[A]) mem.Ref[R]) func(camlgate.Value) camlgate.Value {
	return func(a camlgate.Value) camlgate.Value {
		s := roots.NewScope()
		defer s.Close()
		pa := Param[A]{l: s.Live(a)}
		Logger().Debug("extern call", zap.String("name", name), zap.Int("args", 1))
		return impl(mem.NewGC(rt), pa).Value()
	}
}

// Func2 wraps impl as a two-argument entry point.
func Func2[A, B, R any](rt camlgate.Runtime, name string, impl func(gc *mem.GC, a Param[A], b Param[B]) mem.Ref[R]) func(camlgate.Value, camlgate.Value) camlgate.Value {
	return func(a, b camlgate.Value) camlgate.Value {
		s := roots.NewScope()
		defer s.Close()
		pa := Param[A]{l: s.Live(a)}
		pb := Param[B]{l: s.Live(b)}
		Logger().Debug("extern call", zap.String("name", name), zap.Int("args", 2))
		return impl(mem.NewGC(rt), pa, pb).Value()
	}
}

// Func3 wraps impl as a three-argument entry point.
func Func3[A, B, C, R any](rt camlgate.Runtime, name string, impl func(gc *mem.GC, a Param[A], b Param[B], c Param[C]) mem.Ref[R]) func(camlgate.Value, camlgate.Value, camlgate.Value) camlgate.Value {
	return func(a, b, c camlgate.Value) camlgate.Value {
		s := roots.NewScope()
		defer s.Close()
		pa := Param[A]{l: s.Live(a)}
		pb := Param[B]{l: s.Live(b)}
		pc := Param[C]{l: s.Live(c)}
		Logger().Debug("extern call", zap.String("name", name), zap.Int("args", 3))
		return impl(mem.NewGC(rt), pa, pb, pc).Value()
	}
}
