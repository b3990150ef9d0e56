package list

import (
	"testing"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/bindings"
	"github.com/camlgate/camlgate/camltest"
	"github.com/camlgate/camlgate/match"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
)

// decodeInts walks a list of immediates one Match at a time. It performs no
// allocations, so the values it follows cannot go stale mid-walk.
func decodeInts(t *testing.T, v camlgate.Value) []int {
	t.Helper()
	var out []int
	for {
		m := Match(v)
		if m.Kind() == match.KindInline {
			if m.Inline() != NilTag {
				t.Fatalf("inline list constructor %d, want Nil", m.Inline())
			}
			return out
		}
		tag, cell := m.Block()
		if tag != ConsTag {
			t.Fatalf("block list constructor %d, want Cons", tag)
		}
		out = append(out, cell.Head.Int())
		v = cell.Tail
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNilIsImmediate(t *testing.T) {
	rt := camltest.New()
	defer rt.Close()

	rt.Session(func(gc *mem.GC) {
		v := Nil[bindings.Int]().Build(gc).Value()
		if !v.IsImmediate() || v != camlgate.FromInt(int(NilTag)) {
			t.Errorf("Nil = %#x, want the immediate 0", uintptr(v))
		}
	})
	if n := rt.Stats().Allocations; n != 0 {
		t.Errorf("Nil allocated %d blocks, want 0", n)
	}
}

func TestConsBuildAndMatch(t *testing.T) {
	rt := camltest.New()
	defer rt.Close()

	rt.Session(func(gc *mem.GC) {
		s := roots.NewScope()
		defer s.Close()

		l := mem.Rooted(gc, s, Cons(bindings.OfInt(1), Cons(bindings.OfInt(2), Nil[bindings.Int]())))

		m := Match(l.Value())
		if m.Kind() != match.KindBlock {
			t.Fatal("cons cell decoded as inline")
		}
		tag, cell := m.Block()
		if tag != ConsTag || cell.Head.Int() != 1 {
			t.Fatalf("first cell = tag %d head %d, want Cons/1", tag, cell.Head.Int())
		}
		if got := decodeInts(t, l.Value()); !equalInts(got, []int{1, 2}) {
			t.Errorf("decoded %v, want [1 2]", got)
		}
	})
}

func TestElemsOrder(t *testing.T) {
	rt := camltest.New()
	defer rt.Close()

	rt.Session(func(gc *mem.GC) {
		s := roots.NewScope()
		defer s.Close()

		l := mem.Rooted(gc, s, Elems(bindings.OfInt(1), bindings.OfInt(2), bindings.OfInt(3)))
		if got := decodeInts(t, l.Value()); !equalInts(got, []int{1, 2, 3}) {
			t.Errorf("decoded %v, want [1 2 3]", got)
		}
	})
	if n := rt.Stats().Allocations; n != 3 {
		t.Errorf("three-element list allocated %d blocks, want 3", n)
	}
}

func TestBuildSurvivesRelocationOnEveryAlloc(t *testing.T) {
	rt := camltest.New(camltest.WithMoveEveryAlloc())
	defer rt.Close()

	rt.Session(func(gc *mem.GC) {
		s := roots.NewScope()
		defer s.Close()

		// Each cons cell's allocation relocates the cells built before it;
		// the build must chase its rooted children, not stale values.
		l := mem.Rooted(gc, s, Elems(bindings.OfInt(1), bindings.OfInt(2), bindings.OfInt(3)))
		if got := decodeInts(t, l.Value()); !equalInts(got, []int{1, 2, 3}) {
			t.Errorf("decoded %v, want [1 2 3]", got)
		}

		before := l.Value()
		rt.Collect()
		if l.Value() == before {
			t.Error("collection left the list in place; relocation untested")
		}
		if got := decodeInts(t, l.Value()); !equalInts(got, []int{1, 2, 3}) {
			t.Errorf("decoded %v after relocation, want [1 2 3]", got)
		}
	})
}
