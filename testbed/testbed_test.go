package testbed

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/bindings"
	"github.com/camlgate/camlgate/bindings/list"
	"github.com/camlgate/camlgate/bindings/option"
	"github.com/camlgate/camlgate/engine"
	cgerrors "github.com/camlgate/camlgate/errors"
	"github.com/camlgate/camlgate/match"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
	"github.com/camlgate/camlgate/wat"
)

// newRuntime instantiates the reference collector in a fresh engine. Only
// one runtime can be active per process, so cleanup order matters; these
// tests must not run in parallel.
func newRuntime(t *testing.T, cfg *engine.Config) *engine.Runtime {
	t.Helper()
	ctx := context.Background()

	eng, err := engine.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close(ctx) })

	bin, err := Collector()
	if err != nil {
		t.Fatalf("Collector failed: %v", err)
	}
	mod, err := eng.Load(ctx, bin)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rt, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func decodeInts(t *testing.T, v camlgate.Value) []int {
	t.Helper()
	var out []int
	for {
		m := list.Match(v)
		if m.Kind() == match.KindInline {
			if m.Inline() != list.NilTag {
				t.Fatalf("unexpected inline constructor %d", m.Inline())
			}
			return out
		}
		_, cell := m.Block()
		out = append(out, bindings.Int(cell.Head).Int())
		v = cell.Tail
	}
}

func TestCollectorCompiles(t *testing.T) {
	bin, err := Collector()
	if err != nil {
		t.Fatalf("Collector failed: %v", err)
	}
	magic := []byte{0x00, 0x61, 0x73, 0x6D}
	if len(bin) < 8 || !bytes.Equal(bin[:4], magic) {
		t.Fatalf("not a wasm binary: % x", bin[:min(len(bin), 8)])
	}
}

func TestAllocInitializesBlock(t *testing.T) {
	rt := newRuntime(t, nil)

	v := rt.AllocBlock(3, 5)
	if !v.IsBlock() {
		t.Fatalf("AllocBlock returned an immediate: %#x", uintptr(v))
	}
	if got := v.Size(); got != 3 {
		t.Errorf("size = %d, want 3", got)
	}
	if got := v.Tag(); got != 5 {
		t.Errorf("tag = %d, want 5", got)
	}
	for i := 0; i < 3; i++ {
		if f := v.Field(i); f != camlgate.FromInt(0) {
			t.Errorf("field %d = %#x, want immediate zero", i, uintptr(f))
		}
	}
}

func TestSetFieldRoundTrip(t *testing.T) {
	rt := newRuntime(t, nil)

	v := rt.AllocBlock(2, 0)
	rt.SetField(v, 0, camlgate.FromInt(7))
	rt.SetField(v, 1, camlgate.FromInt(-3))

	if got := v.Field(0).Int(); got != 7 {
		t.Errorf("field 0 = %d, want 7", got)
	}
	if got := v.Field(1).Int(); got != -3 {
		t.Errorf("field 1 = %d, want -3", got)
	}
}

func TestBuildersAgainstGuest(t *testing.T) {
	rt := newRuntime(t, nil)
	gc := mem.NewGC(rt)

	s := roots.NewScope()
	defer s.Close()

	xs := mem.Rooted(gc, s, list.Elems(
		bindings.OfInt(1), bindings.OfInt(2), bindings.OfInt(3)))
	if got := decodeInts(t, xs.Value()); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("decoded %v, want [1 2 3]", got)
	}

	some := mem.Rooted(gc, s, option.Some(bindings.OfInt(42)))
	m := option.Match(some.Value())
	if m.Kind() != match.KindBlock {
		t.Fatalf("Some decoded as inline %d", m.Inline())
	}
	tag, cell := m.Block()
	if tag != option.SomeTag {
		t.Errorf("tag = %d, want SomeTag", tag)
	}
	if got := bindings.Int(cell.Inner).Int(); got != 42 {
		t.Errorf("payload = %d, want 42", got)
	}
}

func TestRootedValuesSurviveMemoryGrowth(t *testing.T) {
	rt := newRuntime(t, &engine.Config{MemoryLimitPages: 8})
	gc := mem.NewGC(rt)

	s := roots.NewScope()
	defer s.Close()

	xs := mem.Rooted(gc, s, list.Elems(bindings.OfInt(10), bindings.OfInt(20)))

	_, before := camlgate.Segment()

	// A block larger than the first page forces memory.grow, which may
	// move the whole linear memory.
	big := rt.AllocBlock(16384, 0)
	if !big.IsBlock() {
		t.Fatalf("big alloc failed: %#x", uintptr(big))
	}

	_, after := camlgate.Segment()
	if after <= before {
		t.Fatalf("segment did not grow: %d -> %d", before, after)
	}
	if got := decodeInts(t, xs.Value()); len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Errorf("decoded %v after growth, want [10 20]", got)
	}
}

func TestAllocTrapsWhenOutOfMemory(t *testing.T) {
	rt := newRuntime(t, &engine.Config{MemoryLimitPages: 1})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected AllocBlock to panic")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value %T is not an error", r)
		}
		var cerr *cgerrors.Error
		if !stderrors.As(err, &cerr) || cerr.Kind != cgerrors.KindTrap {
			t.Errorf("panic = %v, want trap", err)
		}
	}()
	rt.AllocBlock(16384, 0)
}

func TestSecondRuntimeRejected(t *testing.T) {
	ctx := context.Background()
	eng, err := engine.New(ctx)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer eng.Close(ctx)

	bin, err := Collector()
	if err != nil {
		t.Fatalf("Collector failed: %v", err)
	}
	mod, err := eng.Load(ctx, bin)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rt, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer rt.Close()

	if _, err := mod.Instantiate(ctx); err == nil {
		t.Error("second Instantiate succeeded, want rejection")
	} else if !strings.Contains(err.Error(), "another runtime") {
		t.Errorf("error = %v, want active-runtime rejection", err)
	}
}

func TestInstantiateRequiresExports(t *testing.T) {
	ctx := context.Background()
	eng, err := engine.New(ctx)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer eng.Close(ctx)

	// A module with memory and rt_init but no allocator entry points.
	bin, err := wat.Compile(`(module
		(memory (export "memory") 1)
		(func (export "rt_init") (result i64) (i64.const 8)))`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	mod, err := eng.Load(ctx, bin)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := mod.Instantiate(ctx); err == nil {
		t.Error("Instantiate succeeded without rt_alloc")
	} else if !strings.Contains(err.Error(), "rt_alloc") {
		t.Errorf("error = %v, want missing rt_alloc", err)
	}
}
