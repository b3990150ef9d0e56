package bindings

import (
	"testing"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/camltest"
	"github.com/camlgate/camlgate/mem"
)

func TestIntArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Int
		want int
	}{
		{"add", OfInt(6).Add(OfInt(7)), 13},
		{"sub", OfInt(6).Sub(OfInt(7)), -1},
		{"mul", OfInt(6).Mul(OfInt(7)), 42},
		{"div", OfInt(7).Div(OfInt(2)), 3},
		{"div truncates toward zero", OfInt(-7).Div(OfInt(2)), -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Int() != tt.want {
				t.Errorf("got %d, want %d", tt.got.Int(), tt.want)
			}
		})
	}
}

func TestIntEncoding(t *testing.T) {
	n := OfInt(5)
	if n.Value() != camlgate.FromInt(5) {
		t.Errorf("Value() = %#x, want the immediate encoding of 5", uintptr(n.Value()))
	}
	if !n.Value().IsImmediate() {
		t.Error("an Int is not immediate")
	}
	if n.String() != "5" {
		t.Errorf("String() = %q, want \"5\"", n.String())
	}
}

func TestLeafBuildersEncodeWithoutAllocating(t *testing.T) {
	rt := camltest.New()
	defer rt.Close()

	rt.Session(func(gc *mem.GC) {
		if v := OfInt(9).Build(gc).Value(); v != camlgate.FromInt(9) {
			t.Errorf("Int build = %#x, want immediate 9", uintptr(v))
		}
		if v := Bool(true).Build(gc).Value(); v != camlgate.FromInt(1) {
			t.Errorf("Bool(true) build = %#x, want immediate 1", uintptr(v))
		}
		if v := Bool(false).Build(gc).Value(); v != camlgate.FromInt(0) {
			t.Errorf("Bool(false) build = %#x, want immediate 0", uintptr(v))
		}
		if v := (Unit{}).Build(gc).Value(); v != camlgate.FromInt(0) {
			t.Errorf("Unit build = %#x, want immediate 0", uintptr(v))
		}
	})
	if n := rt.Stats().Allocations; n != 0 {
		t.Errorf("leaf builders performed %d allocations, want 0", n)
	}
}
