// Package bindings provides the pervasive standard-type bindings: immediate
// integers with arithmetic in the encoded form, booleans, and unit. The
// list and option sub-packages bind the standard containers. All of them
// are ordinary consumers of the Builder and match contracts; none adds new
// safety mechanism.
package bindings

import (
	"strconv"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/mem"
)

// Int is an integer in the runtime's immediate encoding. Add and Sub
// operate on the encoded form directly; Mul and Div decode first.
// Construct with OfInt; the Go zero value is not a valid Int.
type Int camlgate.Value

// OfInt encodes i.
func OfInt(i int) Int {
	return Int(camlgate.FromInt(i))
}

// Value returns the raw word.
func (n Int) Value() camlgate.Value {
	return camlgate.Value(n)
}

// Int decodes n.
func (n Int) Int() int {
	return camlgate.Value(n).Int()
}

// Add returns n + m. Summing two encoded words carries both tag bits, so
// subtracting one restores the encoding.
func (n Int) Add(m Int) Int {
	return n + m - 1
}

// Sub returns n - m. The tag bits cancel; adding one restores the encoding.
func (n Int) Sub(m Int) Int {
	return n - m + 1
}

// Mul returns n * m.
func (n Int) Mul(m Int) Int {
	return OfInt(n.Int() * m.Int())
}

// Div returns n / m, truncated toward zero.
func (n Int) Div(m Int) Int {
	return OfInt(n.Int() / m.Int())
}

func (n Int) String() string {
	return strconv.Itoa(n.Int())
}

// Build encodes the integer; leaf builders never allocate.
func (n Int) Build(gc *mem.GC) mem.Ref[Int] {
	return mem.AsRef[Int](camlgate.Value(n))
}

// Bool is the standard boolean binding: false is the immediate 0, true the
// immediate 1.
type Bool bool

// Build encodes the boolean.
func (b Bool) Build(gc *mem.GC) mem.Ref[Bool] {
	if b {
		return mem.AsRef[Bool](camlgate.FromInt(1))
	}
	return mem.AsRef[Bool](camlgate.FromInt(0))
}

// Unit is the single-valued unit binding, encoded as the immediate 0.
type Unit struct{}

// Build encodes unit.
func (Unit) Build(gc *mem.GC) mem.Ref[Unit] {
	return mem.AsRef[Unit](camlgate.FromInt(0))
}
