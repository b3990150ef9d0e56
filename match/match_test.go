package match

import (
	"testing"
	"unsafe"

	"github.com/camlgate/camlgate"
)

type colorInline int

const (
	inlineRed colorInline = iota
	inlineGreen
)

type colorBlock uint8

const blockRGB colorBlock = 0

type rgbCell struct {
	R, G, B camlgate.Value
}

func TestOfImmediate(t *testing.T) {
	m := Of[colorInline, colorBlock, rgbCell](camlgate.FromInt(1))
	if m.Kind() != KindInline {
		t.Fatalf("Kind() = %v, want KindInline", m.Kind())
	}
	if got := m.Inline(); got != inlineGreen {
		t.Errorf("Inline() = %d, want %d", got, inlineGreen)
	}
}

func TestOfBlock(t *testing.T) {
	words := []uintptr{
		0,
		camlgate.BlockHeader(3, uint8(blockRGB)),
		uintptr(camlgate.FromInt(200)),
		uintptr(camlgate.FromInt(100)),
		uintptr(camlgate.FromInt(50)),
	}
	camlgate.SetSegment(unsafe.Pointer(&words[0]), uintptr(len(words))*camlgate.WordSize)
	defer camlgate.SetSegment(nil, 0)

	v := camlgate.Value(2 * camlgate.WordSize)
	m := Of[colorInline, colorBlock, rgbCell](v)
	if m.Kind() != KindBlock {
		t.Fatalf("Kind() = %v, want KindBlock", m.Kind())
	}
	tag, cell := m.Block()
	if tag != blockRGB {
		t.Errorf("block tag = %d, want %d", tag, blockRGB)
	}
	if cell.R.Int() != 200 || cell.G.Int() != 100 || cell.B.Int() != 50 {
		t.Errorf("fields = (%d, %d, %d), want (200, 100, 50)", cell.R.Int(), cell.G.Int(), cell.B.Int())
	}

	// Zero copy: the view aliases the block's field area.
	if unsafe.Pointer(cell) != unsafe.Pointer(&words[2]) {
		t.Errorf("fields view = %p, want %p", unsafe.Pointer(cell), unsafe.Pointer(&words[2]))
	}
}

func TestViewAccessorPanics(t *testing.T) {
	immediate := Of[colorInline, colorBlock, rgbCell](camlgate.FromInt(0))

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Block() on an immediate view did not panic")
			}
		}()
		immediate.Block()
	}()

	words := []uintptr{0, camlgate.BlockHeader(1, 0), uintptr(camlgate.FromInt(7))}
	camlgate.SetSegment(unsafe.Pointer(&words[0]), uintptr(len(words))*camlgate.WordSize)
	defer camlgate.SetSegment(nil, 0)

	block := Of[colorInline, colorBlock, rgbCell](camlgate.Value(2 * camlgate.WordSize))
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Inline() on a block view did not panic")
			}
		}()
		block.Inline()
	}()
}

func TestOneLevelOnly(t *testing.T) {
	// A block whose field refers to another block: decoding the outer view
	// leaves the inner field as a raw Value for a second Of call.
	inner := camlgate.Value(2 * camlgate.WordSize)
	words := []uintptr{
		0,
		camlgate.BlockHeader(1, 0), // inner block, one immediate field
		uintptr(camlgate.FromInt(5)),
		camlgate.BlockHeader(1, 0), // outer block, field -> inner
		uintptr(inner),
	}
	camlgate.SetSegment(unsafe.Pointer(&words[0]), uintptr(len(words))*camlgate.WordSize)
	defer camlgate.SetSegment(nil, 0)

	outer := camlgate.Value(4 * camlgate.WordSize)

	type oneCell struct{ Inner camlgate.Value }
	m := Of[colorInline, colorBlock, oneCell](outer)
	_, cell := m.Block()
	if cell.Inner != inner {
		t.Fatalf("outer field = %#x, want %#x", uintptr(cell.Inner), uintptr(inner))
	}

	im := Of[colorInline, colorBlock, oneCell](cell.Inner)
	_, icell := im.Block()
	if got := icell.Inner.Int(); got != 5 {
		t.Errorf("inner field = %d, want 5", got)
	}
}
