package camlgate

import (
	"testing"
	"unsafe"
)

func TestIntRoundTrip(t *testing.T) {
	ints := []int{0, 1, -1, 2, -2, 42, -42, 1 << 20, -(1 << 20), 1<<62 - 1, -(1 << 62)}
	for _, i := range ints {
		v := FromInt(i)
		if !v.IsImmediate() {
			t.Errorf("FromInt(%d).IsImmediate() = false, want true", i)
		}
		if v.IsBlock() {
			t.Errorf("FromInt(%d).IsBlock() = true, want false", i)
		}
		if got := v.Int(); got != i {
			t.Errorf("FromInt(%d).Int() = %d, want %d", i, got, i)
		}
	}
}

func TestImmediateNeverEqualsBlock(t *testing.T) {
	// Block references are word-aligned offsets, so their low bit is 0.
	for _, off := range []Value{Value(WordSize), Value(4 * WordSize), Value(100 * WordSize)} {
		if off.IsImmediate() {
			t.Errorf("offset %#x classified as immediate", uintptr(off))
		}
	}
	for _, i := range []int{0, 1, -3, 1 << 40} {
		if FromInt(i).IsBlock() {
			t.Errorf("FromInt(%d) classified as block", i)
		}
	}
}

func TestHeaderCodec(t *testing.T) {
	tests := []struct {
		size int
		tag  uint8
	}{
		{0, 0},
		{1, 0},
		{2, 3},
		{255, 255},
		{1 << 20, 7},
	}
	for _, tt := range tests {
		h := BlockHeader(tt.size, tt.tag)
		if got := HeaderSize(h); got != tt.size {
			t.Errorf("HeaderSize(BlockHeader(%d, %d)) = %d, want %d", tt.size, tt.tag, got, tt.size)
		}
		if got := HeaderTag(h); got != tt.tag {
			t.Errorf("HeaderTag(BlockHeader(%d, %d)) = %d, want %d", tt.size, tt.tag, got, tt.tag)
		}
	}
}

func TestBlockReads(t *testing.T) {
	// Hand-built segment: one reserved word, a header, two fields.
	words := []uintptr{
		0,
		BlockHeader(2, 5),
		uintptr(FromInt(7)),
		uintptr(FromInt(-9)),
	}
	SetSegment(unsafe.Pointer(&words[0]), uintptr(len(words))*WordSize)
	defer SetSegment(nil, 0)

	v := Value(2 * WordSize)
	if !v.IsBlock() {
		t.Fatalf("IsBlock() = false for offset %#x", uintptr(v))
	}
	if got := v.Tag(); got != 5 {
		t.Errorf("Tag() = %d, want 5", got)
	}
	if got := v.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}
	if got := v.Field(0); got != FromInt(7) {
		t.Errorf("Field(0) = %#x, want FromInt(7)", uintptr(got))
	}
	if got := v.Field(1); got != FromInt(-9) {
		t.Errorf("Field(1) = %#x, want FromInt(-9)", uintptr(got))
	}
	if got := v.FieldsPointer(); got != unsafe.Pointer(&words[2]) {
		t.Errorf("FieldsPointer() = %p, want %p", got, unsafe.Pointer(&words[2]))
	}

	base, size := Segment()
	if base != unsafe.Pointer(&words[0]) || size != uintptr(len(words))*WordSize {
		t.Errorf("Segment() = (%p, %d), want (%p, %d)", base, size, unsafe.Pointer(&words[0]), uintptr(len(words))*WordSize)
	}
}
