package encoder

import "github.com/camlgate/camlgate/wat/internal/ast"

// Buffer accumulates binary output. The zero value is ready to use.
type Buffer struct {
	Bytes []byte
}

func (b *Buffer) AppendByte(v byte) {
	b.Bytes = append(b.Bytes, v)
}

func (b *Buffer) WriteBytes(data []byte) {
	b.Bytes = append(b.Bytes, data...)
}

// WriteU32 writes an unsigned LEB128 value.
func (b *Buffer) WriteU32(v uint32) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			b.AppendByte(byt)
			return
		}
		b.AppendByte(byt | 0x80)
	}
}

// WriteI32 writes a signed LEB128 value.
func (b *Buffer) WriteI32(v int32) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && byt&0x40 == 0) || (v == -1 && byt&0x40 != 0) {
			b.AppendByte(byt)
			return
		}
		b.AppendByte(byt | 0x80)
	}
}

// WriteI64 writes a signed LEB128 value.
func (b *Buffer) WriteI64(v int64) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && byt&0x40 == 0) || (v == -1 && byt&0x40 != 0) {
			b.AppendByte(byt)
			return
		}
		b.AppendByte(byt | 0x80)
	}
}

// WriteString writes a length-prefixed name.
func (b *Buffer) WriteString(s string) {
	b.WriteU32(uint32(len(s)))
	b.WriteBytes([]byte(s))
}

func (b *Buffer) WriteLimits(l ast.Limits) {
	if l.Max != nil {
		b.AppendByte(0x01)
		b.WriteU32(l.Min)
		b.WriteU32(*l.Max)
		return
	}
	b.AppendByte(0x00)
	b.WriteU32(l.Min)
}
