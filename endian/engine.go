// Package endian provides the byte order used by codecbench's binary frames
// together with a bounds-checked cursor for decoding them.
//
// All frames produced by the reference engine are little-endian regardless of
// the host, so decoding a frame on a big-endian machine yields the same values.
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, magic)
//	cur := endian.NewCursor(engine, buf)
//	v, ok := cur.Uint32()
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness reports the host byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Cursor reads fixed-width integers sequentially from a byte slice.
//
// Every read reports false instead of panicking when the slice is exhausted,
// and leaves the cursor unchanged.
type Cursor struct {
	engine EndianEngine
	buf    []byte
	off    int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(engine EndianEngine, buf []byte) *Cursor {
	return &Cursor{engine: engine, buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the unread tail of the buffer.
func (c *Cursor) Remaining() []byte {
	return c.buf[c.off:]
}

func (c *Cursor) Uint8() (uint8, bool) {
	if len(c.buf)-c.off < 1 {
		return 0, false
	}
	v := c.buf[c.off]
	c.off++

	return v, true
}

func (c *Cursor) Uint32() (uint32, bool) {
	if len(c.buf)-c.off < 4 {
		return 0, false
	}
	v := c.engine.Uint32(c.buf[c.off:])
	c.off += 4

	return v, true
}

func (c *Cursor) Uint64() (uint64, bool) {
	if len(c.buf)-c.off < 8 {
		return 0, false
	}
	v := c.engine.Uint64(c.buf[c.off:])
	c.off += 8

	return v, true
}
