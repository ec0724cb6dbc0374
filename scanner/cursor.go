// Package scanner provides a position-tracked cursor over a decompressed
// segment buffer. All multi-byte reads are little-endian; every read advances
// the position and fails with ErrTruncated when insufficient bytes remain.
package scanner

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

var ErrTruncated = errors.New("truncated data")

// Cursor reads typed values from an in-memory buffer. It supports mark/rewind
// for the lookahead needed by variable-layout records and never pads past the
// end of the buffer.
type Cursor struct {
	data  []byte
	pos   int
	marks []int
}

func New(data []byte) *Cursor { return &Cursor{data: data} }

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) Len() int       { return len(c.data) }
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return fmt.Errorf("seek to %d of %d: %w", pos, len(c.data), ErrTruncated)
	}
	c.pos = pos
	return nil
}

func (c *Cursor) Skip(n int) error {
	return c.Seek(c.pos + n)
}

// Mark remembers the current position. Marks nest.
func (c *Cursor) Mark() { c.marks = append(c.marks, c.pos) }

// Rewind returns to the most recent mark and consumes it.
func (c *Cursor) Rewind() error {
	if len(c.marks) == 0 {
		return errors.New("rewind without mark")
	}
	c.pos = c.marks[len(c.marks)-1]
	c.marks = c.marks[:len(c.marks)-1]
	return nil
}

// Unmark discards the most recent mark without moving.
func (c *Cursor) Unmark() {
	if len(c.marks) > 0 {
		c.marks = c.marks[:len(c.marks)-1]
	}
}

func (c *Cursor) need(n int) error {
	if c.Remaining() < n {
		return fmt.Errorf("need %d bytes at offset %d of %d: %w", n, c.pos, len(c.data), ErrTruncated)
	}
	return nil
}

func (c *Cursor) ReadUint8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *Cursor) ReadBool() (bool, error) {
	v, err := c.ReadUint8()
	return v != 0, err
}

func (c *Cursor) ReadUint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *Cursor) ReadUint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *Cursor) ReadUint64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	return math.Float32frombits(v), err
}

func (c *Cursor) ReadFloat64() (float64, error) {
	v, err := c.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadFloat64A reads n consecutive doubles.
func (c *Cursor) ReadFloat64A(n int) ([]float64, error) {
	if err := c.need(8 * n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(c.data[c.pos+8*i:]))
	}
	c.pos += 8 * n
	return out, nil
}

// ReadUint32A reads n consecutive uint32 values.
func (c *Cursor) ReadUint32A(n int) ([]uint32, error) {
	if err := c.need(4 * n); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(c.data[c.pos+4*i:])
	}
	c.pos += 4 * n
	return out, nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length %d: %w", n, ErrTruncated)
	}
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.data[c.pos:])
	c.pos += n
	return out, nil
}

// Slice returns a sub-cursor over [off, off+n) without moving this cursor.
func (c *Cursor) Slice(off, n int) (*Cursor, error) {
	if off < 0 || n < 0 || off+n > len(c.data) {
		return nil, fmt.Errorf("slice [%d:%d] of %d: %w", off, off+n, len(c.data), ErrTruncated)
	}
	return New(c.data[off : off+n]), nil
}

// ReadGUID reads a 16-byte GUID in Microsoft mixed-endian wire order.
func (c *Cursor) ReadGUID() (uuid.UUID, error) {
	if err := c.need(16); err != nil {
		return uuid.Nil, err
	}
	b := c.data[c.pos:]
	var u uuid.UUID
	// data1..data3 are little-endian on the wire, data4 is a byte array.
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	c.pos += 16
	return u, nil
}
