package scanner_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/wudi/inventorkit/scanner"
)

func TestTypedReads(t *testing.T) {
	buf := make([]byte, 0, 32)
	buf = append(buf, 0x2A)
	buf = binary.LittleEndian.AppendUint16(buf, 0xBEEF)
	buf = binary.LittleEndian.AppendUint32(buf, 0xDEADBEEF)
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(2.5))

	c := scanner.New(buf)
	if v, err := c.ReadUint8(); err != nil || v != 0x2A {
		t.Fatalf("uint8: %v %v", v, err)
	}
	if v, err := c.ReadUint16(); err != nil || v != 0xBEEF {
		t.Fatalf("uint16: %v %v", v, err)
	}
	if v, err := c.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("uint32: %v %v", v, err)
	}
	if v, err := c.ReadFloat64(); err != nil || v != 2.5 {
		t.Fatalf("float64: %v %v", v, err)
	}
	if c.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", c.Remaining())
	}
}

func TestTruncated(t *testing.T) {
	c := scanner.New([]byte{1, 2})
	if _, err := c.ReadUint32(); !errors.Is(err, scanner.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	// A failed read must not advance.
	if c.Pos() != 0 {
		t.Fatalf("pos moved to %d after failed read", c.Pos())
	}
}

func TestMarkRewind(t *testing.T) {
	c := scanner.New([]byte{1, 2, 3, 4})
	c.Mark()
	if _, err := c.ReadUint16(); err != nil {
		t.Fatal(err)
	}
	if err := c.Rewind(); err != nil {
		t.Fatal(err)
	}
	if c.Pos() != 0 {
		t.Fatalf("pos = %d after rewind", c.Pos())
	}
	if err := c.Rewind(); err == nil {
		t.Fatal("rewind without mark should fail")
	}
}

func TestReadLen32Text16(t *testing.T) {
	// "Länge" as count-prefixed UTF-16LE.
	text := "Länge"
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len([]rune(text))))
	for _, r := range text {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(r))
	}
	c := scanner.New(buf)
	got, err := c.ReadLen32Text16()
	if err != nil {
		t.Fatal(err)
	}
	if got != text {
		t.Fatalf("got %q, want %q", got, text)
	}
}

func TestReadFixedTextWindows1252(t *testing.T) {
	c := scanner.New([]byte{0xE9, 0x74, 0xE9}) // "été"
	got, err := c.ReadFixedText(3, scanner.TextWindows1252)
	if err != nil {
		t.Fatal(err)
	}
	if got != "été" {
		t.Fatalf("got %q", got)
	}
}

func TestReadGUID(t *testing.T) {
	// {8006A04C-ECC4-11D4-8DE9-0010B541CAA8} in wire order.
	wire := []byte{
		0x4C, 0xA0, 0x06, 0x80,
		0xC4, 0xEC,
		0xD4, 0x11,
		0x8D, 0xE9, 0x00, 0x10, 0xB5, 0x41, 0xCA, 0xA8,
	}
	c := scanner.New(wire)
	u, err := c.ReadGUID()
	if err != nil {
		t.Fatal(err)
	}
	if got := u.String(); got != "8006a04c-ecc4-11d4-8de9-0010b541caa8" {
		t.Fatalf("guid = %s", got)
	}
}

func TestSlice(t *testing.T) {
	c := scanner.New([]byte{0, 1, 2, 3, 4, 5})
	sub, err := c.Slice(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 3 {
		t.Fatalf("sub len = %d", sub.Len())
	}
	if v, _ := sub.ReadUint8(); v != 2 {
		t.Fatalf("sub[0] = %d", v)
	}
	if _, err := c.Slice(4, 4); !errors.Is(err, scanner.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
