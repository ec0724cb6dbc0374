package scanner

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding selects how string payloads are decoded. The container's format
// version decides which encoding a given stream uses: meta-stream versions up
// to 4 store single-byte codepage text, later versions store UTF-16LE.
type TextEncoding int

const (
	TextUTF16LE TextEncoding = iota
	TextWindows1252
	TextUTF8
)

func (e TextEncoding) decoder() *encoding.Decoder {
	switch e {
	case TextWindows1252:
		return charmap.Windows1252.NewDecoder()
	case TextUTF8:
		return encoding.Nop.NewDecoder()
	default:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	}
}

func (e TextEncoding) width() int {
	if e == TextUTF16LE {
		return 2
	}
	return 1
}

// ReadLen32Text reads a uint32 character count followed by that many
// characters in the given encoding.
func (c *Cursor) ReadLen32Text(enc TextEncoding) (string, error) {
	n, err := c.ReadUint32()
	if err != nil {
		return "", err
	}
	return c.ReadFixedText(int(n), enc)
}

// ReadLen32Text16 reads a uint32 count of UTF-16 code units followed by the
// units themselves. This is the dominant string layout in DC segments.
func (c *Cursor) ReadLen32Text16() (string, error) {
	return c.ReadLen32Text(TextUTF16LE)
}

// ReadFixedText reads n characters in the given encoding.
func (c *Cursor) ReadFixedText(n int, enc TextEncoding) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("negative text length %d: %w", n, ErrTruncated)
	}
	raw, err := c.ReadBytes(n * enc.width())
	if err != nil {
		return "", err
	}
	out, err := enc.decoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}
