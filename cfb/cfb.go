// Package cfb reads compound-document containers: the sectored storage format
// Inventor files are packaged in. The reader is strictly read-only; it exposes
// the storage/stream tree and raw stream bytes by path.
package cfb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrContainerCorrupt = errors.New("container corrupt")
	ErrStreamNotFound   = errors.New("stream not found")
)

var signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	secEndOfChain = 0xFFFFFFFE
	secFree       = 0xFFFFFFFF
	secFAT        = 0xFFFFFFFD
	secDIFAT      = 0xFFFFFFFC

	dirEntrySize = 128

	typeStorage = 1
	typeStream  = 2
	typeRoot    = 5
)

// EntryType discriminates directory entries.
type EntryType int

const (
	EntryStream EntryType = iota
	EntryStorage
)

// Entry is one node of the container's directory tree.
type Entry struct {
	Name  string
	Path  string // parent names joined with '/', root excluded
	Type  EntryType
	Size  int64
	CLSID uuid.UUID

	start uint32
	id    uint32
}

// Container is an opened compound document. It holds the source bytes
// read-only and resolves sector chains on demand.
type Container struct {
	data       []byte
	sectorSize int
	miniCutoff uint32

	fat     []uint32
	miniFAT []uint32
	mini    []byte // the root entry's mini stream, fully assembled

	entries []*Entry
	byPath  map[string]*Entry
}

// Open parses the container header, FAT and directory. A missing signature is
// ErrContainerCorrupt; no heuristic recovery is attempted.
func Open(data []byte) (*Container, error) {
	if len(data) < 512 {
		return nil, fmt.Errorf("%w: %d bytes is smaller than a header", ErrContainerCorrupt, len(data))
	}
	for i, b := range signature {
		if data[i] != b {
			return nil, fmt.Errorf("%w: bad signature", ErrContainerCorrupt)
		}
	}

	sectorShift := binary.LittleEndian.Uint16(data[30:])
	if sectorShift != 9 && sectorShift != 12 {
		return nil, fmt.Errorf("%w: sector shift %d", ErrContainerCorrupt, sectorShift)
	}
	c := &Container{
		data:       data,
		sectorSize: 1 << sectorShift,
		miniCutoff: binary.LittleEndian.Uint32(data[56:]),
		byPath:     make(map[string]*Entry),
	}

	numFAT := binary.LittleEndian.Uint32(data[44:])
	firstDir := binary.LittleEndian.Uint32(data[48:])
	firstMiniFAT := binary.LittleEndian.Uint32(data[60:])
	numMiniFAT := binary.LittleEndian.Uint32(data[64:])
	firstDIFAT := binary.LittleEndian.Uint32(data[68:])

	if err := c.readFAT(numFAT, firstDIFAT); err != nil {
		return nil, err
	}
	dir, err := c.readChain(firstDir, -1)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	root, err := c.readDirectory(dir)
	if err != nil {
		return nil, err
	}
	if numMiniFAT > 0 {
		mf, err := c.readChain(firstMiniFAT, -1)
		if err != nil {
			return nil, fmt.Errorf("mini FAT: %w", err)
		}
		c.miniFAT = make([]uint32, len(mf)/4)
		for i := range c.miniFAT {
			c.miniFAT[i] = binary.LittleEndian.Uint32(mf[4*i:])
		}
		if root != nil && root.Size > 0 {
			c.mini, err = c.readChain(root.start, root.Size)
			if err != nil {
				return nil, fmt.Errorf("mini stream: %w", err)
			}
		}
	}
	return c, nil
}

// Streams returns all stream paths in the container, sorted.
func (c *Container) Streams() []string {
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Type == EntryStream {
			out = append(out, e.Path)
		}
	}
	sort.Strings(out)
	return out
}

// Entries returns every directory entry (streams and storages) except the root.
func (c *Container) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ReadStream returns a copy of the named stream's bytes. Path components are
// joined with '/'; the root storage is not part of the path.
func (c *Container) ReadStream(path string) ([]byte, error) {
	e, ok := c.byPath[path]
	if !ok || e.Type != EntryStream {
		return nil, fmt.Errorf("%w: %q", ErrStreamNotFound, path)
	}
	if e.Size == 0 {
		return nil, nil
	}
	if uint32(e.Size) < c.miniCutoff {
		return c.readMiniChain(e.start, e.Size)
	}
	return c.readChain(e.start, e.Size)
}

func (c *Container) sector(id uint32) ([]byte, error) {
	off := (int64(id) + 1) * int64(c.sectorSize)
	if off < 0 || off+int64(c.sectorSize) > int64(len(c.data)) {
		return nil, fmt.Errorf("%w: sector %d out of range", ErrContainerCorrupt, id)
	}
	return c.data[off : off+int64(c.sectorSize)], nil
}

func (c *Container) readFAT(numFAT, firstDIFAT uint32) error {
	ids := make([]uint32, 0, numFAT)
	for i := 0; i < 109; i++ {
		ids = append(ids, binary.LittleEndian.Uint32(c.data[76+4*i:]))
	}
	perSector := c.sectorSize/4 - 1
	next := firstDIFAT
	for guard := 0; next != secEndOfChain && next != secFree; guard++ {
		if guard > len(c.data)/c.sectorSize {
			return fmt.Errorf("%w: DIFAT chain cycle", ErrContainerCorrupt)
		}
		sec, err := c.sector(next)
		if err != nil {
			return err
		}
		for i := 0; i < perSector; i++ {
			ids = append(ids, binary.LittleEndian.Uint32(sec[4*i:]))
		}
		next = binary.LittleEndian.Uint32(sec[c.sectorSize-4:])
	}

	entriesPerSector := c.sectorSize / 4
	c.fat = make([]uint32, 0, int(numFAT)*entriesPerSector)
	count := uint32(0)
	for _, id := range ids {
		if count == numFAT {
			break
		}
		if id == secFree {
			continue
		}
		sec, err := c.sector(id)
		if err != nil {
			return fmt.Errorf("FAT sector: %w", err)
		}
		for i := 0; i < entriesPerSector; i++ {
			c.fat = append(c.fat, binary.LittleEndian.Uint32(sec[4*i:]))
		}
		count++
	}
	if count != numFAT {
		return fmt.Errorf("%w: %d of %d FAT sectors present", ErrContainerCorrupt, count, numFAT)
	}
	return nil
}

// readChain assembles a regular sector chain. size < 0 keeps whole sectors.
func (c *Container) readChain(start uint32, size int64) ([]byte, error) {
	var out []byte
	id := start
	for guard := 0; id != secEndOfChain; guard++ {
		if guard > len(c.fat) {
			return nil, fmt.Errorf("%w: sector chain cycle at %d", ErrContainerCorrupt, start)
		}
		sec, err := c.sector(id)
		if err != nil {
			return nil, err
		}
		out = append(out, sec...)
		if int(id) >= len(c.fat) {
			return nil, fmt.Errorf("%w: sector %d beyond FAT", ErrContainerCorrupt, id)
		}
		id = c.fat[id]
	}
	if size >= 0 {
		if int64(len(out)) < size {
			return nil, fmt.Errorf("%w: chain holds %d bytes, need %d", ErrContainerCorrupt, len(out), size)
		}
		out = out[:size]
	}
	return out, nil
}

func (c *Container) readMiniChain(start uint32, size int64) ([]byte, error) {
	var out []byte
	id := start
	for guard := 0; id != secEndOfChain; guard++ {
		if guard > len(c.miniFAT) {
			return nil, fmt.Errorf("%w: mini chain cycle at %d", ErrContainerCorrupt, start)
		}
		off := int(id) * 64
		if off+64 > len(c.mini) {
			return nil, fmt.Errorf("%w: mini sector %d out of range", ErrContainerCorrupt, id)
		}
		out = append(out, c.mini[off:off+64]...)
		if int(id) >= len(c.miniFAT) {
			return nil, fmt.Errorf("%w: mini sector %d beyond mini FAT", ErrContainerCorrupt, id)
		}
		id = c.miniFAT[id]
	}
	if int64(len(out)) < size {
		return nil, fmt.Errorf("%w: mini chain holds %d bytes, need %d", ErrContainerCorrupt, len(out), size)
	}
	return out[:size], nil
}

type dirRecord struct {
	entry *Entry
	kind  uint8
	left  uint32
	right uint32
	child uint32
}

func (c *Container) readDirectory(dir []byte) (*Entry, error) {
	n := len(dir) / dirEntrySize
	records := make([]*dirRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := dir[i*dirEntrySize : (i+1)*dirEntrySize]
		kind := rec[66]
		if kind != typeStorage && kind != typeStream && kind != typeRoot {
			records = append(records, nil)
			continue
		}
		nameLen := int(binary.LittleEndian.Uint16(rec[64:]))
		if nameLen < 2 || nameLen > 64 {
			records = append(records, nil)
			continue
		}
		name := decodeUTF16LE(rec[:nameLen-2])
		var clsid uuid.UUID
		clsid[0], clsid[1], clsid[2], clsid[3] = rec[83], rec[82], rec[81], rec[80]
		clsid[4], clsid[5] = rec[85], rec[84]
		clsid[6], clsid[7] = rec[87], rec[86]
		copy(clsid[8:], rec[88:96])
		e := &Entry{
			Name:  name,
			Size:  int64(binary.LittleEndian.Uint64(rec[120:])),
			CLSID: clsid,
			start: binary.LittleEndian.Uint32(rec[116:]),
			id:    uint32(i),
		}
		if c.sectorSize == 512 {
			// v3 files only define the low half of the size field.
			e.Size = int64(binary.LittleEndian.Uint32(rec[120:]))
		}
		if kind == typeStream {
			e.Type = EntryStream
		} else {
			e.Type = EntryStorage
		}
		records = append(records, &dirRecord{
			entry: e,
			kind:  kind,
			left:  binary.LittleEndian.Uint32(rec[68:]),
			right: binary.LittleEndian.Uint32(rec[72:]),
			child: binary.LittleEndian.Uint32(rec[76:]),
		})
	}
	if len(records) == 0 || records[0] == nil || records[0].kind != typeRoot {
		return nil, fmt.Errorf("%w: missing root directory entry", ErrContainerCorrupt)
	}

	visited := make(map[uint32]bool)
	var walk func(id uint32, prefix string) error
	walk = func(id uint32, prefix string) error {
		if id == secFree || int(id) >= len(records) || records[id] == nil {
			return nil
		}
		if visited[id] {
			return fmt.Errorf("%w: directory tree cycle at entry %d", ErrContainerCorrupt, id)
		}
		visited[id] = true
		rec := records[id]
		if err := walk(rec.left, prefix); err != nil {
			return err
		}
		e := rec.entry
		e.Path = prefix + e.Name
		c.entries = append(c.entries, e)
		c.byPath[e.Path] = e
		if rec.kind == typeStorage {
			if err := walk(rec.child, e.Path+"/"); err != nil {
				return err
			}
		}
		return walk(rec.right, prefix)
	}
	if err := walk(records[0].child, ""); err != nil {
		return nil, err
	}
	return records[0].entry, nil
}

func decodeUTF16LE(b []byte) string {
	var sb strings.Builder
	for i := 0; i+1 < len(b); i += 2 {
		r := rune(binary.LittleEndian.Uint16(b[i:]))
		if r == 0 {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
