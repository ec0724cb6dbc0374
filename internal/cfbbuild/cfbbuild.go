// Package cfbbuild assembles minimal compound-document containers in memory.
// It exists for the test suites: the decoder is read-only, so fixtures are
// synthesized rather than checked in as binary files.
package cfbbuild

import (
	"encoding/binary"
	"sort"
	"strings"
)

const (
	sectorSize    = 512
	endOfChain    = 0xFFFFFFFE
	freeSector    = 0xFFFFFFFF
	fatSector     = 0xFFFFFFFD
	noStream      = 0xFFFFFFFF
	typeUnknown   = 0
	typeStorage   = 1
	typeStream    = 2
	typeRoot      = 5
	dirEntryBytes = 128
)

type node struct {
	name     string
	isStream bool
	data     []byte
	children map[string]*node
	order    []string
}

func newNode(name string, stream bool) *node {
	return &node{name: name, isStream: stream, children: map[string]*node{}}
}

// Builder accumulates streams and emits a version-3 container (512-byte
// sectors, all streams in regular chains).
type Builder struct {
	root *node
}

func New() *Builder {
	return &Builder{root: newNode("Root Entry", false)}
}

// AddStream registers stream bytes at a '/'-separated path, creating
// intermediate storages as needed.
func (b *Builder) AddStream(path string, data []byte) *Builder {
	parts := strings.Split(path, "/")
	cur := b.root
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur.children[p]
		if !ok {
			next = newNode(p, false)
			cur.children[p] = next
			cur.order = append(cur.order, p)
		}
		cur = next
	}
	leaf := parts[len(parts)-1]
	if _, ok := cur.children[leaf]; !ok {
		cur.order = append(cur.order, leaf)
	}
	n := newNode(leaf, true)
	n.data = data
	cur.children[leaf] = n
	return b
}

type flatEntry struct {
	n     *node
	kind  uint8
	left  uint32
	right uint32
	child uint32
	start uint32
	size  uint32
}

// Bytes lays out sectors and returns the finished container image.
func (b *Builder) Bytes() []byte {
	var sectors [][]byte
	var fat []uint32

	appendSector := func(data []byte) uint32 {
		id := uint32(len(sectors))
		sec := make([]byte, sectorSize)
		copy(sec, data)
		sectors = append(sectors, sec)
		fat = append(fat, endOfChain)
		return id
	}
	appendChain := func(data []byte) (uint32, bool) {
		if len(data) == 0 {
			return endOfChain, false
		}
		first := appendSector(data)
		prev := first
		for off := sectorSize; off < len(data); off += sectorSize {
			id := appendSector(data[off:])
			fat[prev] = id
			prev = id
		}
		return first, true
	}

	// Flatten the tree depth-first; ids are assigned in visit order.
	entries := []*flatEntry{{n: b.root, kind: typeRoot, left: noStream, right: noStream, child: noStream}}
	var flatten func(parent *flatEntry, n *node)
	flatten = func(parent *flatEntry, n *node) {
		var prev *flatEntry
		for _, name := range n.order {
			child := n.children[name]
			kind := uint8(typeStorage)
			if child.isStream {
				kind = typeStream
			}
			fe := &flatEntry{n: child, kind: kind, left: noStream, right: noStream, child: noStream}
			id := uint32(len(entries))
			entries = append(entries, fe)
			if prev == nil {
				parent.child = id
			} else {
				prev.right = id
			}
			prev = fe
			if !child.isStream {
				flatten(fe, child)
			}
		}
	}
	flatten(entries[0], b.root)

	// Stream payloads first.
	for _, fe := range entries {
		if fe.kind != typeStream {
			fe.start = endOfChain
			continue
		}
		start, ok := appendChain(fe.n.data)
		if !ok {
			start = endOfChain
		}
		fe.start = start
		fe.size = uint32(len(fe.n.data))
	}

	// Directory sectors.
	dir := make([]byte, 0, len(entries)*dirEntryBytes)
	for _, fe := range entries {
		dir = append(dir, dirEntry(fe)...)
	}
	for len(dir)%sectorSize != 0 {
		pad := make([]byte, dirEntryBytes)
		pad[66] = typeUnknown
		binary.LittleEndian.PutUint32(pad[68:], noStream)
		binary.LittleEndian.PutUint32(pad[72:], noStream)
		binary.LittleEndian.PutUint32(pad[76:], noStream)
		dir = append(dir, pad...)
	}
	firstDir, _ := appendChain(dir)

	// FAT sectors cover every sector including themselves.
	fatPerSector := sectorSize / 4
	numFAT := 0
	for {
		need := (len(fat) + numFAT + fatPerSector - 1) / fatPerSector
		if need == numFAT {
			break
		}
		numFAT = need
	}
	firstFAT := uint32(len(sectors))
	for i := 0; i < numFAT; i++ {
		appendSector(nil)
		fat[len(fat)-1] = fatSector
	}
	fatImage := make([]byte, numFAT*sectorSize)
	for i, v := range fat {
		binary.LittleEndian.PutUint32(fatImage[4*i:], v)
	}
	for i := len(fat); i < numFAT*fatPerSector; i++ {
		binary.LittleEndian.PutUint32(fatImage[4*i:], freeSector)
	}
	for i := 0; i < numFAT; i++ {
		copy(sectors[int(firstFAT)+i], fatImage[i*sectorSize:])
	}

	header := make([]byte, sectorSize)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(header[24:], 0x003E) // minor version
	binary.LittleEndian.PutUint16(header[26:], 3)      // major version
	binary.LittleEndian.PutUint16(header[28:], 0xFFFE) // byte order
	binary.LittleEndian.PutUint16(header[30:], 9)      // sector shift
	binary.LittleEndian.PutUint16(header[32:], 6)      // mini sector shift
	binary.LittleEndian.PutUint32(header[44:], uint32(numFAT))
	binary.LittleEndian.PutUint32(header[48:], firstDir)
	binary.LittleEndian.PutUint32(header[56:], 1) // mini cutoff: nothing goes mini
	binary.LittleEndian.PutUint32(header[60:], endOfChain)
	binary.LittleEndian.PutUint32(header[68:], endOfChain)
	for i := 0; i < 109; i++ {
		v := uint32(freeSector)
		if i < numFAT {
			v = firstFAT + uint32(i)
		}
		binary.LittleEndian.PutUint32(header[76+4*i:], v)
	}

	out := header
	for _, s := range sectors {
		out = append(out, s...)
	}
	return out
}

func dirEntry(fe *flatEntry) []byte {
	rec := make([]byte, dirEntryBytes)
	name := fe.n.name
	for i, r := range name {
		if i >= 31 {
			break
		}
		binary.LittleEndian.PutUint16(rec[2*i:], uint16(r))
	}
	nameLen := len([]rune(name))
	if nameLen > 31 {
		nameLen = 31
	}
	binary.LittleEndian.PutUint16(rec[64:], uint16(2*nameLen+2))
	rec[66] = fe.kind
	binary.LittleEndian.PutUint32(rec[68:], fe.left)
	binary.LittleEndian.PutUint32(rec[72:], fe.right)
	binary.LittleEndian.PutUint32(rec[76:], fe.child)
	binary.LittleEndian.PutUint32(rec[116:], fe.start)
	binary.LittleEndian.PutUint32(rec[120:], fe.size)
	return rec
}

// Paths returns all registered stream paths, sorted. Used by tests to compare
// against Container.Streams.
func (b *Builder) Paths() []string {
	var out []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		for _, name := range n.order {
			child := n.children[name]
			if child.isStream {
				out = append(out, prefix+name)
			} else {
				walk(prefix+name+"/", child)
			}
		}
	}
	walk("", b.root)
	sort.Strings(out)
	return out
}
