// Package raw decodes segment payloads into typed node arenas. An M-segment
// stream carries the structural directory (type table plus record directory);
// its paired B-segment stream carries the record payloads. Records whose type
// is not structurally known decode to opaque nodes, raw bytes preserved.
package raw

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/catalog"
	"github.com/wudi/inventorkit/diag"
	"github.com/wudi/inventorkit/scanner"
)

var ErrDirectoryCorrupt = errors.New("segment directory corrupt")

// FlagFeature marks a record as a feature tree entry in the record directory.
// It is how feature records stay recognizable even when their payload type has
// no structural decoding.
const FlagFeature uint16 = 0x0001

// RefKind mirrors how the original format distinguishes node references.
type RefKind int

const (
	RefChild RefKind = iota
	RefCross
	RefParent
)

// Ref is an unresolved reference to another node: an index into an arena,
// never a pointer. Index 0 means "no node". A non-nil Segment UID points the
// reference at another segment's arena.
type Ref struct {
	Name    string
	Kind    RefKind
	Index   int
	Segment uuid.UUID
}

func (r Ref) IsNil() bool { return r.Index == 0 }

// Node is one decoded record. Field sets are version dependent, so values are
// kept in a name→value map the way the segment readers emitted them;
// references are kept separately in wire order.
type Node struct {
	Index    int // 1-based position in the owning arena
	TypeID   uuid.UUID
	TypeName string
	Version  int
	Flags    uint16 // record directory flags
	Attrs    map[string]interface{}
	Refs     []Ref
	Raw      []byte // opaque nodes only
	Opaque   bool
}

func newNode(index int, typeID uuid.UUID, version int) *Node {
	return &Node{Index: index, TypeID: typeID, Version: version, Attrs: map[string]interface{}{}}
}

func (n *Node) set(name string, v interface{}) { n.Attrs[name] = v }

func (n *Node) Float(name string) float64 {
	v, _ := n.Attrs[name].(float64)
	return v
}

func (n *Node) Str(name string) string {
	v, _ := n.Attrs[name].(string)
	return v
}

func (n *Node) Uint(name string) uint32 {
	v, _ := n.Attrs[name].(uint32)
	return v
}

func (n *Node) Bool(name string) bool {
	v, _ := n.Attrs[name].(bool)
	return v
}

// Ref returns the first reference recorded under name.
func (n *Node) Ref(name string) (Ref, bool) {
	for _, r := range n.Refs {
		if r.Name == name {
			return r, true
		}
	}
	return Ref{}, false
}

// RefList returns every reference recorded under name, in wire order.
func (n *Node) RefList(name string) []Ref {
	var out []Ref
	for _, r := range n.Refs {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// Arena owns the nodes decoded from one segment. Nodes hold only indices into
// their arena, sidestepping lifetime issues in cyclic object graphs.
type Arena struct {
	Name    string
	UID     uuid.UUID
	Type    catalog.SegmentType
	Version int
	Nodes   []*Node
}

// Node returns the node at a 1-based index, or nil when out of range.
func (a *Arena) Node(index int) *Node {
	if index < 1 || index > len(a.Nodes) {
		return nil
	}
	return a.Nodes[index-1]
}

// RecordInfo locates one record inside the B-segment payload.
type RecordInfo struct {
	Offset    uint32
	Size      uint32
	TypeIndex uint16
	Flags     uint16
}

// Directory is the decoded M-segment: the local type table and the record
// directory into the paired B-segment.
type Directory struct {
	Types   []uuid.UUID
	Records []RecordInfo
}

// DecodeDirectory reads an M-segment stream.
func DecodeDirectory(data []byte) (*Directory, error) {
	c := scanner.New(data)
	typeCount, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryCorrupt, err)
	}
	if int(typeCount)*16 > c.Remaining() {
		return nil, fmt.Errorf("%w: %d types declared, %d bytes remain", ErrDirectoryCorrupt, typeCount, c.Remaining())
	}
	d := &Directory{Types: make([]uuid.UUID, typeCount)}
	for i := range d.Types {
		if d.Types[i], err = c.ReadGUID(); err != nil {
			return nil, fmt.Errorf("%w: type %d: %v", ErrDirectoryCorrupt, i, err)
		}
	}
	recordCount, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryCorrupt, err)
	}
	if int(recordCount)*12 > c.Remaining() {
		return nil, fmt.Errorf("%w: %d records declared, %d bytes remain", ErrDirectoryCorrupt, recordCount, c.Remaining())
	}
	d.Records = make([]RecordInfo, recordCount)
	for i := range d.Records {
		r := &d.Records[i]
		if r.Offset, err = c.ReadUint32(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDirectoryCorrupt, i, err)
		}
		if r.Size, err = c.ReadUint32(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDirectoryCorrupt, i, err)
		}
		if r.TypeIndex, err = c.ReadUint16(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDirectoryCorrupt, i, err)
		}
		if r.Flags, err = c.ReadUint16(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDirectoryCorrupt, i, err)
		}
	}
	return d, nil
}

// DecodeSegment turns an M/B stream pair into a node arena. Record-local
// failures (unknown type, truncation, bad byte range) degrade that record to
// an opaque node and a diagnostic; only a corrupt directory fails the segment.
func DecodeSegment(entry catalog.Entry, mData, bData []byte, sink *diag.Sink) (*Arena, error) {
	dir, err := DecodeDirectory(mData)
	if err != nil {
		return nil, err
	}
	arena := &Arena{
		Name:    entry.Name,
		UID:     entry.UID,
		Type:    entry.Type,
		Version: entry.Version,
		Nodes:   make([]*Node, 0, len(dir.Records)),
	}
	loc := func(i int) diag.Location {
		return diag.Location{Segment: entry.Name, NodeIndex: i + 1}
	}
	for i, rec := range dir.Records {
		index := i + 1
		var typeID uuid.UUID
		if int(rec.TypeIndex) < len(dir.Types) {
			typeID = dir.Types[rec.TypeIndex]
		}
		node := newNode(index, typeID, entry.Version)
		node.Flags = rec.Flags

		end := int64(rec.Offset) + int64(rec.Size)
		if end > int64(len(bData)) {
			sink.Warnf(diag.CodeTruncatedData, loc(i), "record range [%d,%d) exceeds %d payload bytes", rec.Offset, end, len(bData))
			node.Opaque = true
			arena.Nodes = append(arena.Nodes, node)
			continue
		}
		payload := bData[rec.Offset:end]

		reader := lookupReader(typeID)
		if reader == nil {
			node.Opaque = true
			node.Raw = append([]byte(nil), payload...)
			node.TypeName = fmt.Sprintf("%08X", typeID[0:4])
			sink.Warnf(diag.CodeOpaqueNode, loc(i), "no structural decoding for type %s", typeID)
			arena.Nodes = append(arena.Nodes, node)
			continue
		}

		rr := &recordReader{cursor: scanner.New(payload), node: node, version: entry.Version}
		if err := reader.read(rr); err != nil {
			// Degrade, keep the raw bytes, keep going.
			opaque := newNode(index, typeID, entry.Version)
			opaque.Flags = rec.Flags
			opaque.Opaque = true
			opaque.Raw = append([]byte(nil), payload...)
			opaque.TypeName = reader.name
			sink.Warnf(diag.CodeTruncatedData, loc(i), "decode %s: %v", reader.name, err)
			arena.Nodes = append(arena.Nodes, opaque)
			continue
		}
		node.TypeName = reader.name
		arena.Nodes = append(arena.Nodes, node)
	}
	return arena, nil
}
