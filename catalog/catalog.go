// Package catalog decodes the container's top-level database: the RSeDb
// header describing the file, the RSeSegInfo directory describing which named
// segments exist, and the RSeDbRevisionInfo history. The meta-stream version
// (3–8) selects the field layout; layouts are dispatched from a closed table,
// never inferred from byte content.
package catalog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/scanner"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported meta-stream version")
	ErrCatalogCorrupt     = errors.New("catalog corrupt")
)

const (
	// MinVersion and MaxVersion bound the known meta-stream versions
	// (Inventor releases 2003 through 2018).
	MinVersion = 3
	MaxVersion = 8
)

// DocumentKind is the top-level file type flag. It affects which feature and
// geometry interpretation rules apply, not the container or catalog format.
type DocumentKind uint16

const (
	KindUnknown      DocumentKind = 0
	KindAssembly     DocumentKind = 1
	KindDrawing      DocumentKind = 2
	KindPart         DocumentKind = 3
	KindPresentation DocumentKind = 4
)

func (k DocumentKind) String() string {
	switch k {
	case KindAssembly:
		return "assembly"
	case KindDrawing:
		return "drawing"
	case KindPart:
		return "part"
	case KindPresentation:
		return "presentation"
	}
	return "unknown"
}

// SegmentType tags what a segment stream carries.
type SegmentType uint16

const (
	SegUnknown  SegmentType = 0
	SegApp      SegmentType = 1 // browser tree, naming
	SegGraphics SegmentType = 2
	SegDC       SegmentType = 3 // document content: sketches, parameters, features
	SegBRep     SegmentType = 4
	SegResult   SegmentType = 5
	SegNotebook SegmentType = 6
	SegDesign   SegmentType = 7
)

func (t SegmentType) String() string {
	switch t {
	case SegApp:
		return "App"
	case SegGraphics:
		return "Graphics"
	case SegDC:
		return "DC"
	case SegBRep:
		return "BRep"
	case SegResult:
		return "Result"
	case SegNotebook:
		return "Notebook"
	case SegDesign:
		return "DesignView"
	}
	return "Unknown"
}

// Db is the decoded RSeDb header.
type Db struct {
	Version  int
	UID      uuid.UUID
	Kind     DocumentKind
	Flags    uint16
	Created  uint64 // FILETIME, raw
	Modified uint64 // FILETIME, raw
	Comment  string
}

// Entry describes one physical segment: which stream holds it, the byte range
// within that stream, and how the payload is encoded. Entries are immutable
// once decoded.
type Entry struct {
	Name       string
	UID        uuid.UUID
	Type       SegmentType
	Version    int
	Offset     uint32
	Length     uint32
	Inflated   uint32 // declared size after decompression; 0 when stored raw
	Compressed bool
	Checksum   uint32 // present from version 5 on
}

// Revision is one RSeDbRevisionInfo record.
type Revision struct {
	UID   uuid.UUID
	Index uint32
	Label string
}

// DecodeDb reads the RSeDb header. For versions outside the known range the
// best-effort header read so far is returned together with
// ErrUnsupportedVersion; the caller may choose to continue with it.
func DecodeDb(data []byte) (*Db, error) {
	c := scanner.New(data)
	version, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
	}
	db := &Db{Version: int(version)}
	if db.UID, err = c.ReadGUID(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
	}
	kind, err := c.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
	}
	db.Kind = DocumentKind(kind)
	if db.Flags, err = c.ReadUint16(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
	}
	if version < MinVersion || version > MaxVersion {
		return db, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	// Additive fields per version; the layout table is closed.
	if version >= 4 {
		if db.Created, err = c.ReadUint64(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
		}
		if db.Modified, err = c.ReadUint64(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
		}
	}
	if version >= 6 {
		if db.Comment, err = c.ReadLen32Text16(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
		}
	}
	return db, nil
}

// entrySize returns the fixed byte cost of one directory entry beyond its
// variable-length name, for the declared-count sanity check.
func entrySize(version int) int {
	n := 16 + 2 + 2 + 4 + 4 + 4 + 1 // uid, type, version, offset, length, inflated, compressed
	if version >= 5 {
		n += 4 // checksum
	}
	return n
}

// DecodeSegInfo reads the segment directory. The declared entry count is
// checked against the remaining bytes before any entry is read; a disagreement
// is ErrCatalogCorrupt.
func DecodeSegInfo(data []byte, version int) ([]Entry, error) {
	if version < MinVersion || version > MaxVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	c := scanner.New(data)
	count, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
	}
	// Each entry costs at least its fixed fields plus the name length prefix.
	if min := int(count) * (entrySize(version) + 4); min > c.Remaining() {
		return nil, fmt.Errorf("%w: %d entries declared, %d bytes remain", ErrCatalogCorrupt, count, c.Remaining())
	}
	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeEntry(c, version)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCatalogCorrupt, i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeEntry(c *scanner.Cursor, version int) (Entry, error) {
	var e Entry
	var err error
	if e.Name, err = c.ReadLen32Text16(); err != nil {
		return e, err
	}
	if e.UID, err = c.ReadGUID(); err != nil {
		return e, err
	}
	typ, err := c.ReadUint16()
	if err != nil {
		return e, err
	}
	e.Type = SegmentType(typ)
	segVersion, err := c.ReadUint16()
	if err != nil {
		return e, err
	}
	e.Version = int(segVersion)
	if e.Offset, err = c.ReadUint32(); err != nil {
		return e, err
	}
	if e.Length, err = c.ReadUint32(); err != nil {
		return e, err
	}
	if e.Inflated, err = c.ReadUint32(); err != nil {
		return e, err
	}
	if e.Compressed, err = c.ReadBool(); err != nil {
		return e, err
	}
	if version >= 5 {
		if e.Checksum, err = c.ReadUint32(); err != nil {
			return e, err
		}
	}
	return e, nil
}

// DecodeRevisions reads RSeDbRevisionInfo. Revisions are informational; a
// truncated tail yields the records read so far plus an error.
func DecodeRevisions(data []byte) ([]Revision, error) {
	c := scanner.New(data)
	count, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogCorrupt, err)
	}
	// Each revision costs at least its uid, index and label length prefix.
	if min := int(count) * (16 + 4 + 4); min > c.Remaining() {
		return nil, fmt.Errorf("%w: %d revisions declared, %d bytes remain", ErrCatalogCorrupt, count, c.Remaining())
	}
	out := make([]Revision, 0, count)
	for i := uint32(0); i < count; i++ {
		var r Revision
		if r.UID, err = c.ReadGUID(); err != nil {
			return out, fmt.Errorf("%w: revision %d: %v", ErrCatalogCorrupt, i, err)
		}
		if r.Index, err = c.ReadUint32(); err != nil {
			return out, fmt.Errorf("%w: revision %d: %v", ErrCatalogCorrupt, i, err)
		}
		if r.Label, err = c.ReadLen32Text16(); err != nil {
			return out, fmt.Errorf("%w: revision %d: %v", ErrCatalogCorrupt, i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
