package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/scanner"
)

// OLE property set streams carry the document's iProperties. The format is
// the structured storage property set serialization: a header naming one or
// more sections by format id, each section a table of {id, offset} pairs over
// typed values. Only the value types Inventor actually writes are decoded;
// anything else surfaces as a raw byte slice.

var ErrPropertySetCorrupt = errors.New("property set corrupt")

// Property value type tags.
const (
	vtEmpty    = 0
	vtI2       = 2
	vtI4       = 3
	vtR4       = 4
	vtR8       = 5
	vtBool     = 11
	vtUI4      = 19
	vtLPSTR    = 30
	vtLPWSTR   = 31
	vtFiletime = 64
)

const propIDDictionary = 0

var (
	fmtidSummary    = uuid.MustParse("f29f85e0-4ff9-1068-ab91-08002b27b3d9")
	fmtidDocSummary = uuid.MustParse("d5cdd502-2e9c-101b-9397-08002b2cf9ae")
)

var summaryNames = map[uint32]string{
	2: "Title", 3: "Subject", 4: "Author", 5: "Keywords",
	6: "Comments", 8: "LastSavedBy", 9: "Revision",
	12: "CreationTime", 13: "LastSavedTime",
}

var docSummaryNames = map[uint32]string{
	2: "Category", 14: "Manager", 15: "Company",
}

// DecodePropertySet reads one property set stream into IProperty entries. The
// set name is the stream name as found in the container.
func DecodePropertySet(setName string, data []byte) ([]IProperty, error) {
	c := scanner.New(data)
	byteOrder, err := c.ReadUint16()
	if err != nil || byteOrder != 0xFFFE {
		return nil, fmt.Errorf("%w: bad byte order mark", ErrPropertySetCorrupt)
	}
	if err := c.Skip(2 + 4 + 16); err != nil { // format version, system id, CLSID
		return nil, fmt.Errorf("%w: %v", ErrPropertySetCorrupt, err)
	}
	numSets, err := c.ReadUint32()
	if err != nil || numSets == 0 || numSets > 2 {
		return nil, fmt.Errorf("%w: %d sections", ErrPropertySetCorrupt, numSets)
	}

	type section struct {
		fmtid  uuid.UUID
		offset uint32
	}
	sections := make([]section, numSets)
	for i := range sections {
		if sections[i].fmtid, err = c.ReadGUID(); err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", ErrPropertySetCorrupt, i, err)
		}
		if sections[i].offset, err = c.ReadUint32(); err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", ErrPropertySetCorrupt, i, err)
		}
	}

	var props []IProperty
	for _, s := range sections {
		entries, err := decodeSection(setName, s.fmtid, data, s.offset)
		if err != nil {
			return props, err
		}
		props = append(props, entries...)
	}
	return props, nil
}

func decodeSection(setName string, fmtid uuid.UUID, data []byte, offset uint32) ([]IProperty, error) {
	if int(offset) >= len(data) {
		return nil, fmt.Errorf("%w: section offset %d beyond stream", ErrPropertySetCorrupt, offset)
	}
	c := scanner.New(data[offset:])
	size, err := c.ReadUint32()
	if err != nil || int(size) > c.Len() {
		return nil, fmt.Errorf("%w: section size", ErrPropertySetCorrupt)
	}
	count, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPropertySetCorrupt, err)
	}
	// Each slot is an {id, offset} pair; the table must fit the section.
	if min := int(count) * 8; min > c.Remaining() {
		return nil, fmt.Errorf("%w: %d properties declared, %d bytes remain", ErrPropertySetCorrupt, count, c.Remaining())
	}
	type slot struct {
		id     uint32
		offset uint32 // relative to section start
	}
	slots := make([]slot, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := c.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPropertySetCorrupt, err)
		}
		off, err := c.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPropertySetCorrupt, err)
		}
		slots = append(slots, slot{id: id, offset: off})
	}

	// The dictionary, when present, names custom property ids.
	names := map[uint32]string{}
	for _, s := range slots {
		if s.id != propIDDictionary {
			continue
		}
		if err := decodeDictionary(scanner.New(data[offset:]), s.offset, names); err != nil {
			return nil, err
		}
	}

	var props []IProperty
	for _, s := range slots {
		if s.id == propIDDictionary {
			continue
		}
		vc := scanner.New(data[offset:])
		if err := vc.Seek(int(s.offset)); err != nil {
			return nil, fmt.Errorf("%w: property %d offset: %v", ErrPropertySetCorrupt, s.id, err)
		}
		value, err := decodeValue(vc)
		if err != nil {
			return nil, fmt.Errorf("%w: property %d: %v", ErrPropertySetCorrupt, s.id, err)
		}
		props = append(props, IProperty{
			Set:   setName,
			ID:    s.id,
			Name:  propertyName(fmtid, s.id, names),
			Value: value,
		})
	}
	return props, nil
}

func propertyName(fmtid uuid.UUID, id uint32, dict map[uint32]string) string {
	if n, ok := dict[id]; ok {
		return n
	}
	switch fmtid {
	case fmtidSummary:
		return summaryNames[id]
	case fmtidDocSummary:
		return docSummaryNames[id]
	}
	return ""
}

func decodeDictionary(c *scanner.Cursor, offset uint32, names map[uint32]string) error {
	if err := c.Seek(int(offset)); err != nil {
		return fmt.Errorf("%w: dictionary: %v", ErrPropertySetCorrupt, err)
	}
	count, err := c.ReadUint32()
	if err != nil {
		return fmt.Errorf("%w: dictionary: %v", ErrPropertySetCorrupt, err)
	}
	for i := uint32(0); i < count; i++ {
		id, err := c.ReadUint32()
		if err != nil {
			return fmt.Errorf("%w: dictionary entry %d: %v", ErrPropertySetCorrupt, i, err)
		}
		name, err := c.ReadLen32Text(scanner.TextWindows1252)
		if err != nil {
			return fmt.Errorf("%w: dictionary entry %d: %v", ErrPropertySetCorrupt, i, err)
		}
		names[id] = trimNul(name)
	}
	return nil
}

func decodeValue(c *scanner.Cursor) (interface{}, error) {
	vt, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	switch vt {
	case vtEmpty:
		return nil, nil
	case vtI2:
		v, err := c.ReadInt16()
		return int64(v), err
	case vtI4:
		v, err := c.ReadInt32()
		return int64(v), err
	case vtR4:
		v, err := c.ReadFloat32()
		return float64(v), err
	case vtR8:
		return c.ReadFloat64()
	case vtBool:
		v, err := c.ReadUint16()
		return v != 0, err
	case vtUI4:
		v, err := c.ReadUint32()
		return int64(v), err
	case vtLPSTR:
		s, err := c.ReadLen32Text(scanner.TextWindows1252)
		return trimNul(s), err
	case vtLPWSTR:
		s, err := c.ReadLen32Text(scanner.TextUTF16LE)
		return trimNul(s), err
	case vtFiletime:
		v, err := c.ReadUint64()
		if err != nil {
			return nil, err
		}
		return filetime(v), nil
	}
	// Unknown type: keep the remaining bytes raw rather than guessing.
	rest, err := c.ReadBytes(c.Remaining())
	return rest, err
}

func trimNul(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

// filetime converts a Windows FILETIME (100ns ticks since 1601-01-01) to UTC.
func filetime(v uint64) time.Time {
	const epochDelta = 116444736000000000 // ticks between 1601 and 1970
	if v < epochDelta {
		return time.Time{}
	}
	ns := int64(v-epochDelta) * 100
	return time.Unix(0, ns).UTC()
}
