// Package wirebuild encodes the binary structures the decoder reads. It is
// test support: fixtures are synthesized in memory instead of being checked in
// as binary files, mirroring how the container format is specified.
package wirebuild

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"

	"github.com/wudi/inventorkit/catalog"
)

func AppendUint16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }
func AppendUint32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }
func AppendUint64(b []byte, v uint64) []byte { return binary.LittleEndian.AppendUint64(b, v) }

func AppendFloat64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

// AppendGUID writes a uuid in Microsoft mixed-endian wire order.
func AppendGUID(b []byte, u uuid.UUID) []byte {
	b = append(b, u[3], u[2], u[1], u[0])
	b = append(b, u[5], u[4])
	b = append(b, u[7], u[6])
	return append(b, u[8:16]...)
}

// AppendLen32Text16 writes a uint32 UTF-16 code-unit count followed by the
// units. Callers only pass BMP text in fixtures.
func AppendLen32Text16(b []byte, s string) []byte {
	runes := []rune(s)
	b = AppendUint32(b, uint32(len(runes)))
	for _, r := range runes {
		b = AppendUint16(b, uint16(r))
	}
	return b
}

// EncodeDb serializes an RSeDb header for the given version's field layout.
func EncodeDb(db catalog.Db) []byte {
	b := AppendUint32(nil, uint32(db.Version))
	b = AppendGUID(b, db.UID)
	b = AppendUint16(b, uint16(db.Kind))
	b = AppendUint16(b, db.Flags)
	if db.Version >= 4 {
		b = AppendUint64(b, db.Created)
		b = AppendUint64(b, db.Modified)
	}
	if db.Version >= 6 {
		b = AppendLen32Text16(b, db.Comment)
	}
	return b
}

// EncodeSegInfo serializes an RSeSegInfo directory.
func EncodeSegInfo(version int, entries []catalog.Entry) []byte {
	b := AppendUint32(nil, uint32(len(entries)))
	for _, e := range entries {
		b = AppendLen32Text16(b, e.Name)
		b = AppendGUID(b, e.UID)
		b = AppendUint16(b, uint16(e.Type))
		b = AppendUint16(b, uint16(e.Version))
		b = AppendUint32(b, e.Offset)
		b = AppendUint32(b, e.Length)
		b = AppendUint32(b, e.Inflated)
		if e.Compressed {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
		if version >= 5 {
			b = AppendUint32(b, e.Checksum)
		}
	}
	return b
}

// EncodeRevisions serializes an RSeDbRevisionInfo stream.
func EncodeRevisions(revs []catalog.Revision) []byte {
	b := AppendUint32(nil, uint32(len(revs)))
	for _, r := range revs {
		b = AppendGUID(b, r.UID)
		b = AppendUint32(b, r.Index)
		b = AppendLen32Text16(b, r.Label)
	}
	return b
}
